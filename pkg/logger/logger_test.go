package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("InvalidLevel_ShouldFallBackToInfo", func(t *testing.T) {
		log, err := New(Config{Level: "loud", Format: "json"})

		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("DebugConsole_ShouldEnableDebug", func(t *testing.T) {
		log, err := New(Config{Level: "debug", Format: "console", Development: true, Service: "api"})

		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("BadOutputPath_ShouldFail", func(t *testing.T) {
		_, err := New(Config{OutputPaths: []string{"/nonexistent-dir/x/y.log"}})

		assert.Error(t, err)
	})
}

func TestContext(t *testing.T) {
	base := zap.NewNop()
	scoped := zap.NewExample()

	assert.Same(t, base, FromContext(context.Background(), base))
	assert.Same(t, scoped, FromContext(WithContext(context.Background(), scoped), base))
}
