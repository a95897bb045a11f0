package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/infrastructure/ai/rekognition"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/pkg/healthcheck"
)

func TestNewRecognizer(t *testing.T) {
	logger := zap.NewNop()

	t.Run("Stub", func(t *testing.T) {
		r, err := NewRecognizer(config.RecognitionConfig{Provider: ProviderStub}, logger)
		require.NoError(t, err)

		labels, err := r.Recognize(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "ayam", labels[0].Label)
	})

	t.Run("Rekognition", func(t *testing.T) {
		r, err := NewRecognizer(config.RecognitionConfig{Provider: ProviderRekognition, Region: "ap-southeast-1"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &rekognition.Client{}, r)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := NewRecognizer(config.RecognitionConfig{Provider: "vision"}, logger)
		assert.Error(t, err)
	})
}

func TestStubRecognizer_ReturnsCopy(t *testing.T) {
	stub := NewStubRecognizer(detection.Label{Label: "tempe", Confidence: 0.9})

	first, _ := stub.Recognize(context.Background(), nil)
	first[0].Label = "mutated"
	second, _ := stub.Recognize(context.Background(), nil)

	assert.Equal(t, "tempe", second[0].Label)
}

type failingRecognizer struct{ calls int }

func (f *failingRecognizer) Recognize(context.Context, []byte) ([]detection.Label, error) {
	f.calls++
	return nil, errors.New("unavailable")
}

func TestBreakerRecognizer_OpensAfterFailures(t *testing.T) {
	inner := &failingRecognizer{}
	breaker := healthcheck.NewCircuitBreaker("recognizer", healthcheck.CircuitBreakerConfig{FailureThreshold: 2, Timeout: time.Hour})
	r := NewBreakerRecognizer(inner, breaker)

	for i := 0; i < 4; i++ {
		_, err := r.Recognize(context.Background(), []byte{1})
		assert.Error(t, err)
	}

	assert.Equal(t, 2, inner.calls)
	_, err := r.Recognize(context.Background(), []byte{1})
	assert.ErrorIs(t, err, healthcheck.ErrCircuitOpen)
}
