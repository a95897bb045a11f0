//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutrimom/api/internal/infrastructure/persistence/redis"
	"github.com/nutrimom/api/internal/ports/outbound"
	"github.com/nutrimom/api/test/testutils"
)

func TestCacheRepository(t *testing.T) {
	client := testutils.SetupTestRedis(t)
	repo := redis.NewCacheRepository(client, "test:", zap.NewNop())
	ctx := context.Background()

	t.Run("Get_Missing_ShouldReturnCacheMiss", func(t *testing.T) {
		_, err := repo.Get(ctx, "absent")
		assert.ErrorIs(t, err, outbound.ErrCacheMiss)
	})

	t.Run("SetGet_ShouldUsePrefix", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "catalog", []byte("snapshot"), time.Minute))

		got, err := repo.Get(ctx, "catalog")
		require.NoError(t, err)
		assert.Equal(t, "snapshot", string(got))

		raw, err := client.Get(ctx, "test:catalog").Result()
		require.NoError(t, err)
		assert.Equal(t, "snapshot", raw)
	})

	t.Run("Delete_ShouldRemoveKey", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "gone", []byte("v"), time.Minute))
		require.NoError(t, repo.Delete(ctx, "gone"))

		exists, err := repo.Exists(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Increment_ShouldCountAndExpire", func(t *testing.T) {
		first, err := repo.Increment(ctx, "hits")
		require.NoError(t, err)
		second, err := repo.Increment(ctx, "hits")
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Equal(t, int64(2), second)

		ttl, err := client.TTL(ctx, "test:hits").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})
}
