package container

import (
	"context"
	"testing"

	"github.com/nutrimom/api/internal/infrastructure/ai"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/internal/infrastructure/monitoring"
	"github.com/nutrimom/api/internal/infrastructure/persistence/memory"
	"github.com/nutrimom/api/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestGraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(New(""), fx.NopLogger))
}

func TestNewCacheWithoutRedis(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	cfg := &config.Config{}

	cache, client, err := NewCache(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.IsType(t, &memory.CacheRepository{}, cache)

	lc.RequireStart().RequireStop()
}

func TestDefaultsProviderFollowsSettings(t *testing.T) {
	settings := config.NewRecommendationSettings(config.RecommendationConfig{
		DefaultDays:     2,
		OptionsPerMeal:  4,
		DetectionTopK:   6,
		ScanSearchLimit: 30,
		MealLogLimit:    20,
		PortionsPerDay:  3,
	})
	defaults := NewDefaultsProvider(settings)

	got := defaults()
	assert.Equal(t, 2, got.Days)
	assert.Equal(t, 4, got.OptionsPerMeal)
	assert.Equal(t, 6, got.DetectionTopK)
	assert.Equal(t, 30, got.ScanSearchLimit)
	assert.Equal(t, 20, got.MealLogLimit)

	updated := settings.Get()
	updated.DefaultDays = 5
	settings.Set(updated)
	assert.Equal(t, 5, defaults().Days)
}

func TestNewDatabaseSQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     t.TempDir() + "/nutrimom.db",
		LogLevel: "silent",
		Seed:     true,
	}}

	db, err := NewDatabase(cfg, zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var count int64
	require.NoError(t, db.WithContext(context.Background()).Table("food_menus").Count(&count).Error)
	assert.Greater(t, count, int64(0))
}

func TestRegisterHealthChecks(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:   "sqlite",
		Path:     t.TempDir() + "/health.db",
		LogLevel: "silent",
	}}
	db, err := NewDatabase(cfg, zap.NewNop(), monitoring.NewMetricsCollector(zap.NewNop()))
	require.NoError(t, err)

	health := healthcheck.New("test", zap.NewNop())
	require.NoError(t, RegisterHealthChecks(HealthCheckParams{
		Health:  health,
		DB:      db,
		Breaker: ai.NewRecognizerBreaker(zap.NewNop()),
	}))

	resp := health.Check(context.Background())
	assert.Equal(t, healthcheck.StatusHealthy, resp.Status)
	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "database", resp.Checks[0].Name)
	assert.Equal(t, "recognizer", resp.Checks[1].Name)
}
