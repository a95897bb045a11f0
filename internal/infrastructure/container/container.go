// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/nutrimom/api/internal/application/recommendation"
	"github.com/nutrimom/api/internal/domain/meallog"
	"github.com/nutrimom/api/internal/domain/shared"
	"github.com/nutrimom/api/internal/infrastructure/ai"
	"github.com/nutrimom/api/internal/infrastructure/config"
	"github.com/nutrimom/api/internal/infrastructure/http/apiserver"
	"github.com/nutrimom/api/internal/infrastructure/http/handlers"
	"github.com/nutrimom/api/internal/infrastructure/http/middleware"
	"github.com/nutrimom/api/internal/infrastructure/monitoring"
	gormrepo "github.com/nutrimom/api/internal/infrastructure/persistence/gorm"
	"github.com/nutrimom/api/internal/infrastructure/persistence/memory"
	"github.com/nutrimom/api/internal/infrastructure/persistence/migrations"
	"github.com/nutrimom/api/internal/infrastructure/persistence/postgres"
	rediscache "github.com/nutrimom/api/internal/infrastructure/persistence/redis"
	"github.com/nutrimom/api/internal/infrastructure/persistence/sqlite"
	"github.com/nutrimom/api/internal/ports/inbound"
	"github.com/nutrimom/api/internal/ports/outbound"
	"github.com/nutrimom/api/pkg/healthcheck"
	"github.com/nutrimom/api/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const slowQueryThreshold = 200 * time.Millisecond

// ConfigPath is the config file given on the command line. Empty means
// the default search paths.
type ConfigPath string

// New returns the application graph for the given config file
func New(path string) fx.Option {
	return fx.Options(
		fx.Supply(ConfigPath(path)),
		Module,
	)
}

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	RecognitionModule,
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Event modules
	EventModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
	func(cfg *config.Config) *config.RecommendationSettings {
		return config.NewRecommendationSettings(cfg.Recommendation)
	},
	func(cfg *config.Config, settings *config.RecommendationSettings, log *zap.Logger) *config.Watcher {
		return config.NewWatcher(cfg.ConfigFile, settings, log)
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			Service:     cfg.App.Name,
		})
	},
)

// MonitoringModule provides metrics, tracing and health checks
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.MetricsRecorder { return m },
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		return healthcheck.New(cfg.App.Version, log.Named("health"))
	},
	func(cfg *config.Config, m *monitoring.MetricsCollector, h *healthcheck.HealthCheck, log *zap.Logger) *monitoring.OpsServer {
		return monitoring.NewOpsServer(cfg.Monitoring.MetricsPort, m, h, log)
	},
)

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(NewDatabase)

// NewDatabase opens the configured database, applies the schema, installs
// query metrics and optionally seeds the demo catalog
func NewDatabase(cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (*gorm.DB, error) {
	gormLog := postgres.NewGORMLogger(log, cfg.Database.LogLevel)

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.AutoMigrate {
			if err := migrations.Run(cfg.GetDSN(), log); err != nil {
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		db, err = postgres.Open(cfg, log)
	default:
		db, err = sqlite.SetupDatabase(cfg.Database.Path, gormLog)
		if err == nil {
			log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
		}
	}
	if err != nil {
		return nil, err
	}

	if err := gormrepo.NewQueryMonitor(metrics, slowQueryThreshold, log).Install(db); err != nil {
		return nil, fmt.Errorf("failed to install query monitor: %w", err)
	}

	if cfg.Database.Seed {
		if err := gormrepo.SeedDatabase(db); err != nil {
			log.Warn("Failed to seed database", zap.Error(err))
		}
	}

	return db, nil
}

// CacheModule provides caching. Redis is used when enabled; otherwise an
// in-process cache. The returned client is nil without Redis.
var CacheModule = fx.Provide(NewCache)

// NewCache builds the cache backend
func NewCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, redis.UniversalClient, error) {
	if !cfg.Redis.Enable {
		log.Info("Using in-memory cache")
		cache := memory.NewCacheRepository()
		lc.Append(fx.StopHook(cache.Close))
		return cache, nil, nil
	}

	client, err := rediscache.NewClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return nil, nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return rediscache.NewCacheRepository(client, cfg.Redis.KeyPrefix, log), client, nil
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormrepo.NewPreferenceRepository,
	gormrepo.NewCatalogRepository,
	gormrepo.NewMealLogRepository,
)

// RecognitionModule provides the image labeler behind a circuit breaker
var RecognitionModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.LabelRecognizer, *healthcheck.CircuitBreaker, error) {
		base, err := ai.NewRecognizer(cfg.Recognition, log)
		if err != nil {
			return nil, nil, err
		}
		breaker := ai.NewRecognizerBreaker(log)
		return ai.NewBreakerRecognizer(base, breaker), breaker, nil
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewDefaultsProvider,
	func(
		catalog outbound.CatalogRepository,
		cache outbound.CacheRepository,
		settings *config.RecommendationSettings,
		metrics outbound.MetricsRecorder,
		log *zap.Logger,
	) *recommendation.CatalogLoader {
		ttl := func() time.Duration { return settings.Get().CatalogCacheTTL }
		return recommendation.NewCatalogLoader(catalog, cache, ttl, metrics, log)
	},
	func(
		preferences outbound.PreferenceRepository,
		catalog outbound.CatalogRepository,
		mealLogs outbound.MealLogRepository,
		loader *recommendation.CatalogLoader,
		recognizer outbound.LabelRecognizer,
		events shared.EventPublisher,
		metrics outbound.MetricsRecorder,
		defaults recommendation.DefaultsProvider,
		log *zap.Logger,
	) inbound.RecommendationService {
		return recommendation.NewService(preferences, catalog, mealLogs, loader, recognizer, events, metrics, defaults, log)
	},
)

// NewDefaultsProvider reads request defaults from the hot reloadable
// recommendation section
func NewDefaultsProvider(settings *config.RecommendationSettings) recommendation.DefaultsProvider {
	return func() recommendation.Defaults {
		c := settings.Get()
		return recommendation.Defaults{
			Scoring:         c.ScoringParameters(),
			Days:            c.DefaultDays,
			OptionsPerMeal:  c.OptionsPerMeal,
			DetectionTopK:   c.DetectionTopK,
			ScanSearchLimit: c.ScanSearchLimit,
			MealLogLimit:    c.MealLogLimit,
		}
	}
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(cfg *config.Config, svc inbound.RecommendationService, log *zap.Logger) *handlers.RecommendationHandlers {
		return handlers.NewRecommendationHandlers(svc, cfg.Recognition.MaxImageBytes, log)
	},
	func(cfg *config.Config, log *zap.Logger) *middleware.Authenticator {
		return middleware.NewAuthenticator(cfg.Auth, log)
	},
	func(cfg *config.Config) *middleware.RateLimiter {
		return middleware.NewRateLimiter(cfg.RateLimit)
	},
	apiserver.NewAPIServer,
)

// EventModule provides event handling
var EventModule = fx.Options(
	fx.Provide(
		NewEventDispatcher,
		func(d *EventDispatcher) shared.EventPublisher { return d },
	),
	fx.Invoke(RegisterEventHandlers),
)

// RegisterEventHandlers wires the meal log event consumers
func RegisterEventHandlers(d *EventDispatcher, cache outbound.CacheRepository, log *zap.Logger) {
	logHandler := LogHandler(log.Named("events"))
	counter := DailyCounterHandler(cache)
	for _, event := range []string{
		meallog.MealLoggedEvent{}.EventName(),
		meallog.MealConsumedEvent{}.EventName(),
	} {
		d.Register(event, logHandler)
		d.Register(event, counter)
	}
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	RegisterLifecycleHooks,
)

// HealthCheckParams groups the health check dependencies. Redis is absent
// when the in-memory cache is used.
type HealthCheckParams struct {
	fx.In

	Health  *healthcheck.HealthCheck
	DB      *gorm.DB
	Redis   redis.UniversalClient `optional:"true"`
	Breaker *healthcheck.CircuitBreaker
}

// RegisterHealthChecks registers the dependency checks
func RegisterHealthChecks(p HealthCheckParams) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	p.Health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	if p.Redis != nil {
		p.Health.Register("redis", healthcheck.NewRedisChecker(p.Redis))
	}
	p.Health.Register("recognizer", p.Breaker.Checker())
	return nil
}

// LifecycleParams groups what the lifecycle hooks start and stop
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	API       *apiserver.APIServer
	Ops       *monitoring.OpsServer
	Tracing   *monitoring.TracingProvider
	Watcher   *config.Watcher
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(p LifecycleParams) {
	cfg, log := p.Config, p.Logger

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting NutriMom API",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)

			if err := p.Watcher.Start(); err != nil {
				return err
			}
			if cfg.Monitoring.EnableMetrics {
				p.Ops.Start()
			}
			return p.API.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down NutriMom API")

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := p.API.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown API server", zap.Error(err))
			}
			if cfg.Monitoring.EnableMetrics {
				if err := p.Ops.Shutdown(shutdownCtx); err != nil {
					log.Error("Failed to shutdown operations server", zap.Error(err))
				}
			}
			if err := p.Tracing.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			if sqlDB, err := p.DB.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					log.Error("Failed to close database connection", zap.Error(err))
				}
			}

			_ = log.Sync()
			return nil
		},
	})
}
