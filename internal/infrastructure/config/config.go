// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/domain/mealplan"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NUTRIMOM_SERVER_PORT
const EnvPrefix = "NUTRIMOM"

// Config holds all application configuration
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Recognition    RecognitionConfig    `mapstructure:"recognition"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`

	// ConfigFile is the file the configuration was read from, if any
	ConfigFile string `mapstructure:"-"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS        bool          `mapstructure:"enable_cors"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
	EnableHTTP2       bool          `mapstructure:"enable_http2"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	ReadReplicas    []string      `mapstructure:"read_replicas"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	Seed            bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enable       bool          `mapstructure:"enable"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// AuthConfig contains token verification settings. Tokens are issued
// elsewhere; this service only verifies them.
type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	Issuer      string `mapstructure:"issuer"`
	UserIDClaim string `mapstructure:"user_id_claim"`
}

// RecognitionConfig selects and tunes the image labeler
type RecognitionConfig struct {
	Provider        string        `mapstructure:"provider"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	Endpoint        string        `mapstructure:"endpoint"`
	MaxLabels       int64         `mapstructure:"max_labels"`
	MinConfidence   float64       `mapstructure:"min_confidence"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxImageBytes   int           `mapstructure:"max_image_bytes"`
}

// RecommendationConfig holds the default tunables. This section is hot
// reloaded when the config file changes.
type RecommendationConfig struct {
	BoostPerHit     float64       `mapstructure:"boost_per_hit"`
	BoostPer100g    float64       `mapstructure:"boost_per_100g"`
	MinHits         int           `mapstructure:"min_hits"`
	BoostByQuantity bool          `mapstructure:"boost_by_quantity"`
	PortionsPerDay  float64       `mapstructure:"portions_per_day"`
	OptionsPerMeal  int           `mapstructure:"options_per_meal"`
	DefaultDays     int           `mapstructure:"default_days"`
	DetectionTopK   int           `mapstructure:"detection_top_k"`
	ScanSearchLimit int           `mapstructure:"scan_search_limit"`
	MealLogLimit    int           `mapstructure:"meal_log_limit"`
	CatalogCacheTTL time.Duration `mapstructure:"catalog_cache_ttl"`
}

// ScoringParameters converts the section into domain tunables
func (r RecommendationConfig) ScoringParameters() menu.ScoringParameters {
	return menu.ScoringParameters{
		BoostPerHit:     r.BoostPerHit,
		BoostPer100g:    r.BoostPer100g,
		MinHits:         r.MinHits,
		BoostByQuantity: r.BoostByQuantity,
		PortionsPerDay:  r.PortionsPerDay,
	}.Clamp()
}

// Validate checks the section's ranges
func (r RecommendationConfig) Validate() error {
	switch {
	case r.BoostPerHit < 0 || r.BoostPerHit > menu.MaxBoostPerHit:
		return fmt.Errorf("recommendation.boost_per_hit must be between 0 and %d", menu.MaxBoostPerHit)
	case r.BoostPer100g < 0 || r.BoostPer100g > menu.MaxBoostPer100g:
		return fmt.Errorf("recommendation.boost_per_100g must be between 0 and %d", menu.MaxBoostPer100g)
	case r.MinHits < 1 || r.MinHits > menu.MaxMinHits:
		return fmt.Errorf("recommendation.min_hits must be between 1 and %d", menu.MaxMinHits)
	case r.OptionsPerMeal < 1 || r.OptionsPerMeal > mealplan.MaxOptionsPerMeal:
		return fmt.Errorf("recommendation.options_per_meal must be between 1 and %d", mealplan.MaxOptionsPerMeal)
	case r.DefaultDays < 1 || r.DefaultDays > mealplan.MaxDays:
		return fmt.Errorf("recommendation.default_days must be between 1 and %d", mealplan.MaxDays)
	case r.DetectionTopK < 1 || r.DetectionTopK > detection.MaxTopK:
		return fmt.Errorf("recommendation.detection_top_k must be between 1 and %d", detection.MaxTopK)
	case r.PortionsPerDay <= 0:
		return errors.New("recommendation.portions_per_day must be positive")
	}
	return nil
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics bool    `mapstructure:"enable_metrics"`
	MetricsPort   int     `mapstructure:"metrics_port"`
	EnableTracing bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint  string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure  bool    `mapstructure:"otlp_insecure"`
	SamplingRate  float64 `mapstructure:"sampling_rate"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ConfigFile = v.ConfigFileUsed()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutrimom")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "NutriMom")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_body_bytes", 8<<20)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.enable_compression", true)
	v.SetDefault("server.enable_http2", true)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "nutrimom.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "nutrimom")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", true)

	// Redis defaults
	v.SetDefault("redis.enable", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "nutrimom:")

	// Auth defaults
	v.SetDefault("auth.user_id_claim", "user_id")

	// Recognition defaults
	v.SetDefault("recognition.provider", "stub")
	v.SetDefault("recognition.region", "ap-southeast-1")
	v.SetDefault("recognition.max_labels", 10)
	v.SetDefault("recognition.min_confidence", 60.0)
	v.SetDefault("recognition.timeout", "10s")
	v.SetDefault("recognition.max_image_bytes", 5<<20)

	// Recommendation defaults
	v.SetDefault("recommendation.boost_per_hit", menu.DefaultBoostPerHit)
	v.SetDefault("recommendation.boost_per_100g", menu.DefaultBoostPer100g)
	v.SetDefault("recommendation.min_hits", menu.DefaultMinHits)
	v.SetDefault("recommendation.boost_by_quantity", true)
	v.SetDefault("recommendation.portions_per_day", menu.DefaultPortionsPerDay)
	v.SetDefault("recommendation.options_per_meal", mealplan.DefaultOptionsPerMeal)
	v.SetDefault("recommendation.default_days", mealplan.DefaultDays)
	v.SetDefault("recommendation.detection_top_k", detection.DefaultTopK)
	v.SetDefault("recommendation.scan_search_limit", 50)
	v.SetDefault("recommendation.meal_log_limit", 10)
	v.SetDefault("recommendation.catalog_cache_ttl", "5m")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_port", 9090)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.otlp_insecure", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 30)
	v.SetDefault("rate_limit.burst_size", 5)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return errors.New("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return errors.New("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return errors.New("auth.jwt_secret is required in production")
	}

	switch c.Recognition.Provider {
	case "stub":
	case "rekognition":
		if c.Recognition.Region == "" {
			return errors.New("recognition.region is required for rekognition")
		}
	default:
		return fmt.Errorf("recognition.provider %q is not supported", c.Recognition.Provider)
	}

	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return errors.New("monitoring.sampling_rate must be between 0 and 1")
	}

	return c.Recommendation.Validate()
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the primary database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
