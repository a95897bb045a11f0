// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/nutrimom/api/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

const slowQueryThreshold = 200 * time.Millisecond

// Open connects to the primary database and registers read replicas.
// Catalog reads are spread across replicas; writes and transactions stay on
// the primary.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: NewGORMLogger(log, cfg.Database.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if len(cfg.Database.ReadReplicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Database.ReadReplicas))
		for _, replica := range cfg.Database.ReadReplicas {
			replicas = append(replicas, postgres.Open(ReplicaDSN(cfg.Database, replica)))
		}

		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxOpenConns(cfg.Database.MaxOpenConns).
			SetMaxIdleConns(cfg.Database.MaxIdleConns).
			SetConnMaxLifetime(cfg.Database.ConnMaxLifetime).
			SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

		if err := db.Use(resolver); err != nil {
			return nil, fmt.Errorf("failed to register read replicas: %w", err)
		}

		log.Info("Read replicas configured", zap.Int("replica_count", len(replicas)))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
	)

	return db, nil
}

// ReplicaDSN builds the DSN of a replica. A replica entry is either a full
// key=value DSN or a host[:port] sharing the primary's credentials.
func ReplicaDSN(db config.DatabaseConfig, replica string) string {
	if strings.Contains(replica, "=") || strings.Contains(replica, "://") {
		return replica
	}

	host, port := replica, strconv.Itoa(db.Port)
	if h, p, err := net.SplitHostPort(replica); err == nil {
		host, port = h, p
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		port,
		db.Username,
		db.Password,
		db.Database,
		db.SSLMode,
	)
}

// NewGORMLogger routes GORM logs through zap
func NewGORMLogger(log *zap.Logger, level string) logger.Interface {
	return logger.New(
		&GORMLogWriter{logger: log.Named("gorm")},
		logger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  ParseLogLevel(level),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// ParseLogLevel maps a config level onto GORM's levels
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

// GORMLogWriter adapts zap to GORM's printf style writer
type GORMLogWriter struct {
	logger *zap.Logger
}

// Printf implements logger.Writer
func (w *GORMLogWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
