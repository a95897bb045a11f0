package gorm

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "query_monitor:start"

// QueryObserver receives the duration of every statement
type QueryObserver interface {
	ObserveQuery(operation, table string, duration time.Duration, failed bool)
}

// QueryMonitor times GORM statements through callbacks and logs slow ones
type QueryMonitor struct {
	observer      QueryObserver
	slowThreshold time.Duration
	logger        *zap.Logger
}

// NewQueryMonitor creates a new query monitor
func NewQueryMonitor(observer QueryObserver, slowThreshold time.Duration, logger *zap.Logger) *QueryMonitor {
	return &QueryMonitor{
		observer:      observer,
		slowThreshold: slowThreshold,
		logger:        logger.Named("query-monitor"),
	}
}

// Install registers before/after callbacks for every statement kind
func (qm *QueryMonitor) Install(db *gorm.DB) error {
	cb := db.Callback()
	processors := []struct {
		operation string
		before    func(name string, fn func(*gorm.DB)) error
		after     func(name string, fn func(*gorm.DB)) error
	}{
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, p := range processors {
		if err := p.before("monitor:before_"+p.operation, qm.before); err != nil {
			return err
		}
		if err := p.after("monitor:after_"+p.operation, qm.after(p.operation)); err != nil {
			return err
		}
	}
	return nil
}

func (qm *QueryMonitor) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (qm *QueryMonitor) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}

		duration := time.Since(start)
		failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
		table := ""
		if db.Statement != nil {
			table = db.Statement.Table
		}

		if qm.observer != nil {
			qm.observer.ObserveQuery(operation, table, duration, failed)
		}

		if qm.slowThreshold > 0 && duration > qm.slowThreshold {
			qm.logger.Warn("Slow query detected",
				zap.String("operation", operation),
				zap.String("table", table),
				zap.Duration("duration", duration),
			)
		}
	}
}
