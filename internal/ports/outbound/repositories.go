// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/domain/meallog"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent keys
var ErrCacheMiss = errors.New("cache miss")

// PreferenceRepository stores one nutrition profile per user
type PreferenceRepository interface {
	FindByUserID(ctx context.Context, userID uint) (*nutrition.Preference, error)
	Save(ctx context.Context, pref *nutrition.Preference) error
}

// CatalogRepository reads the menu and ingredient catalog
type CatalogRepository interface {
	// ActiveCatalog loads every active menu, its composition and the
	// ingredients the compositions reference
	ActiveCatalog(ctx context.Context) (*menu.Catalog, error)
	FindMenu(ctx context.Context, id uint) (*menu.Menu, []menu.CompositionLine, error)
	IngredientsByIDs(ctx context.Context, ids []uint) (map[uint]menu.Ingredient, error)
	// SearchIngredients matches terms as case-insensitive substrings of
	// name or alt_names
	SearchIngredients(ctx context.Context, terms []string, limit int) ([]menu.Ingredient, error)
}

// MealLogRepository persists meal log snapshots
type MealLogRepository interface {
	// Create inserts the header and its items in one transaction
	Create(ctx context.Context, log *meallog.MealLog) error
	// MarkConsumed flips the consumed flag of the log owned by userID in one
	// transaction and returns the updated log
	MarkConsumed(ctx context.Context, userID uint, id uuid.UUID) (*meallog.MealLog, error)
	// ListByUser returns logs newest first
	ListByUser(ctx context.Context, userID uint, limit int) ([]*meallog.MealLog, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
}

// LabelRecognizer turns a food photo into labels. Implementations wrap an
// external model and are treated as a black box.
type LabelRecognizer interface {
	Recognize(ctx context.Context, image []byte) ([]detection.Label, error)
}

// Message is a serialized domain event
type Message struct {
	ID        string
	Type      string
	Payload   []byte
	Timestamp time.Time
}

// MessageHandler handles dispatched messages
type MessageHandler func(ctx context.Context, message Message) error

// MetricsRecorder receives business measurements from the application layer
type MetricsRecorder interface {
	RecordPlan(days int, detectionUsed bool, duration time.Duration)
	RecordScan(source string, candidates int, recognizerFailed bool)
	RecordMealLog(action string)
	RecordCatalogLoad(cacheHit bool)
}
