// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/domain/mealplan"
	"github.com/nutrimom/api/internal/domain/meallog"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
	"github.com/nutrimom/api/internal/domain/shared"
	"github.com/nutrimom/api/internal/ports/inbound"
	"github.com/nutrimom/api/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockPreferenceRepository provides a mock implementation of PreferenceRepository
type MockPreferenceRepository struct {
	mock.Mock
}

// FindByUserID finds a preference
func (m *MockPreferenceRepository) FindByUserID(ctx context.Context, userID uint) (*nutrition.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*nutrition.Preference), args.Error(1)
}

// Save saves a preference
func (m *MockPreferenceRepository) Save(ctx context.Context, pref *nutrition.Preference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

// MockCatalogRepository provides a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

// ActiveCatalog loads the active catalog
func (m *MockCatalogRepository) ActiveCatalog(ctx context.Context) (*menu.Catalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*menu.Catalog), args.Error(1)
}

// FindMenu finds a menu and its composition
func (m *MockCatalogRepository) FindMenu(ctx context.Context, id uint) (*menu.Menu, []menu.CompositionLine, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	lines, _ := args.Get(1).([]menu.CompositionLine)
	return args.Get(0).(*menu.Menu), lines, args.Error(2)
}

// IngredientsByIDs loads ingredients
func (m *MockCatalogRepository) IngredientsByIDs(ctx context.Context, ids []uint) (map[uint]menu.Ingredient, error) {
	args := m.Called(ctx, ids)
	ingredients, _ := args.Get(0).(map[uint]menu.Ingredient)
	return ingredients, args.Error(1)
}

// SearchIngredients searches ingredients by term
func (m *MockCatalogRepository) SearchIngredients(ctx context.Context, terms []string, limit int) ([]menu.Ingredient, error) {
	args := m.Called(ctx, terms, limit)
	ingredients, _ := args.Get(0).([]menu.Ingredient)
	return ingredients, args.Error(1)
}

// MockMealLogRepository provides a mock implementation of MealLogRepository
type MockMealLogRepository struct {
	mock.Mock
}

// Create stores a meal log
func (m *MockMealLogRepository) Create(ctx context.Context, log *meallog.MealLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

// MarkConsumed confirms a meal log
func (m *MockMealLogRepository) MarkConsumed(ctx context.Context, userID uint, id uuid.UUID) (*meallog.MealLog, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meallog.MealLog), args.Error(1)
}

// ListByUser lists meal logs
func (m *MockMealLogRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]*meallog.MealLog, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]*meallog.MealLog)
	return logs, args.Error(1)
}

// MockCacheRepository provides a mock implementation of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

// Get reads a key
func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// Set writes a key
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a key
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists checks a key
func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// Increment increments a counter
func (m *MockCacheRepository) Increment(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

// MockLabelRecognizer provides a mock implementation of LabelRecognizer
type MockLabelRecognizer struct {
	mock.Mock
}

// Recognize labels an image
func (m *MockLabelRecognizer) Recognize(ctx context.Context, image []byte) ([]detection.Label, error) {
	args := m.Called(ctx, image)
	labels, _ := args.Get(0).([]detection.Label)
	return labels, args.Error(1)
}

// RecordingPublisher keeps every published event in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewRecordingPublisher creates an empty publisher
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records events
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

// Names returns the recorded event names in publish order
func (p *RecordingPublisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.EventName())
	}
	return names
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) RecordPlan(int, bool, time.Duration) {}
func (NopMetrics) RecordScan(string, int, bool)        {}
func (NopMetrics) RecordMealLog(string)                {}
func (NopMetrics) RecordCatalogLoad(bool)              {}

var (
	_ outbound.PreferenceRepository = (*MockPreferenceRepository)(nil)
	_ outbound.CatalogRepository    = (*MockCatalogRepository)(nil)
	_ outbound.MealLogRepository    = (*MockMealLogRepository)(nil)
	_ outbound.CacheRepository      = (*MockCacheRepository)(nil)
	_ outbound.LabelRecognizer      = (*MockLabelRecognizer)(nil)
	_ outbound.MetricsRecorder      = NopMetrics{}
	_ shared.EventPublisher         = (*RecordingPublisher)(nil)
)

// MockRecommendationService provides a mock implementation of RecommendationService
type MockRecommendationService struct {
	mock.Mock
}

var _ inbound.RecommendationService = (*MockRecommendationService)(nil)

// Targets returns the configured targets
func (m *MockRecommendationService) Targets(ctx context.Context, userID uint) (*inbound.TargetsDTO, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.TargetsDTO), args.Error(1)
}

// Recommend returns the configured plan
func (m *MockRecommendationService) Recommend(ctx context.Context, cmd inbound.RecommendCommand) (*mealplan.Plan, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mealplan.Plan), args.Error(1)
}

// ScanFood returns the configured scan result
func (m *MockRecommendationService) ScanFood(ctx context.Context, cmd inbound.ScanCommand) (*detection.Result, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*detection.Result), args.Error(1)
}

// ListMealLogs returns the configured logs
func (m *MockRecommendationService) ListMealLogs(ctx context.Context, userID uint, limit int) ([]inbound.MealLogDTO, error) {
	args := m.Called(ctx, userID, limit)
	logs, _ := args.Get(0).([]inbound.MealLogDTO)
	return logs, args.Error(1)
}

// GetPreference returns the configured preference
func (m *MockRecommendationService) GetPreference(ctx context.Context, userID uint) (*inbound.PreferenceDTO, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.PreferenceDTO), args.Error(1)
}

// SavePreference returns the configured preference
func (m *MockRecommendationService) SavePreference(ctx context.Context, cmd inbound.SavePreferenceCommand) (*inbound.PreferenceDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.PreferenceDTO), args.Error(1)
}

// LogMeal returns the configured meal log
func (m *MockRecommendationService) LogMeal(ctx context.Context, cmd inbound.LogMealCommand) (*inbound.MealLogDTO, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.MealLogDTO), args.Error(1)
}

// ConfirmMeal returns the configured meal log
func (m *MockRecommendationService) ConfirmMeal(ctx context.Context, userID uint, logID uuid.UUID) (*inbound.MealLogDTO, error) {
	args := m.Called(ctx, userID, logID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inbound.MealLogDTO), args.Error(1)
}
