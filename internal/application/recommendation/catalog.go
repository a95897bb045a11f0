package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/ports/outbound"
	"go.uber.org/zap"
)

// CatalogCacheKey is where the active catalog snapshot is cached
const CatalogCacheKey = "catalog:active:v1"

// CatalogLoader serves the active catalog from cache, falling back to the
// repository. Cache failures are logged and never fail the request.
type CatalogLoader struct {
	repo    outbound.CatalogRepository
	cache   outbound.CacheRepository
	ttl     func() time.Duration
	metrics outbound.MetricsRecorder
	logger  *zap.Logger
}

// NewCatalogLoader creates a loader. ttl is read on every store so the
// value can be hot reloaded; a non-positive TTL disables caching.
func NewCatalogLoader(
	repo outbound.CatalogRepository,
	cache outbound.CacheRepository,
	ttl func() time.Duration,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) *CatalogLoader {
	return &CatalogLoader{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger.Named("catalog-loader"),
	}
}

// Load returns the active catalog
func (l *CatalogLoader) Load(ctx context.Context) (*menu.Catalog, error) {
	ttl := l.ttl()
	if l.cache != nil && ttl > 0 {
		data, err := l.cache.Get(ctx, CatalogCacheKey)
		switch {
		case err == nil:
			var snap catalogSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				l.recordLoad(true)
				return snap.toCatalog(), nil
			}
			l.logger.Warn("Discarding unreadable catalog snapshot")
		case !errors.Is(err, outbound.ErrCacheMiss):
			l.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
	}

	catalog, err := l.repo.ActiveCatalog(ctx)
	if err != nil {
		return nil, err
	}
	l.recordLoad(false)

	if l.cache != nil && ttl > 0 {
		data, err := jsonSnapshot(catalog)
		if err == nil {
			err = l.cache.Set(ctx, CatalogCacheKey, data, ttl)
		}
		if err != nil {
			l.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}

	return catalog, nil
}

// Invalidate drops the cached snapshot
func (l *CatalogLoader) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, CatalogCacheKey)
}

func (l *CatalogLoader) recordLoad(hit bool) {
	if l.metrics != nil {
		l.metrics.RecordCatalogLoad(hit)
	}
}

type catalogSnapshot struct {
	Menus        []menuSnapshot              `json:"menus"`
	Compositions map[uint][]lineSnapshot     `json:"compositions"`
	Ingredients  map[uint]ingredientSnapshot `json:"ingredients"`
	CachedAt     time.Time                   `json:"cached_at"`
}

type menuSnapshot struct {
	ID         uint            `json:"id"`
	Name       string          `json:"name"`
	MealType   menu.MealType   `json:"meal_type"`
	Tags       []string        `json:"tags"`
	TargetRole menu.TargetRole `json:"target_role"`
	ImageURL   string          `json:"image_url"`
	IsActive   bool            `json:"is_active"`
	Manual     *menu.Nutrition `json:"manual,omitempty"`
}

type lineSnapshot struct {
	IngredientID *uint    `json:"ingredient_id"`
	QuantityG    *float64 `json:"quantity_g"`
	DisplayText  string   `json:"display_text"`
}

type ingredientSnapshot struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	AltNames string  `json:"alt_names"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

func newCatalogSnapshot(c *menu.Catalog) catalogSnapshot {
	snap := catalogSnapshot{
		Menus:        make([]menuSnapshot, 0, len(c.Menus)),
		Compositions: make(map[uint][]lineSnapshot, len(c.Compositions)),
		Ingredients:  make(map[uint]ingredientSnapshot, len(c.Ingredients)),
		CachedAt:     time.Now().UTC(),
	}
	for _, m := range c.Menus {
		ms := menuSnapshot{
			ID:         m.ID,
			Name:       m.Name,
			MealType:   m.MealType,
			Tags:       m.Tags,
			TargetRole: m.TargetRole,
			ImageURL:   m.ImageURL,
			IsActive:   m.IsActive,
		}
		if manual, ok := m.Source.(menu.ManualNutrition); ok {
			values := manual.Values
			ms.Manual = &values
		}
		snap.Menus = append(snap.Menus, ms)
	}
	for id, lines := range c.Compositions {
		out := make([]lineSnapshot, 0, len(lines))
		for _, line := range lines {
			out = append(out, lineSnapshot(line))
		}
		snap.Compositions[id] = out
	}
	for id, ing := range c.Ingredients {
		snap.Ingredients[id] = ingredientSnapshot(ing)
	}
	return snap
}

func (s catalogSnapshot) toCatalog() *menu.Catalog {
	c := &menu.Catalog{
		Menus:        make([]menu.Menu, 0, len(s.Menus)),
		Compositions: make(map[uint][]menu.CompositionLine, len(s.Compositions)),
		Ingredients:  make(map[uint]menu.Ingredient, len(s.Ingredients)),
	}
	for _, ms := range s.Menus {
		m := menu.Menu{
			ID:         ms.ID,
			Name:       ms.Name,
			MealType:   ms.MealType,
			Tags:       ms.Tags,
			TargetRole: ms.TargetRole,
			ImageURL:   ms.ImageURL,
			IsActive:   ms.IsActive,
			Source:     menu.ComputedNutrition{},
		}
		if ms.Manual != nil {
			m.Source = menu.ManualNutrition{Values: *ms.Manual}
		}
		c.Menus = append(c.Menus, m)
	}
	for id, lines := range s.Compositions {
		out := make([]menu.CompositionLine, 0, len(lines))
		for _, line := range lines {
			out = append(out, menu.CompositionLine(line))
		}
		c.Compositions[id] = out
	}
	for id, ing := range s.Ingredients {
		c.Ingredients[id] = menu.Ingredient(ing)
	}
	return c
}

func jsonSnapshot(c *menu.Catalog) ([]byte, error) {
	return json.Marshal(newCatalogSnapshot(c))
}
