package gorm

import (
	"context"
	"errors"
	"strings"

	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/ports/outbound"
	"gorm.io/gorm"
)

// CatalogRepository implements the catalog repository interface using GORM.
// Reads go to replicas when the dbresolver plugin is registered.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) outbound.CatalogRepository {
	return &CatalogRepository{db: db}
}

// ActiveCatalog loads active menus, their compositions and the ingredients
// they reference
func (r *CatalogRepository) ActiveCatalog(ctx context.Context) (*menu.Catalog, error) {
	var models []MenuModel

	result := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	catalog := &menu.Catalog{
		Menus:        make([]menu.Menu, 0, len(models)),
		Compositions: make(map[uint][]menu.CompositionLine, len(models)),
	}
	ids := make([]uint, 0)
	for i := range models {
		m := ModelToMenu(&models[i])
		if m.MealType == "" {
			continue
		}
		catalog.Menus = append(catalog.Menus, m)
		lines := ModelToLines(models[i].Lines)
		catalog.Compositions[m.ID] = lines
		for _, line := range lines {
			if line.IngredientID != nil {
				ids = append(ids, *line.IngredientID)
			}
		}
	}

	ingredients, err := r.IngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	catalog.Ingredients = ingredients

	return catalog, nil
}

// FindMenu finds a menu and its composition, active or not
func (r *CatalogRepository) FindMenu(ctx context.Context, id uint) (*menu.Menu, []menu.CompositionLine, error) {
	var model MenuModel

	result := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil, menu.ErrMenuNotFound
		}
		return nil, nil, result.Error
	}

	m := ModelToMenu(&model)
	return &m, ModelToLines(model.Lines), nil
}

// IngredientsByIDs loads the ingredients with the given ids. Unknown ids
// are absent from the map.
func (r *CatalogRepository) IngredientsByIDs(ctx context.Context, ids []uint) (map[uint]menu.Ingredient, error) {
	out := make(map[uint]menu.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []IngredientModel
	if err := r.db.WithContext(ctx).Where("id IN ?", dedupe(ids)).Find(&models).Error; err != nil {
		return nil, err
	}

	for i := range models {
		out[models[i].ID] = ModelToIngredient(&models[i])
	}
	return out, nil
}

// SearchIngredients matches each term as a case-insensitive substring of
// the name or alt_names
func (r *CatalogRepository) SearchIngredients(ctx context.Context, terms []string, limit int) ([]menu.Ingredient, error) {
	if len(terms) == 0 {
		return []menu.Ingredient{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var cond *gorm.DB
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		pattern := "%" + escapeLike(term) + "%"
		if cond == nil {
			cond = r.db.Where(substringMatch, pattern, pattern)
		} else {
			cond = cond.Or(substringMatch, pattern, pattern)
		}
	}
	if cond == nil {
		return []menu.Ingredient{}, nil
	}

	var models []IngredientModel
	if err := r.db.WithContext(ctx).Where(cond).Order("id ASC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]menu.Ingredient, 0, len(models))
	for i := range models {
		out = append(out, ModelToIngredient(&models[i]))
	}
	return out, nil
}

// SaveMenu inserts a menu with its composition. Used by seeding and tests.
func (r *CatalogRepository) SaveMenu(ctx context.Context, m menu.Menu, lines []menu.CompositionLine) (uint, error) {
	model := MenuToModel(m, lines)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

// SaveIngredient inserts an ingredient. Used by seeding and tests.
func (r *CatalogRepository) SaveIngredient(ctx context.Context, ing menu.Ingredient) (uint, error) {
	model := IngredientToModel(ing)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

const substringMatch = `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(alt_names, '')) LIKE ? ESCAPE '\')`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
