// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"

	"github.com/nutrimom/api/internal/domain/nutrition"
	"github.com/nutrimom/api/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository implements the preference repository interface using GORM
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *gorm.DB) outbound.PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// FindByUserID finds the preference of a user
func (r *PreferenceRepository) FindByUserID(ctx context.Context, userID uint) (*nutrition.Preference, error) {
	var model PreferenceModel

	result := r.db.WithContext(ctx).First(&model, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nutrition.ErrPreferenceNotFound
		}
		return nil, result.Error
	}

	return ModelToPreference(&model), nil
}

// Save inserts or replaces the preference of a user
func (r *PreferenceRepository) Save(ctx context.Context, pref *nutrition.Preference) error {
	model := PreferenceToModel(pref)

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"role", "height_cm", "weight_kg", "age_year", "age_month",
				"last_menstrual_period", "lila_cm", "lactation_phase",
				"food_prohibitions", "allergens", "updated_at",
			}),
		}).
		Create(model).Error
}
