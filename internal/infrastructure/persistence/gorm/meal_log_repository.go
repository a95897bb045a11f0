package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/meallog"
	"github.com/nutrimom/api/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// MealLogRepository implements the meal log repository interface using GORM
type MealLogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMealLogRepository creates a new meal log repository
func NewMealLogRepository(db *gorm.DB) outbound.MealLogRepository {
	return &MealLogRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts the header and its items in one transaction
func (r *MealLogRepository) Create(ctx context.Context, log *meallog.MealLog) error {
	model := MealLogToModel(log)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

// MarkConsumed flips is_consumed for the log owned by userID. Confirming an
// already consumed log returns it unchanged.
func (r *MealLogRepository) MarkConsumed(ctx context.Context, userID uint, id uuid.UUID) (*meallog.MealLog, error) {
	var entry *meallog.MealLog

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model MealLogModel
		result := tx.Preload("Items", orderByID).
			Where("id = ? AND user_id = ?", id, userID).
			First(&model)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return meallog.ErrMealLogNotFound
			}
			return result.Error
		}

		entry = ModelToMealLog(&model)
		if err := entry.MarkConsumed(r.now()); err != nil {
			if errors.Is(err, meallog.ErrAlreadyConsumed) {
				return nil
			}
			return err
		}

		update := tx.Model(&MealLogModel{}).
			Where("id = ? AND user_id = ? AND is_consumed = ?", id, userID, false).
			Updates(map[string]interface{}{"is_consumed": true, "updated_at": r.now()})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			// Lost a race with another confirm; report the stored state
			model.IsConsumed = true
			entry = ModelToMealLog(&model)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ListByUser returns the newest logs of a user. Reads go to the primary so
// a log is visible right after it is created.
func (r *MealLogRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]*meallog.MealLog, error) {
	var models []MealLogModel

	result := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Preload("Items", orderByID).
		Where("user_id = ?", userID).
		Order("logged_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	logs := make([]*meallog.MealLog, 0, len(models))
	for i := range models {
		logs = append(logs, ModelToMealLog(&models[i]))
	}
	return logs, nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
