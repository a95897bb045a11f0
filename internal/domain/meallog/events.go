package meallog

import (
	"time"

	"github.com/google/uuid"
)

// MealLoggedEvent is raised when a menu is snapshotted into a log
type MealLoggedEvent struct {
	MealLogID     uuid.UUID `json:"meal_log_id"`
	UserID        uint      `json:"user_id"`
	MenuID        uint      `json:"menu_id"`
	Servings      float64   `json:"servings"`
	TotalCalories int       `json:"total_calories"`
	LoggedAt      time.Time `json:"logged_at"`
}

func (e MealLoggedEvent) EventName() string {
	return "meal_log.created"
}

func (e MealLoggedEvent) OccurredAt() time.Time {
	return e.LoggedAt
}

// MealConsumedEvent is raised when a user confirms eating a logged meal
type MealConsumedEvent struct {
	MealLogID  uuid.UUID `json:"meal_log_id"`
	UserID     uint      `json:"user_id"`
	ConsumedAt time.Time `json:"consumed_at"`
}

func (e MealConsumedEvent) EventName() string {
	return "meal_log.consumed"
}

func (e MealConsumedEvent) OccurredAt() time.Time {
	return e.ConsumedAt
}
