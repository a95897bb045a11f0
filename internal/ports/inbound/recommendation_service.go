// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/detection"
	"github.com/nutrimom/api/internal/domain/mealplan"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
)

// RecommendationService defines the nutrition use cases
// This is the primary port that HTTP handlers will use
type RecommendationService interface {
	// Queries
	Targets(ctx context.Context, userID uint) (*TargetsDTO, error)
	Recommend(ctx context.Context, cmd RecommendCommand) (*mealplan.Plan, error)
	ScanFood(ctx context.Context, cmd ScanCommand) (*detection.Result, error)
	ListMealLogs(ctx context.Context, userID uint, limit int) ([]MealLogDTO, error)
	GetPreference(ctx context.Context, userID uint) (*PreferenceDTO, error)

	// Commands
	SavePreference(ctx context.Context, cmd SavePreferenceCommand) (*PreferenceDTO, error)
	LogMeal(ctx context.Context, cmd LogMealCommand) (*MealLogDTO, error)
	ConfirmMeal(ctx context.Context, userID uint, logID uuid.UUID) (*MealLogDTO, error)
}

// RecommendCommand carries the caller tunables of a plan request. Nil
// pointers select defaults; out of range values are clamped.
type RecommendCommand struct {
	UserID          uint
	Days            int
	MealType        string
	OptionsPerMeal  int
	BoostPerHit     *float64
	BoostPer100g    *float64
	MinHits         *int
	BoostByQuantity *bool
	RequireDetected *bool
	HideOptions     *bool
	DetectedIDs     []uint
	StartDate       *time.Time
}

// ScanCommand carries either a photo or labels already produced by a
// client side model
type ScanCommand struct {
	UserID uint
	Image  []byte
	Labels []detection.Label
	TopK   int
}

// LogMealCommand snapshots a menu into the meal log
type LogMealCommand struct {
	UserID     uint
	MenuID     uint
	Servings   float64
	IsConsumed bool
	LoggedAt   *time.Time
}

// SavePreferenceCommand creates or replaces a user's preference
type SavePreferenceCommand struct {
	UserID              uint       `validate:"required"`
	Role                string     `validate:"omitempty,oneof=IBU_HAMIL IBU_MENYUSUI ANAK_BATITA UMUM"`
	HeightCm            *float64   `validate:"omitempty,gte=0,lte=300"`
	WeightKg            *float64   `validate:"omitempty,gte=0,lte=500"`
	AgeYear             *int       `validate:"omitempty,gte=0,lte=130"`
	AgeMonth            *int       `validate:"omitempty,gte=0,lte=11"`
	LastMenstrualPeriod *time.Time `validate:"-"`
	LILACm              *float64   `validate:"omitempty,gte=0,lte=100"`
	LactationPhase      string     `validate:"omitempty,oneof=0-6 6-12"`
	FoodProhibitions    []string   `validate:"dive,max=100"`
	Allergens           []string   `validate:"dive,max=100"`
}

// TargetsDTO is the computed daily target with the context it came from
type TargetsDTO struct {
	UserID              uint              `json:"user_id"`
	Role                string            `json:"role"`
	TargetBucket        menu.TargetRole   `json:"target_bucket"`
	GestationalAgeWeeks *int              `json:"gestational_age_weeks,omitempty"`
	Trimester           *int              `json:"trimester,omitempty"`
	Targets             nutrition.Targets `json:"targets"`
}

// PreferenceDTO is the API view of a preference
type PreferenceDTO struct {
	UserID              uint     `json:"user_id"`
	Role                string   `json:"role"`
	HeightCm            *float64 `json:"height_cm"`
	WeightKg            *float64 `json:"weight_kg"`
	AgeYear             *int     `json:"age_year"`
	AgeMonth            *int     `json:"age_month"`
	LastMenstrualPeriod *string  `json:"last_menstrual_period,omitempty"`
	LILACm              *float64 `json:"lila_cm,omitempty"`
	LactationPhase      string   `json:"lactation_phase,omitempty"`
	FoodProhibitions    []string `json:"food_prohibitions"`
	Allergens           []string `json:"allergens"`
}

// MealLogItemDTO is one logged ingredient
type MealLogItemDTO struct {
	IngredientID uint    `json:"ingredient_id"`
	QuantityG    float64 `json:"quantity_g"`
	Calories     int     `json:"calories"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
}

// MealLogDTO is the API view of a meal log
type MealLogDTO struct {
	ID         uuid.UUID        `json:"meal_log_id"`
	MenuID     uint             `json:"menu_id"`
	MenuName   string           `json:"menu_name"`
	ImageURL   string           `json:"image_url,omitempty"`
	Servings   float64          `json:"servings"`
	IsConsumed bool             `json:"is_consumed"`
	LoggedAt   time.Time        `json:"logged_at"`
	Total      menu.Nutrition   `json:"total"`
	Items      []MealLogItemDTO `json:"items"`
}
