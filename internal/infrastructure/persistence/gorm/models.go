// Package gorm provides GORM model definitions for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PreferenceModel represents the GORM model for user preferences
type PreferenceModel struct {
	UserID              uint        `gorm:"primaryKey;autoIncrement:false"`
	Role                string      `gorm:"type:varchar(50);not null"`
	HeightCm            *float64
	WeightKg            *float64
	AgeYear             *int
	AgeMonth            *int
	LastMenstrualPeriod *time.Time
	LILACm              *float64    `gorm:"column:lila_cm"`
	LactationPhase      string      `gorm:"type:varchar(10)"`
	FoodProhibitions    StringSlice `gorm:"type:json"`
	Allergens           StringSlice `gorm:"type:json"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IngredientModel represents the GORM model for catalog ingredients.
// Nutrition columns are per 100 g.
type IngredientModel struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"type:varchar(150);uniqueIndex;not null"`
	AltNames  string  `gorm:"type:text"`
	Calories  float64 `gorm:"not null;default:0"`
	ProteinG  float64 `gorm:"not null;default:0"`
	CarbsG    float64 `gorm:"not null;default:0"`
	FatG      float64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MenuModel represents the GORM model for menus. The manual columns are
// all set for a manual nutrition override and all null otherwise.
type MenuModel struct {
	ID             uint        `gorm:"primaryKey"`
	Name           string      `gorm:"type:varchar(150);not null"`
	MealType       string      `gorm:"type:varchar(20);not null;index"`
	Tags           StringSlice `gorm:"type:json"`
	TargetRole     string      `gorm:"type:varchar(20);not null;default:'ALL'"`
	ImageURL       string      `gorm:"type:text"`
	IsActive       bool        `gorm:"not null;index"`
	ManualCalories *int
	ManualProteinG *float64
	ManualCarbsG   *float64
	ManualFatG     *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relationships
	Lines []MenuLineModel `gorm:"foreignKey:MenuID"`
}

// MenuLineModel is one composition row of a menu
type MenuLineModel struct {
	ID              uint   `gorm:"primaryKey"`
	MenuID          uint   `gorm:"not null;index"`
	IngredientID    *uint  `gorm:"index"`
	QuantityG       *float64
	DisplayQuantity string `gorm:"type:varchar(100)"`
}

// MealLogModel represents the GORM model for meal log headers
type MealLogModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID        uint      `gorm:"not null;index:idx_meal_logs_user_logged,priority:1"`
	MenuID        uint      `gorm:"not null"`
	MenuName      string    `gorm:"type:varchar(150);not null"`
	ImageURL      string    `gorm:"type:text"`
	Servings      float64   `gorm:"not null;default:1"`
	TotalCalories int       `gorm:"not null;default:0"`
	TotalProteinG float64   `gorm:"not null;default:0"`
	TotalCarbsG   float64   `gorm:"not null;default:0"`
	TotalFatG     float64   `gorm:"not null;default:0"`
	IsConsumed    bool      `gorm:"not null;default:false"`
	LoggedAt      time.Time `gorm:"not null;index:idx_meal_logs_user_logged,priority:2"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Relationships
	Items []MealLogItemModel `gorm:"foreignKey:MealLogID"`
}

// MealLogItemModel is the snapshot of one logged ingredient
type MealLogItemModel struct {
	ID           uint      `gorm:"primaryKey"`
	MealLogID    uuid.UUID `gorm:"type:char(36);not null;index"`
	IngredientID uint      `gorm:"not null"`
	QuantityG    float64   `gorm:"not null"`
	Calories     int       `gorm:"not null;default:0"`
	ProteinG     float64   `gorm:"not null;default:0"`
	CarbsG       float64   `gorm:"not null;default:0"`
	FatG         float64   `gorm:"not null;default:0"`
}

// StringSlice custom type for handling string arrays stored as JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for MealLogModel
func (m *MealLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AllModels lists every model in dependency order for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&PreferenceModel{},
		&IngredientModel{},
		&MenuModel{},
		&MenuLineModel{},
		&MealLogModel{},
		&MealLogItemModel{},
	}
}

// TableName specifies the table name for PreferenceModel
func (PreferenceModel) TableName() string {
	return "user_preferences"
}

// TableName specifies the table name for IngredientModel
func (IngredientModel) TableName() string {
	return "food_ingredients"
}

// TableName specifies the table name for MenuModel
func (MenuModel) TableName() string {
	return "food_menus"
}

// TableName specifies the table name for MenuLineModel
func (MenuLineModel) TableName() string {
	return "food_menu_ingredients"
}

// TableName specifies the table name for MealLogModel
func (MealLogModel) TableName() string {
	return "food_meal_logs"
}

// TableName specifies the table name for MealLogItemModel
func (MealLogItemModel) TableName() string {
	return "food_meal_log_items"
}
