// Package mealplan assembles multi-day meal plans from a scored menu catalog.
package mealplan

import (
	"encoding/json"
	"time"

	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
)

const (
	DefaultDays           = 1
	MaxDays               = 31
	DefaultOptionsPerMeal = 3
	MaxOptionsPerMeal     = 10

	dateLayout = "2006-01-02"
)

// PlanRequest carries everything BuildPlan needs. The catalog must already
// be loaded; BuildPlan does no I/O.
type PlanRequest struct {
	UserID     uint
	Preference nutrition.Preference
	Catalog    *menu.Catalog
	Detected   menu.IngredientSet
	Days       int
	// MealTypeFilter restricts the plan to one slot when it names a valid
	// meal type. Anything else is ignored.
	MealTypeFilter string
	OptionsPerMeal int
	// HideOptions suppresses the options block. Nil hides it exactly when
	// detected ingredients were supplied.
	HideOptions *bool
	Scoring     menu.ScoringParameters
	StartDate   time.Time
	Now         time.Time
}

// FoodLogItem is one ingredient row ready to be logged
type FoodLogItem struct {
	IngredientID uint    `json:"ingredient_id"`
	QuantityG    float64 `json:"quantity_g"`
}

// FoodLogPayload lets a client log an option without another lookup
type FoodLogPayload struct {
	Items []FoodLogItem `json:"items"`
}

// Option is one ranked menu for a slot
type Option struct {
	MenuID         uint            `json:"menu_id"`
	MenuName       string          `json:"menu_name"`
	Nutrition      menu.Nutrition  `json:"nutrition"`
	Ingredients    []menu.LineItem `json:"ingredients"`
	Score          float64         `json:"score"`
	DetectedHits   int             `json:"detected_hits"`
	FoodLogPayload FoodLogPayload  `json:"food_log_payload"`
}

// MealSlot is the recommendation for one meal type on one day. Options is
// nil when the options block is hidden.
type MealSlot struct {
	MealType menu.MealType `json:"meal_type"`
	Primary  *Option       `json:"primary"`
	Options  []Option      `json:"options"`
}

// OptionsHidden reports whether the options block was suppressed
func (s MealSlot) OptionsHidden() bool {
	return s.Options == nil
}

// MarshalJSON drops the options key entirely when it is hidden
func (s MealSlot) MarshalJSON() ([]byte, error) {
	if s.OptionsHidden() {
		return json.Marshal(struct {
			MealType menu.MealType `json:"meal_type"`
			Primary  *Option       `json:"primary"`
		}{s.MealType, s.Primary})
	}
	type plain MealSlot
	return json.Marshal(plain(s))
}

// DayPlan is one day of the plan
type DayPlan struct {
	Date        string            `json:"date"`
	DailyTarget nutrition.Targets `json:"daily_target"`
	Meals       []MealSlot        `json:"meals"`
	Summary     menu.Nutrition    `json:"summary"`
}

// Plan is the assembled result
type Plan struct {
	UserID        uint              `json:"user_id"`
	StartDate     string            `json:"start_date"`
	Targets       nutrition.Targets `json:"targets"`
	DetectionUsed bool              `json:"detection_used"`
	DetectedIDs   []uint            `json:"detected_ids"`
	Days          []DayPlan         `json:"days"`
}

// ClampDays bounds a requested plan length
func ClampDays(days int) int {
	if days < 1 {
		return DefaultDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// ClampOptions bounds options per meal
func ClampOptions(n int) int {
	if n < 1 {
		return DefaultOptionsPerMeal
	}
	if n > MaxOptionsPerMeal {
		return MaxOptionsPerMeal
	}
	return n
}

// Slots returns the meal types a filter selects
func Slots(filter string) []menu.MealType {
	if mt, ok := menu.ParseMealType(filter); ok {
		return []menu.MealType{mt}
	}
	return menu.MealTypes
}

// RankSlot filters the catalog to one meal type and eligible menus, scores
// them and returns the top n options.
func RankSlot(req PlanRequest, targets nutrition.Targets, slot menu.MealType, n int) []Option {
	var ingredients map[uint]menu.Ingredient
	var menus []menu.Menu
	if req.Catalog != nil {
		ingredients = req.Catalog.Ingredients
		menus = req.Catalog.Menus
	}

	pool := make([]menu.ScoredMenu, 0)
	for _, m := range menus {
		if m.MealType != slot {
			continue
		}
		lines := req.Catalog.Lines(m.ID)
		if !menu.IsEligible(m, lines, ingredients, req.Preference) {
			continue
		}
		scored, ok := menu.ScoreMenu(m, lines, ingredients, targets, req.Detected, req.Scoring)
		if !ok {
			continue
		}
		pool = append(pool, scored)
	}
	pool = menu.Rank(pool)
	if len(pool) > n {
		pool = pool[:n]
	}

	options := make([]Option, 0, len(pool))
	for _, s := range pool {
		options = append(options, newOption(s))
	}
	return options
}

// BuildPlan assembles a plan of req.Days days. Every day shares the same
// target and the same ranking; empty slots carry no primary pick.
func BuildPlan(req PlanRequest) Plan {
	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	days := ClampDays(req.Days)
	perMeal := ClampOptions(req.OptionsPerMeal)
	detectionUsed := len(req.Detected) > 0
	hide := detectionUsed
	if req.HideOptions != nil {
		hide = *req.HideOptions
	}

	targets := nutrition.ComputeTargets(req.Preference, now)

	slots := Slots(req.MealTypeFilter)
	ranked := make(map[menu.MealType][]Option, len(slots))
	for _, slot := range slots {
		ranked[slot] = RankSlot(req, targets, slot, perMeal)
	}

	plan := Plan{
		UserID:        req.UserID,
		StartDate:     start.Format(dateLayout),
		Targets:       targets,
		DetectionUsed: detectionUsed,
		DetectedIDs:   req.Detected.Sorted(),
		Days:          make([]DayPlan, 0, days),
	}

	for d := 0; d < days; d++ {
		day := DayPlan{
			Date:        start.AddDate(0, 0, d).Format(dateLayout),
			DailyTarget: targets,
			Meals:       make([]MealSlot, 0, len(slots)),
		}
		for _, slot := range slots {
			options := ranked[slot]
			ms := MealSlot{MealType: slot}
			if len(options) > 0 {
				primary := options[0]
				ms.Primary = &primary
				day.Summary = day.Summary.Add(primary.Nutrition)
			}
			if !hide {
				ms.Options = append([]Option{}, options...)
			}
			day.Meals = append(day.Meals, ms)
		}
		plan.Days = append(plan.Days, day)
	}

	return plan
}

func newOption(s menu.ScoredMenu) Option {
	payload := FoodLogPayload{Items: make([]FoodLogItem, 0, len(s.Items))}
	for _, item := range s.Items {
		if item.QuantityG == nil {
			continue
		}
		payload.Items = append(payload.Items, FoodLogItem{IngredientID: item.IngredientID, QuantityG: *item.QuantityG})
	}
	return Option{
		MenuID:         s.Menu.ID,
		MenuName:       s.Menu.Name,
		Nutrition:      s.Nutrition,
		Ingredients:    s.Items,
		Score:          s.Score,
		DetectedHits:   s.Hits,
		FoodLogPayload: payload,
	}
}
