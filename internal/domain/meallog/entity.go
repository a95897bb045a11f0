// Package meallog models the immutable record of a meal a user logged.
package meallog

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/shared"
)

const (
	DefaultServings = 1
	MaxServings     = 20
)

// Item is the snapshot of one ingredient at logging time
type Item struct {
	IngredientID uint
	QuantityG    float64
	Nutrition    menu.Nutrition
}

// MealLog is a snapshot of a menu scaled by servings. Only the consumed flag
// changes after creation.
type MealLog struct {
	id         uuid.UUID
	userID     uint
	menuID     uint
	menuName   string
	imageURL   string
	servings   float64
	total      menu.Nutrition
	items      []Item
	isConsumed bool
	loggedAt   time.Time

	events []shared.DomainEvent
}

// ClampServings bounds servings into (0, MaxServings], defaulting to one
func ClampServings(s float64) float64 {
	if s <= 0 || math.IsNaN(s) {
		return DefaultServings
	}
	if s > MaxServings {
		return MaxServings
	}
	return s
}

// NewMealLog snapshots a menu. Each line's quantity is multiplied by
// servings; lines without a quantity are logged at zero grams and lines
// referencing unknown ingredients are skipped.
func NewMealLog(userID uint, m menu.Menu, lines []menu.CompositionLine, ingredients map[uint]menu.Ingredient, servings float64, consumed bool, loggedAt time.Time) (*MealLog, error) {
	if userID == 0 {
		return nil, ErrInvalidUser
	}
	if len(lines) == 0 {
		return nil, ErrMenuEmpty
	}
	servings = ClampServings(servings)
	if loggedAt.IsZero() {
		loggedAt = time.Now().UTC()
	}

	log := &MealLog{
		id:         uuid.New(),
		userID:     userID,
		menuID:     m.ID,
		menuName:   m.Name,
		imageURL:   m.ImageURL,
		servings:   servings,
		items:      make([]Item, 0, len(lines)),
		isConsumed: consumed,
		loggedAt:   loggedAt,
	}

	for _, line := range lines {
		if line.IngredientID == nil {
			continue
		}
		ing, ok := ingredients[*line.IngredientID]
		if !ok {
			continue
		}
		qty := 0.0
		if line.QuantityG != nil {
			qty = *line.QuantityG * servings
		}
		n := menu.Serialize(ing, qty)
		log.items = append(log.items, Item{IngredientID: ing.ID, QuantityG: qty, Nutrition: n})
		log.total = log.total.Add(n)
	}

	log.addEvent(MealLoggedEvent{
		MealLogID:     log.id,
		UserID:        userID,
		MenuID:        m.ID,
		Servings:      servings,
		TotalCalories: log.total.Calories,
		LoggedAt:      loggedAt,
	})

	return log, nil
}

// Restore rebuilds a log from storage without raising events
func Restore(id uuid.UUID, userID, menuID uint, menuName, imageURL string, servings float64, total menu.Nutrition, items []Item, consumed bool, loggedAt time.Time) *MealLog {
	return &MealLog{
		id:         id,
		userID:     userID,
		menuID:     menuID,
		menuName:   menuName,
		imageURL:   imageURL,
		servings:   servings,
		total:      total,
		items:      items,
		isConsumed: consumed,
		loggedAt:   loggedAt,
	}
}

// MarkConsumed flips the consumed flag
func (l *MealLog) MarkConsumed(at time.Time) error {
	if l.isConsumed {
		return ErrAlreadyConsumed
	}
	l.isConsumed = true
	l.addEvent(MealConsumedEvent{MealLogID: l.id, UserID: l.userID, ConsumedAt: at})
	return nil
}

func (l *MealLog) addEvent(e shared.DomainEvent) {
	l.events = append(l.events, e)
}

// Events returns and clears pending domain events
func (l *MealLog) Events() []shared.DomainEvent {
	events := l.events
	l.events = nil
	return events
}

// Getters
func (l *MealLog) ID() uuid.UUID         { return l.id }
func (l *MealLog) UserID() uint          { return l.userID }
func (l *MealLog) MenuID() uint          { return l.menuID }
func (l *MealLog) MenuName() string      { return l.menuName }
func (l *MealLog) ImageURL() string      { return l.imageURL }
func (l *MealLog) Servings() float64     { return l.servings }
func (l *MealLog) Total() menu.Nutrition { return l.total }
func (l *MealLog) IsConsumed() bool      { return l.isConsumed }
func (l *MealLog) LoggedAt() time.Time   { return l.loggedAt }
func (l *MealLog) Items() []Item {
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}
