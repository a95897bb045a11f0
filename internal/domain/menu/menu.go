// Package menu holds the menu catalog model together with the eligibility
// filter and the scoring rules used to rank menus against a daily target.
package menu

import (
	"sort"
	"strings"
)

// MealType is the slot a menu is served in
type MealType string

const (
	MealTypeBreakfast MealType = "BREAKFAST"
	MealTypeLunch     MealType = "LUNCH"
	MealTypeDinner    MealType = "DINNER"
)

// MealTypes lists the daily slots in serving order
var MealTypes = []MealType{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

// ParseMealType normalizes s and reports whether it names a known slot
func ParseMealType(s string) (MealType, bool) {
	mt := MealType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range MealTypes {
		if mt == known {
			return mt, true
		}
	}
	return "", false
}

// TargetRole is the audience a menu is written for
type TargetRole string

const (
	TargetAll         TargetRole = "ALL"
	TargetMother      TargetRole = "IBU"
	TargetChild       TargetRole = "ANAK"
	TargetChild6to8   TargetRole = "ANAK_6_8"
	TargetChild9to11  TargetRole = "ANAK_9_11"
	TargetChild12to23 TargetRole = "ANAK_12_23"
)

// ParseTargetRole returns TargetAll for empty or unknown values
func ParseTargetRole(s string) TargetRole {
	switch r := TargetRole(strings.ToUpper(strings.TrimSpace(s))); r {
	case TargetMother, TargetChild, TargetChild6to8, TargetChild9to11, TargetChild12to23:
		return r
	default:
		return TargetAll
	}
}

// IsChild reports whether r is one of the toddler audiences
func (r TargetRole) IsChild() bool {
	switch r {
	case TargetChild, TargetChild6to8, TargetChild9to11, TargetChild12to23:
		return true
	}
	return false
}

// Ingredient is a catalog ingredient with nutrition per 100 g
type Ingredient struct {
	ID       uint
	Name     string
	AltNames string
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
}

// NutritionSource says where a menu's nutrition comes from: either a
// ManualNutrition override or ComputedNutrition from its composition.
type NutritionSource interface {
	isNutritionSource()
}

// ManualNutrition is an editor supplied override used verbatim
type ManualNutrition struct {
	Values Nutrition
}

// ComputedNutrition sums the menu's composition lines
type ComputedNutrition struct{}

func (ManualNutrition) isNutritionSource()   {}
func (ComputedNutrition) isNutritionSource() {}

// Menu is a catalog dish
type Menu struct {
	ID         uint
	Name       string
	MealType   MealType
	Tags       []string
	TargetRole TargetRole
	ImageURL   string
	IsActive   bool
	Source     NutritionSource // nil means computed
}

// CompositionLine is one ingredient row of a menu. Lines without an
// ingredient or a quantity are display only.
type CompositionLine struct {
	IngredientID *uint
	QuantityG    *float64
	DisplayText  string
}

// Contributes reports whether the line counts towards nutrition
func (l CompositionLine) Contributes() bool {
	return l.IngredientID != nil && l.QuantityG != nil
}

// Catalog is an in-memory snapshot of active menus, their compositions and
// the ingredients they reference.
type Catalog struct {
	Menus        []Menu
	Compositions map[uint][]CompositionLine
	Ingredients  map[uint]Ingredient
}

// Lines returns the composition of a menu
func (c *Catalog) Lines(menuID uint) []CompositionLine {
	if c == nil || c.Compositions == nil {
		return nil
	}
	return c.Compositions[menuID]
}

// IngredientList returns the ingredients ordered by id
func (c *Catalog) IngredientList() []Ingredient {
	if c == nil {
		return nil
	}
	out := make([]Ingredient, 0, len(c.Ingredients))
	for _, ing := range c.Ingredients {
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IngredientSet is a set of ingredient ids
type IngredientSet map[uint]struct{}

// NewIngredientSet builds a set from ids
func NewIngredientSet(ids ...uint) IngredientSet {
	s := make(IngredientSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership
func (s IngredientSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids
func (s IngredientSet) Add(ids ...uint) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Sorted returns the ids in ascending order
func (s IngredientSet) Sorted() []uint {
	out := make([]uint, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
