package menu

import (
	"math"
	"sort"
	"strings"

	"github.com/nutrimom/api/internal/domain/nutrition"
)

// Tunable bounds. Out of range values are clamped, never rejected.
const (
	DefaultBoostPerHit    = 400
	DefaultBoostPer100g   = 5
	DefaultMinHits        = 1
	DefaultPortionsPerDay = 3

	MaxBoostPerHit  = 1000
	MaxBoostPer100g = 10000
	MaxMinHits      = 10
)

// ScoringParameters are the caller tunables of ScoreMenu
type ScoringParameters struct {
	BoostPerHit  float64
	BoostPer100g float64
	MinHits      int
	// RequireDetected drops menus with fewer than MinHits detected
	// ingredients. Nil means "only when something was detected".
	RequireDetected *bool
	BoostByQuantity bool
	PortionsPerDay  float64
}

// DefaultScoringParameters returns the stock tunables
func DefaultScoringParameters() ScoringParameters {
	return ScoringParameters{
		BoostPerHit:     DefaultBoostPerHit,
		BoostPer100g:    DefaultBoostPer100g,
		MinHits:         DefaultMinHits,
		BoostByQuantity: true,
		PortionsPerDay:  DefaultPortionsPerDay,
	}
}

// Clamp bounds every tunable into its accepted range
func (p ScoringParameters) Clamp() ScoringParameters {
	p.BoostPerHit = clampFloat(p.BoostPerHit, 0, MaxBoostPerHit)
	p.BoostPer100g = clampFloat(p.BoostPer100g, 0, MaxBoostPer100g)
	if p.MinHits < 1 {
		p.MinHits = 1
	}
	if p.MinHits > MaxMinHits {
		p.MinHits = MaxMinHits
	}
	if p.PortionsPerDay <= 0 || math.IsNaN(p.PortionsPerDay) {
		p.PortionsPerDay = DefaultPortionsPerDay
	}
	return p
}

// RequiresDetected resolves the hard filter switch for a detected set
func (p ScoringParameters) RequiresDetected(detected IngredientSet) bool {
	if p.RequireDetected != nil {
		return *p.RequireDetected
	}
	return len(detected) > 0
}

// ScoredMenu is a menu with its resolved nutrition and score. Lower scores
// are better.
type ScoredMenu struct {
	Menu         Menu
	Nutrition    Nutrition
	Items        []LineItem
	BaseScore    float64
	Boost        float64
	Score        float64
	Hits         int
	HitQuantityG float64
}

// BaseScore is the L1 distance between a menu and one portion of the daily
// target.
func BaseScore(n Nutrition, t nutrition.Targets, portionsPerDay float64) float64 {
	if portionsPerDay <= 0 {
		portionsPerDay = DefaultPortionsPerDay
	}
	return math.Abs(float64(n.Calories)-float64(t.Calories)/portionsPerDay) +
		math.Abs(n.ProteinG-t.ProteinG/portionsPerDay) +
		math.Abs(n.CarbsG-t.CarbsG/portionsPerDay) +
		math.Abs(n.FatG-t.FatG/portionsPerDay)
}

// CountHits counts items whose ingredient was detected and sums their grams
func CountHits(items []LineItem, detected IngredientSet) (hits int, quantityG float64) {
	for _, item := range items {
		if detected.Has(item.IngredientID) {
			hits++
			quantityG += item.Quantity()
		}
	}
	return hits, quantityG
}

// DetectionBoost is the score reduction earned by detected hits
func DetectionBoost(hits int, quantityG float64, p ScoringParameters) float64 {
	if hits == 0 {
		return 0
	}
	boost := float64(hits) * p.BoostPerHit
	if p.BoostByQuantity && quantityG > 0 {
		boost += quantityG / 100 * p.BoostPer100g
	}
	return boost
}

// ScoreMenu resolves and scores one menu. The bool is false when the menu
// is excluded by the detected ingredient filter.
func ScoreMenu(m Menu, lines []CompositionLine, ingredients map[uint]Ingredient, targets nutrition.Targets, detected IngredientSet, p ScoringParameters) (ScoredMenu, bool) {
	p = p.Clamp()
	items := ResolveLines(lines, ingredients)

	var hits int
	var qty float64
	if len(detected) > 0 {
		hits, qty = CountHits(items, detected)
		if p.RequiresDetected(detected) && hits < p.MinHits {
			return ScoredMenu{}, false
		}
	}

	n := ResolveNutrition(m, lines, ingredients)
	base := BaseScore(n, targets, p.PortionsPerDay)
	boost := DetectionBoost(hits, qty, p)

	return ScoredMenu{
		Menu:         m,
		Nutrition:    n,
		Items:        items,
		BaseScore:    base,
		Boost:        boost,
		Score:        math.Max(0, base-boost),
		Hits:         hits,
		HitQuantityG: qty,
	}, true
}

// Rank orders scored menus by ascending score, then by case-insensitive
// name, then by id.
func Rank(scored []ScoredMenu) []ScoredMenu {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		an, bn := strings.ToLower(a.Menu.Name), strings.ToLower(b.Menu.Name)
		if an != bn {
			return an < bn
		}
		return a.Menu.ID < b.Menu.ID
	})
	return scored
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
