// Package detection matches image-recognition labels to catalog ingredients.
package detection

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/nutrimom/api/internal/domain/menu"
)

const (
	DefaultTopK = 1
	MaxTopK     = 5

	// SuggestedQuantityG is the portion proposed for every candidate
	SuggestedQuantityG = 100

	exactNameWeight    = 20
	exactAltWeight     = 15
	nameTokenWeight    = 8
	altTokenWeight     = 4
	nameBoundaryWeight = 5
	altBoundaryWeight  = 3
	nameSubstrWeight   = 2
	altSubstrWeight    = 1

	// labels this short only match on whole words
	minSubstringLabelLen = 4
)

// Label is one recognizer output
type Label struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Candidate is an ingredient proposed for a scanned photo
type Candidate struct {
	IngredientID       uint           `json:"ingredient_id"`
	Name               string         `json:"name"`
	Confidence         float64        `json:"confidence"`
	MatchScore         float64        `json:"match_score"`
	Per100g            menu.Nutrition `json:"per_100g"`
	SuggestedQuantityG float64        `json:"suggested_quantity_g"`
}

// Result is the deduplicated match output
type Result struct {
	Candidates  []Candidate `json:"candidates"`
	DetectedIDs []uint      `json:"detected_ids"`
}

// DetectedSet returns the matched ids as a set
func (r Result) DetectedSet() menu.IngredientSet {
	return menu.NewIngredientSet(r.DetectedIDs...)
}

var tokenSeparators = func(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '-', ',', ';', '/':
		return true
	}
	return false
}

// Clean lowercases a label and collapses its whitespace
func Clean(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ClampConfidence bounds a recognizer confidence into [0,1]
func ClampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ClampTopK bounds the per-label candidate count
func ClampTopK(k int) int {
	if k < 1 {
		return DefaultTopK
	}
	if k > MaxTopK {
		return MaxTopK
	}
	return k
}

// ScoreMatch scores how well a label names an ingredient. Zero means no
// match.
func ScoreMatch(label string, confidence float64, ing menu.Ingredient) float64 {
	cleaned := Clean(label)
	if cleaned == "" {
		return 0
	}
	name := Clean(ing.Name)
	alt := Clean(ing.AltNames)

	score := 0.0
	if cleaned == name {
		score += exactNameWeight
	}
	if cleaned == alt || containsString(altNames(ing.AltNames), cleaned) {
		score += exactAltWeight
	}

	labelTokens := tokenSet(cleaned)
	score += nameTokenWeight * float64(overlap(labelTokens, tokenSet(name)))
	score += altTokenWeight * float64(overlap(labelTokens, tokenSet(alt)))

	boundary := regexp.MustCompile(`\b` + regexp.QuoteMeta(cleaned) + `\b`)
	if boundary.MatchString(name) {
		score += nameBoundaryWeight
	}
	if alt != "" && boundary.MatchString(alt) {
		score += altBoundaryWeight
	}

	if len(cleaned) >= minSubstringLabelLen {
		if strings.Contains(name, cleaned) {
			score += nameSubstrWeight
		}
		if strings.Contains(alt, cleaned) {
			score += altSubstrWeight
		}
	}

	return score * (0.5 + ClampConfidence(confidence))
}

// Match scores every ingredient against every label, keeps the best topK per
// label and deduplicates by ingredient, keeping the most confident label.
// Candidates are ordered by first appearance.
func Match(labels []Label, ingredients []menu.Ingredient, topK int) Result {
	topK = ClampTopK(topK)
	result := Result{Candidates: []Candidate{}, DetectedIDs: []uint{}}
	index := make(map[uint]int)

	type scored struct {
		score float64
		ing   menu.Ingredient
	}

	for _, label := range labels {
		if Clean(label.Label) == "" {
			continue
		}
		confidence := ClampConfidence(label.Confidence)

		pool := make([]scored, 0, len(ingredients))
		for _, ing := range ingredients {
			if s := ScoreMatch(label.Label, confidence, ing); s > 0 {
				pool = append(pool, scored{score: s, ing: ing})
			}
		}
		sort.SliceStable(pool, func(i, j int) bool {
			if pool[i].score != pool[j].score {
				return pool[i].score > pool[j].score
			}
			return pool[i].ing.ID < pool[j].ing.ID
		})
		if len(pool) > topK {
			pool = pool[:topK]
		}

		for _, p := range pool {
			c := Candidate{
				IngredientID:       p.ing.ID,
				Name:               p.ing.Name,
				Confidence:         confidence,
				MatchScore:         p.score,
				Per100g:            menu.Serialize(p.ing, 100),
				SuggestedQuantityG: SuggestedQuantityG,
			}
			if i, seen := index[c.IngredientID]; seen {
				if c.Confidence > result.Candidates[i].Confidence {
					result.Candidates[i] = c
				}
				continue
			}
			index[c.IngredientID] = len(result.Candidates)
			result.Candidates = append(result.Candidates, c)
		}
	}

	for _, c := range result.Candidates {
		result.DetectedIDs = append(result.DetectedIDs, c.IngredientID)
	}
	return result
}

// SearchTerms returns the cleaned labels plus their words longer than two
// characters. Used to pre-filter the ingredient catalog.
func SearchTerms(labels []Label) []string {
	seen := make(map[string]struct{})
	for _, label := range labels {
		cleaned := Clean(label.Label)
		if cleaned == "" {
			continue
		}
		seen[cleaned] = struct{}{}
		for _, word := range strings.Fields(cleaned) {
			if len(word) > 2 {
				seen[word] = struct{}{}
			}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

func altNames(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = Clean(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(s, tokenSeparators) {
		set[tok] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
