package menu

import (
	"strings"

	"github.com/nutrimom/api/internal/domain/nutrition"
)

// IsEligible reports whether a menu is safe for the preference's
// restrictions and written for its audience.
func IsEligible(m Menu, lines []CompositionLine, ingredients map[uint]Ingredient, pref nutrition.Preference) bool {
	return RoleMatches(m.TargetRole, TargetBucket(pref)) && IsDietSafe(m, lines, ingredients, pref.Restrictions())
}

// IsDietSafe rejects a menu when any restriction appears, case-insensitively
// and as a substring, in a tag or in a referenced ingredient's names.
func IsDietSafe(m Menu, lines []CompositionLine, ingredients map[uint]Ingredient, restrictions []string) bool {
	if len(restrictions) == 0 {
		return true
	}
	needles := make([]string, 0, len(restrictions))
	for _, r := range restrictions {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			needles = append(needles, r)
		}
	}

	haystacks := make([]string, 0, len(m.Tags)+2*len(lines))
	for _, tag := range m.Tags {
		haystacks = append(haystacks, strings.ToLower(tag))
	}
	for _, line := range lines {
		if line.IngredientID == nil {
			continue
		}
		ing, ok := ingredients[*line.IngredientID]
		if !ok {
			continue
		}
		haystacks = append(haystacks, strings.ToLower(ing.Name), strings.ToLower(ing.AltNames))
	}

	for _, needle := range needles {
		for _, hay := range haystacks {
			if strings.Contains(hay, needle) {
				return false
			}
		}
	}
	return true
}

// TargetBucket maps a preference onto the audience its menus must target.
// Non-toddlers are mothers; toddlers are bucketed by age in months.
func TargetBucket(pref nutrition.Preference) TargetRole {
	if !pref.IsToddler() {
		return TargetMother
	}
	months, ok := pref.AgeInMonths()
	switch {
	case !ok:
		return TargetChild
	case months >= 6 && months <= 8:
		return TargetChild6to8
	case months >= 9 && months <= 11:
		return TargetChild9to11
	case months >= 12:
		return TargetChild12to23
	default:
		return TargetChild
	}
}

// RoleMatches reports whether a menu written for menuRole may be served to
// bucket. Generic child menus serve every toddler bucket.
func RoleMatches(menuRole, bucket TargetRole) bool {
	if menuRole == "" || menuRole == TargetAll || menuRole == bucket {
		return true
	}
	return menuRole == TargetChild && bucket.IsChild()
}
