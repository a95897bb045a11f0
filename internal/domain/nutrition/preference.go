// Package nutrition contains the daily nutrient target calculator.
// Targets are derived from the Indonesian AKG tables, calibrated by body
// weight and adjusted for pregnancy and lactation.
package nutrition

import (
	"strings"
	"time"
)

// RoleKind is the persisted code of a user role
type RoleKind string

const (
	RolePregnant  RoleKind = "IBU_HAMIL"
	RoleLactating RoleKind = "IBU_MENYUSUI"
	RoleToddler   RoleKind = "ANAK_BATITA"
	RoleGeneric   RoleKind = "UMUM"
)

// ParseRoleKind maps a stored or client supplied role string to a RoleKind.
// Unknown values resolve to RoleGeneric.
func ParseRoleKind(s string) RoleKind {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IBU_HAMIL", "PREGNANT":
		return RolePregnant
	case "IBU_MENYUSUI", "LACTATING":
		return RoleLactating
	case "ANAK_BATITA", "ANAK_BALITA", "TODDLER":
		return RoleToddler
	default:
		return RoleGeneric
	}
}

// Role is the role a preference is evaluated under. Each variant carries only
// the fields that apply to it.
type Role interface {
	Kind() RoleKind
	isRole()
}

// Pregnant is the role of an expecting mother
type Pregnant struct {
	LastMenstrualPeriod *time.Time
	LILACm              *float64 // mid-upper-arm circumference
}

// Lactating is the role of a breastfeeding mother
type Lactating struct {
	Phase LactationPhase
}

// Toddler is the role of a child under three, recorded by a caregiver
type Toddler struct{}

// Generic is the fallback adult role
type Generic struct{}

func (Pregnant) Kind() RoleKind  { return RolePregnant }
func (Lactating) Kind() RoleKind { return RoleLactating }
func (Toddler) Kind() RoleKind   { return RoleToddler }
func (Generic) Kind() RoleKind   { return RoleGeneric }

func (Pregnant) isRole()  {}
func (Lactating) isRole() {}
func (Toddler) isRole()   {}
func (Generic) isRole()   {}

// GestationalAgeWeeks returns completed weeks since the last menstrual period.
// An unknown or future date yields zero.
func (p Pregnant) GestationalAgeWeeks(now time.Time) int {
	if p.LastMenstrualPeriod == nil {
		return 0
	}
	days := int(now.Sub(*p.LastMenstrualPeriod).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 7
}

// HasChronicEnergyDeficiency reports a LILA below the KEK threshold
func (p Pregnant) HasChronicEnergyDeficiency() bool {
	return p.LILACm != nil && *p.LILACm > 0 && *p.LILACm < KEKThresholdCm
}

// LactationPhase is the months-postpartum bracket of a lactating mother
type LactationPhase string

const (
	LactationFirstHalf  LactationPhase = "0-6"
	LactationSecondHalf LactationPhase = "6-12"
)

// ParseLactationPhase falls back to the first half for anything unrecognized
func ParseLactationPhase(s string) LactationPhase {
	if LactationPhase(strings.TrimSpace(s)) == LactationSecondHalf {
		return LactationSecondHalf
	}
	return LactationFirstHalf
}

// NewRole builds the role variant for kind from the role specific fields.
func NewRole(kind RoleKind, lmp *time.Time, lilaCm *float64, phase string) Role {
	switch kind {
	case RolePregnant:
		return Pregnant{LastMenstrualPeriod: lmp, LILACm: lilaCm}
	case RoleLactating:
		return Lactating{Phase: ParseLactationPhase(phase)}
	case RoleToddler:
		return Toddler{}
	default:
		return Generic{}
	}
}

// Preference is a user's nutrition profile
type Preference struct {
	UserID           uint
	Role             Role
	HeightCm         *float64
	WeightKg         *float64
	AgeYear          *int
	AgeMonth         *int
	FoodProhibitions []string
	Allergens        []string
}

// RoleKind returns the preference's role code, generic when unset
func (p Preference) RoleKind() RoleKind {
	if p.Role == nil {
		return RoleGeneric
	}
	return p.Role.Kind()
}

// IsToddler reports whether targets come from the child tables
func (p Preference) IsToddler() bool {
	return p.RoleKind() == RoleToddler
}

// AgeInMonths combines age_year and age_month. The bool is false when
// neither is recorded.
func (p Preference) AgeInMonths() (int, bool) {
	if p.AgeYear == nil && p.AgeMonth == nil {
		return 0, false
	}
	total := 0
	if p.AgeYear != nil {
		total += *p.AgeYear * 12
	}
	if p.AgeMonth != nil {
		total += *p.AgeMonth
	}
	return total, true
}

// Restrictions returns allergens and food prohibitions as one list
func (p Preference) Restrictions() []string {
	out := make([]string, 0, len(p.Allergens)+len(p.FoodProhibitions))
	for _, s := range p.Allergens {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	for _, s := range p.FoodProhibitions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that recorded measurements are non-negative
func (p Preference) Validate() error {
	for _, v := range []*float64{p.HeightCm, p.WeightKg} {
		if v != nil && *v < 0 {
			return ErrNegativeMeasurement
		}
	}
	for _, v := range []*int{p.AgeYear, p.AgeMonth} {
		if v != nil && *v < 0 {
			return ErrNegativeAge
		}
	}
	if pr, ok := p.Role.(Pregnant); ok && pr.LILACm != nil && *pr.LILACm < 0 {
		return ErrNegativeMeasurement
	}
	return nil
}
