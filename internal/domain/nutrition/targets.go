package nutrition

import (
	"math"
	"time"
)

// Targets is a daily energy and macronutrient goal
type Targets struct {
	Calories int      `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
	BMI      *float64 `json:"bmi"`
}

// ComputeTargets derives the daily targets for a preference. It never fails:
// missing inputs fall back to the default bands and an uncalibrated baseline.
func ComputeTargets(p Preference, now time.Time) Targets {
	var base Baseline
	if p.IsToddler() {
		base = ToddlerBaseline(p.AgeYear, p.AgeMonth)
	} else {
		base = AdultBaseline(p.AgeYear)
	}

	allowance := base.Allowance
	if ratio, ok := CalibrationRatio(positive(p.WeightKg), positive(p.HeightCm), base.ReferenceWeightKg, p.IsToddler()); ok {
		allowance = allowance.Scale(ratio)
	}

	switch role := p.Role.(type) {
	case Pregnant:
		allowance = allowance.Add(PregnancyIncrement(Trimester(role.GestationalAgeWeeks(now))))
		if role.HasChronicEnergyDeficiency() {
			allowance = allowance.Add(kekBoost)
		}
	case Lactating:
		allowance = allowance.Add(LactationIncrement(role.Phase))
	}

	return Targets{
		Calories: int(math.Max(0, math.Trunc(allowance.EnergyKcal))),
		ProteinG: Round1(allowance.ProteinG),
		CarbsG:   Round1(allowance.CarbsG),
		FatG:     Round1(allowance.FatG),
		BMI:      BMI(positive(p.WeightKg), positive(p.HeightCm)),
	}
}

// CalibrationRatio scales a baseline from its reference weight to the user's.
// Overweight adults are calibrated on adjusted body weight. The bool is false
// when weight is unknown, in which case no calibration applies.
func CalibrationRatio(weightKg, heightCm, referenceKg float64, child bool) (float64, bool) {
	if weightKg <= 0 || referenceKg <= 0 {
		return 1, false
	}

	calcWeight := weightKg
	if !child {
		bmi := assumedBMI
		if heightCm > 0 {
			heightM := heightCm / 100
			bmi = weightKg / (heightM * heightM)
		}
		if bmi > overweightBMI && heightCm > 100 {
			ideal := (heightCm - 100) * 0.9
			calcWeight = ideal + 0.25*(weightKg-ideal)
		}
	}

	ratio := calcWeight / referenceKg
	return math.Max(minCalibrationRatio, math.Min(maxCalibrationRatio, ratio)), true
}

// BMI returns the body mass index rounded to one decimal, or nil when either
// measurement is unknown.
func BMI(weightKg, heightCm float64) *float64 {
	if weightKg <= 0 || heightCm <= 0 {
		return nil
	}
	heightM := heightCm / 100
	bmi := Round1(weightKg / (heightM * heightM))
	return &bmi
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func positive(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
