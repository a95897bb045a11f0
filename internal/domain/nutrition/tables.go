package nutrition

// Allowance is an amount of energy and macronutrients
type Allowance struct {
	EnergyKcal float64
	ProteinG   float64
	FatG       float64
	CarbsG     float64
}

// Add returns the elementwise sum
func (a Allowance) Add(b Allowance) Allowance {
	return Allowance{
		EnergyKcal: a.EnergyKcal + b.EnergyKcal,
		ProteinG:   a.ProteinG + b.ProteinG,
		FatG:       a.FatG + b.FatG,
		CarbsG:     a.CarbsG + b.CarbsG,
	}
}

// Scale multiplies every component by ratio
func (a Allowance) Scale(ratio float64) Allowance {
	return Allowance{
		EnergyKcal: a.EnergyKcal * ratio,
		ProteinG:   a.ProteinG * ratio,
		FatG:       a.FatG * ratio,
		CarbsG:     a.CarbsG * ratio,
	}
}

// Baseline is one AKG band: the allowance for a reference body weight
type Baseline struct {
	Band              string
	Allowance         Allowance
	ReferenceWeightKg float64
}

const (
	// KEKThresholdCm is the LILA below which a pregnancy is flagged for
	// chronic energy deficiency
	KEKThresholdCm = 23.5

	firstTrimesterWeeks  = 13
	secondTrimesterWeeks = 28

	minCalibrationRatio = 0.7
	maxCalibrationRatio = 1.5
	overweightBMI       = 25.0
	assumedBMI          = 22.0
)

var (
	adultBaselines = []Baseline{
		{Band: "19-29", Allowance: Allowance{2250, 60, 65, 360}, ReferenceWeightKg: 55},
		{Band: "30-49", Allowance: Allowance{2150, 60, 60, 340}, ReferenceWeightKg: 56},
		{Band: "50-64", Allowance: Allowance{1800, 60, 50, 280}, ReferenceWeightKg: 56},
		{Band: "65-80", Allowance: Allowance{1550, 58, 45, 230}, ReferenceWeightKg: 53},
		{Band: "80+", Allowance: Allowance{1400, 58, 40, 200}, ReferenceWeightKg: 53},
	}

	toddlerBaselines = map[string]Baseline{
		"0-5m":  {Band: "0-5m", Allowance: Allowance{550, 9, 31, 59}, ReferenceWeightKg: 6},
		"6-11m": {Band: "6-11m", Allowance: Allowance{800, 15, 35, 105}, ReferenceWeightKg: 9},
		"1-3y":  {Band: "1-3y", Allowance: Allowance{1350, 20, 45, 215}, ReferenceWeightKg: 13},
	}

	pregnancyIncrements = map[int]Allowance{
		1: {EnergyKcal: 180, ProteinG: 1, FatG: 2.3, CarbsG: 25},
		2: {EnergyKcal: 300, ProteinG: 10, FatG: 2.3, CarbsG: 40},
		3: {EnergyKcal: 300, ProteinG: 30, FatG: 2.3, CarbsG: 40},
	}

	lactationIncrements = map[LactationPhase]Allowance{
		LactationFirstHalf:  {EnergyKcal: 330, ProteinG: 20, FatG: 2.2, CarbsG: 45},
		LactationSecondHalf: {EnergyKcal: 400, ProteinG: 15, FatG: 2.2, CarbsG: 55},
	}

	kekBoost = Allowance{EnergyKcal: 200, ProteinG: 10}
)

// AdultBaseline selects the adult band for ageYear. Unknown or zero ages use
// the 19-29 band.
func AdultBaseline(ageYear *int) Baseline {
	if ageYear == nil || *ageYear <= 0 {
		return adultBaselines[0]
	}
	switch age := *ageYear; {
	case age < 30:
		return adultBaselines[0]
	case age < 50:
		return adultBaselines[1]
	case age < 65:
		return adultBaselines[2]
	case age < 80:
		return adultBaselines[3]
	default:
		return adultBaselines[4]
	}
}

// ToddlerBaseline selects the child band. Whole years of one or more use the
// 1-3y band, otherwise months decide, defaulting to six months.
func ToddlerBaseline(ageYear, ageMonth *int) Baseline {
	if ageYear != nil && *ageYear >= 1 {
		return toddlerBaselines["1-3y"]
	}
	months := 6
	if ageMonth != nil {
		months = *ageMonth
	}
	if months <= 5 {
		return toddlerBaselines["0-5m"]
	}
	return toddlerBaselines["6-11m"]
}

// Trimester maps gestational weeks to a trimester number
func Trimester(weeks int) int {
	switch {
	case weeks < firstTrimesterWeeks:
		return 1
	case weeks < secondTrimesterWeeks:
		return 2
	default:
		return 3
	}
}

// PregnancyIncrement returns the additional allowance for a trimester
func PregnancyIncrement(trimester int) Allowance {
	if inc, ok := pregnancyIncrements[trimester]; ok {
		return inc
	}
	return pregnancyIncrements[3]
}

// LactationIncrement returns the additional allowance for a lactation phase
func LactationIncrement(phase LactationPhase) Allowance {
	if inc, ok := lactationIncrements[phase]; ok {
		return inc
	}
	return lactationIncrements[LactationFirstHalf]
}
