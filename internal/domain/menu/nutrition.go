package menu

import "math"

// Nutrition is an absolute amount of energy and macronutrients
type Nutrition struct {
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Add returns the elementwise sum
func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories: n.Calories + o.Calories,
		ProteinG: n.ProteinG + o.ProteinG,
		CarbsG:   n.CarbsG + o.CarbsG,
		FatG:     n.FatG + o.FatG,
	}
}

// Serialize computes the nutrition of grams of an ingredient
func Serialize(ing Ingredient, grams float64) Nutrition {
	factor := grams / 100
	return Nutrition{
		Calories: int(math.Round(ing.Calories * factor)),
		ProteinG: ing.ProteinG * factor,
		CarbsG:   ing.CarbsG * factor,
		FatG:     ing.FatG * factor,
	}
}

// LineItem is a resolved composition line
type LineItem struct {
	IngredientID uint     `json:"ingredient_id"`
	Name         string   `json:"name"`
	QuantityG    *float64 `json:"quantity_g"`
}

// Quantity returns the line quantity, zero when unset
func (li LineItem) Quantity() float64 {
	if li.QuantityG == nil || *li.QuantityG < 0 {
		return 0
	}
	return *li.QuantityG
}

// ResolveLines returns the composition lines whose ingredient exists in the
// catalog. Lines referencing unknown ingredients are skipped.
func ResolveLines(lines []CompositionLine, ingredients map[uint]Ingredient) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		if line.IngredientID == nil {
			continue
		}
		ing, ok := ingredients[*line.IngredientID]
		if !ok {
			continue
		}
		items = append(items, LineItem{IngredientID: ing.ID, Name: ing.Name, QuantityG: line.QuantityG})
	}
	return items
}

// ResolveNutrition returns the manual override when present, otherwise the
// sum over lines that have both a known ingredient and a quantity.
func ResolveNutrition(m Menu, lines []CompositionLine, ingredients map[uint]Ingredient) Nutrition {
	if manual, ok := m.Source.(ManualNutrition); ok {
		return manual.Values
	}
	var total Nutrition
	for _, line := range lines {
		if !line.Contributes() {
			continue
		}
		ing, ok := ingredients[*line.IngredientID]
		if !ok {
			continue
		}
		total = total.Add(Serialize(ing, *line.QuantityG))
	}
	return total
}
