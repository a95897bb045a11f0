package gorm

import (
	"fmt"

	"gorm.io/gorm"
)

type seedLine struct {
	ingredient string
	grams      *float64
	display    string
}

type seedMenu struct {
	menu  MenuModel
	lines []seedLine
}

func grams(g float64) *float64 { return &g }

// SeedDatabase populates an empty database with a small Indonesian catalog
// and a demo preference
func SeedDatabase(db *gorm.DB) error {
	// Check if data already exists
	var count int64
	if err := db.Model(&IngredientModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count ingredients: %w", err)
	}
	if count > 0 {
		return nil // Already seeded
	}

	ingredients := []IngredientModel{
		{Name: "Oat", AltNames: "oatmeal, oats", Calories: 389, ProteinG: 16.9, CarbsG: 66.3, FatG: 6.9},
		{Name: "Telur", AltNames: "egg; telur ayam", Calories: 155, ProteinG: 13, CarbsG: 1.1, FatG: 11},
		{Name: "Pisang", AltNames: "banana", Calories: 89, ProteinG: 1.1, CarbsG: 22.8, FatG: 0.3},
		{Name: "Ayam Panggang", AltNames: "grilled chicken, chicken, daging ayam", Calories: 239, ProteinG: 27.3, CarbsG: 0, FatG: 13.6},
		{Name: "Nasi Putih", AltNames: "white rice, rice", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3},
		{Name: "Sayur Campur", AltNames: "mixed vegetables, vegetable", Calories: 40, ProteinG: 2, CarbsG: 7, FatG: 0.3},
		{Name: "Wortel", AltNames: "carrot", Calories: 41, ProteinG: 0.9, CarbsG: 10, FatG: 0.2},
		{Name: "Kentang", AltNames: "potato", Calories: 77, ProteinG: 2, CarbsG: 17, FatG: 0.1},
		{Name: "Ikan Kembung", AltNames: "mackerel, fish, ikan", Calories: 167, ProteinG: 21.3, CarbsG: 0, FatG: 9},
		{Name: "Tempe", AltNames: "tempeh", Calories: 192, ProteinG: 20.3, CarbsG: 7.6, FatG: 10.8},
		{Name: "Tahu", AltNames: "tofu", Calories: 76, ProteinG: 8, CarbsG: 1.9, FatG: 4.8},
		{Name: "Bayam", AltNames: "spinach", Calories: 23, ProteinG: 2.9, CarbsG: 3.6, FatG: 0.4},
		{Name: "Udang", AltNames: "shrimp, prawn", Calories: 99, ProteinG: 24, CarbsG: 0.2, FatG: 0.3},
		{Name: "Susu", AltNames: "milk", Calories: 61, ProteinG: 3.2, CarbsG: 4.8, FatG: 3.3},
		{Name: "Bawang Putih", AltNames: "garlic", Calories: 149, ProteinG: 6.4, CarbsG: 33, FatG: 0.5},
	}

	menus := []seedMenu{
		{
			menu: MenuModel{Name: "Oat + Telur + Pisang", MealType: "BREAKFAST", Tags: StringSlice{"umum", "ibu_hamil"}, TargetRole: "ALL"},
			lines: []seedLine{
				{ingredient: "Oat", grams: grams(60)},
				{ingredient: "Telur", grams: grams(50)},
				{ingredient: "Pisang", grams: grams(100)},
			},
		},
		{
			menu: MenuModel{Name: "Nasi + Ayam + Sayur", MealType: "LUNCH", Tags: StringSlice{"umum", "protein"}, TargetRole: "ALL"},
			lines: []seedLine{
				{ingredient: "Nasi Putih", grams: grams(200)},
				{ingredient: "Ayam Panggang", grams: grams(120)},
				{ingredient: "Sayur Campur", grams: grams(100)},
				{ingredient: "Bawang Putih", display: "2 siung"},
			},
		},
		{
			menu: MenuModel{Name: "Nasi + Ikan Kembung + Bayam", MealType: "DINNER", Tags: StringSlice{"ikan", "ibu_menyusui"}, TargetRole: "IBU"},
			lines: []seedLine{
				{ingredient: "Nasi Putih", grams: grams(150)},
				{ingredient: "Ikan Kembung", grams: grams(100)},
				{ingredient: "Bayam", grams: grams(75)},
			},
		},
		{
			menu: MenuModel{Name: "Nasi + Tempe + Tahu + Sayur", MealType: "DINNER", Tags: StringSlice{"umum", "nabati"}, TargetRole: "ALL"},
			lines: []seedLine{
				{ingredient: "Nasi Putih", grams: grams(150)},
				{ingredient: "Tempe", grams: grams(75)},
				{ingredient: "Tahu", grams: grams(75)},
				{ingredient: "Sayur Campur", grams: grams(100)},
			},
		},
		{
			menu: MenuModel{Name: "Udang Goreng + Nasi + Wortel", MealType: "LUNCH", Tags: StringSlice{"seafood"}, TargetRole: "IBU"},
			lines: []seedLine{
				{ingredient: "Nasi Putih", grams: grams(150)},
				{ingredient: "Udang", grams: grams(100)},
				{ingredient: "Wortel", grams: grams(60)},
			},
		},
		{
			menu: MenuModel{Name: "Bubur Kentang Wortel", MealType: "BREAKFAST", Tags: StringSlice{"mpasi"}, TargetRole: "ANAK_6_8"},
			lines: []seedLine{
				{ingredient: "Kentang", grams: grams(50)},
				{ingredient: "Wortel", grams: grams(25)},
				{ingredient: "Susu", grams: grams(50)},
			},
		},
		{
			menu: MenuModel{Name: "Nasi Tim Ayam Bayam", MealType: "LUNCH", Tags: StringSlice{"mpasi"}, TargetRole: "ANAK_9_11"},
			lines: []seedLine{
				{ingredient: "Nasi Putih", grams: grams(60)},
				{ingredient: "Ayam Panggang", grams: grams(30)},
				{ingredient: "Bayam", grams: grams(20)},
			},
		},
		{
			menu: MenuModel{Name: "Nasi + Telur Dadar + Tahu", MealType: "DINNER", Tags: StringSlice{"anak"}, TargetRole: "ANAK"},
			lines: []seedLine{
				{ingredient: "Nasi Putih", grams: grams(80)},
				{ingredient: "Telur", grams: grams(50)},
				{ingredient: "Tahu", grams: grams(40)},
			},
		},
		{
			menu: MenuModel{Name: "Roti Susu Pisang", MealType: "BREAKFAST", Tags: StringSlice{"susu"}, TargetRole: "ANAK_12_23"},
			lines: []seedLine{
				{ingredient: "Pisang", grams: grams(60)},
				{ingredient: "Susu", grams: grams(150)},
			},
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ingredients).Error; err != nil {
			return fmt.Errorf("failed to create seed ingredients: %w", err)
		}
		byName := make(map[string]uint, len(ingredients))
		for _, ing := range ingredients {
			byName[ing.Name] = ing.ID
		}

		for _, sm := range menus {
			m := sm.menu
			m.IsActive = true
			for _, line := range sm.lines {
				id, ok := byName[line.ingredient]
				if !ok {
					return fmt.Errorf("seed menu %q references unknown ingredient %q", m.Name, line.ingredient)
				}
				m.Lines = append(m.Lines, MenuLineModel{
					IngredientID:    &id,
					QuantityG:       line.grams,
					DisplayQuantity: line.display,
				})
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to create seed menu %q: %w", m.Name, err)
			}
		}

		height, weight, age, lila := 158.0, 55.0, 27, 24.5
		demo := PreferenceModel{
			UserID:           1,
			Role:             "IBU_HAMIL",
			HeightCm:         &height,
			WeightKg:         &weight,
			AgeYear:          &age,
			LILACm:           &lila,
			FoodProhibitions: StringSlice{},
			Allergens:        StringSlice{"udang"},
		}
		if err := tx.Create(&demo).Error; err != nil {
			return fmt.Errorf("failed to create demo preference: %w", err)
		}

		return nil
	})
}
