// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"strings"

	"github.com/nutrimom/api/internal/domain/meallog"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
)

// PreferenceToModel converts a domain preference to a GORM model
func PreferenceToModel(p *nutrition.Preference) *PreferenceModel {
	model := &PreferenceModel{
		UserID:           p.UserID,
		Role:             string(p.RoleKind()),
		HeightCm:         p.HeightCm,
		WeightKg:         p.WeightKg,
		AgeYear:          p.AgeYear,
		AgeMonth:         p.AgeMonth,
		FoodProhibitions: StringSlice(p.FoodProhibitions),
		Allergens:        StringSlice(p.Allergens),
	}

	switch role := p.Role.(type) {
	case nutrition.Pregnant:
		model.LastMenstrualPeriod = role.LastMenstrualPeriod
		model.LILACm = role.LILACm
	case nutrition.Lactating:
		model.LactationPhase = string(role.Phase)
	}

	return model
}

// ModelToPreference converts a GORM model to a domain preference.
// Unknown role codes fall back to the generic role.
func ModelToPreference(m *PreferenceModel) *nutrition.Preference {
	kind := nutrition.ParseRoleKind(m.Role)
	return &nutrition.Preference{
		UserID:           m.UserID,
		Role:             nutrition.NewRole(kind, m.LastMenstrualPeriod, m.LILACm, m.LactationPhase),
		HeightCm:         m.HeightCm,
		WeightKg:         m.WeightKg,
		AgeYear:          m.AgeYear,
		AgeMonth:         m.AgeMonth,
		FoodProhibitions: []string(m.FoodProhibitions),
		Allergens:        []string(m.Allergens),
	}
}

// ModelToIngredient converts a GORM model to a domain ingredient
func ModelToIngredient(m *IngredientModel) menu.Ingredient {
	return menu.Ingredient{
		ID:       m.ID,
		Name:     m.Name,
		AltNames: m.AltNames,
		Calories: nonNegative(m.Calories),
		ProteinG: nonNegative(m.ProteinG),
		CarbsG:   nonNegative(m.CarbsG),
		FatG:     nonNegative(m.FatG),
	}
}

// IngredientToModel converts a domain ingredient to a GORM model
func IngredientToModel(i menu.Ingredient) *IngredientModel {
	return &IngredientModel{
		ID:       i.ID,
		Name:     i.Name,
		AltNames: i.AltNames,
		Calories: i.Calories,
		ProteinG: i.ProteinG,
		CarbsG:   i.CarbsG,
		FatG:     i.FatG,
	}
}

// ModelToMenu converts a GORM model to a domain menu. A manual override
// needs every manual column; a partial override is treated as computed.
func ModelToMenu(m *MenuModel) menu.Menu {
	mealType, _ := menu.ParseMealType(m.MealType)
	out := menu.Menu{
		ID:         m.ID,
		Name:       m.Name,
		MealType:   mealType,
		Tags:       cleanTags(m.Tags),
		TargetRole: menu.ParseTargetRole(m.TargetRole),
		ImageURL:   m.ImageURL,
		IsActive:   m.IsActive,
		Source:     menu.ComputedNutrition{},
	}

	if m.ManualCalories != nil && m.ManualProteinG != nil && m.ManualCarbsG != nil && m.ManualFatG != nil {
		out.Source = menu.ManualNutrition{Values: menu.Nutrition{
			Calories: *m.ManualCalories,
			ProteinG: *m.ManualProteinG,
			CarbsG:   *m.ManualCarbsG,
			FatG:     *m.ManualFatG,
		}}
	}

	return out
}

// MenuToModel converts a domain menu and its composition to GORM models
func MenuToModel(m menu.Menu, lines []menu.CompositionLine) *MenuModel {
	model := &MenuModel{
		ID:         m.ID,
		Name:       m.Name,
		MealType:   string(m.MealType),
		Tags:       StringSlice(m.Tags),
		TargetRole: string(m.TargetRole),
		ImageURL:   m.ImageURL,
		IsActive:   m.IsActive,
		Lines:      make([]MenuLineModel, 0, len(lines)),
	}
	if model.TargetRole == "" {
		model.TargetRole = string(menu.TargetAll)
	}

	if manual, ok := m.Source.(menu.ManualNutrition); ok {
		v := manual.Values
		model.ManualCalories = &v.Calories
		model.ManualProteinG = &v.ProteinG
		model.ManualCarbsG = &v.CarbsG
		model.ManualFatG = &v.FatG
	}

	for _, line := range lines {
		model.Lines = append(model.Lines, MenuLineModel{
			IngredientID:    line.IngredientID,
			QuantityG:       line.QuantityG,
			DisplayQuantity: line.DisplayText,
		})
	}

	return model
}

// ModelToLines converts composition rows to domain lines
func ModelToLines(rows []MenuLineModel) []menu.CompositionLine {
	lines := make([]menu.CompositionLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, menu.CompositionLine{
			IngredientID: row.IngredientID,
			QuantityG:    row.QuantityG,
			DisplayText:  row.DisplayQuantity,
		})
	}
	return lines
}

// MealLogToModel converts a domain meal log to a GORM model
func MealLogToModel(l *meallog.MealLog) *MealLogModel {
	total := l.Total()
	model := &MealLogModel{
		ID:            l.ID(),
		UserID:        l.UserID(),
		MenuID:        l.MenuID(),
		MenuName:      l.MenuName(),
		ImageURL:      l.ImageURL(),
		Servings:      l.Servings(),
		TotalCalories: total.Calories,
		TotalProteinG: total.ProteinG,
		TotalCarbsG:   total.CarbsG,
		TotalFatG:     total.FatG,
		IsConsumed:    l.IsConsumed(),
		LoggedAt:      l.LoggedAt(),
	}

	for _, item := range l.Items() {
		model.Items = append(model.Items, MealLogItemModel{
			MealLogID:    l.ID(),
			IngredientID: item.IngredientID,
			QuantityG:    item.QuantityG,
			Calories:     item.Nutrition.Calories,
			ProteinG:     item.Nutrition.ProteinG,
			CarbsG:       item.Nutrition.CarbsG,
			FatG:         item.Nutrition.FatG,
		})
	}

	return model
}

// ModelToMealLog converts a GORM model to a domain meal log
func ModelToMealLog(m *MealLogModel) *meallog.MealLog {
	items := make([]meallog.Item, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, meallog.Item{
			IngredientID: it.IngredientID,
			QuantityG:    it.QuantityG,
			Nutrition: menu.Nutrition{
				Calories: it.Calories,
				ProteinG: it.ProteinG,
				CarbsG:   it.CarbsG,
				FatG:     it.FatG,
			},
		})
	}

	return meallog.Restore(
		m.ID,
		m.UserID,
		m.MenuID,
		m.MenuName,
		m.ImageURL,
		m.Servings,
		menu.Nutrition{
			Calories: m.TotalCalories,
			ProteinG: m.TotalProteinG,
			CarbsG:   m.TotalCarbsG,
			FatG:     m.TotalFatG,
		},
		items,
		m.IsConsumed,
		m.LoggedAt.UTC(),
	)
}

func cleanTags(tags StringSlice) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
