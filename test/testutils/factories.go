// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
)

// CatalogFactory generates random but reproducible catalog data
type CatalogFactory struct {
	faker *gofakeit.Faker
}

// NewCatalogFactory creates a new catalog factory with seeded faker
func NewCatalogFactory(seed int64) *CatalogFactory {
	return &CatalogFactory{faker: gofakeit.New(seed)}
}

// Ingredient creates an ingredient with plausible per-100 g values
func (f *CatalogFactory) Ingredient(id uint) menu.Ingredient {
	return menu.Ingredient{
		ID:       id,
		Name:     fmt.Sprintf("%s %d", f.faker.Noun(), id),
		AltNames: f.faker.Noun(),
		Calories: f.faker.Float64Range(20, 400),
		ProteinG: f.faker.Float64Range(0, 30),
		CarbsG:   f.faker.Float64Range(0, 80),
		FatG:     f.faker.Float64Range(0, 25),
	}
}

// Catalog creates menus for every meal type, each composed of up to three
// of the generated ingredients
func (f *CatalogFactory) Catalog(menus, ingredients int) *menu.Catalog {
	b := NewCatalogBuilder()
	ids := make([]uint, 0, ingredients)
	for i := 1; i <= ingredients; i++ {
		ing := f.Ingredient(uint(i))
		b.WithIngredient(ing)
		ids = append(ids, ing.ID)
	}
	for i := 1; i <= menus; i++ {
		m := menu.Menu{
			ID:         uint(i),
			Name:       f.faker.Sentence(2),
			MealType:   menu.MealTypes[i%len(menu.MealTypes)],
			TargetRole: menu.TargetAll,
			IsActive:   true,
			Source:     menu.ComputedNutrition{},
		}
		lines := make([]menu.CompositionLine, 0, 3)
		for j := 0; j < 3 && len(ids) > 0; j++ {
			id := ids[f.faker.Number(0, len(ids)-1)]
			lines = append(lines, Line(id, f.faker.Float64Range(20, 200)))
		}
		b.WithMenu(m, lines...)
	}
	return b.Build()
}

// CatalogBuilder provides a fluent interface for building test catalogs
type CatalogBuilder struct {
	catalog *menu.Catalog
}

// NewCatalogBuilder creates an empty catalog builder
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{catalog: &menu.Catalog{
		Compositions: map[uint][]menu.CompositionLine{},
		Ingredients:  map[uint]menu.Ingredient{},
	}}
}

// WithIngredient adds an ingredient
func (b *CatalogBuilder) WithIngredient(ing menu.Ingredient) *CatalogBuilder {
	b.catalog.Ingredients[ing.ID] = ing
	return b
}

// WithMenu adds a menu and its composition
func (b *CatalogBuilder) WithMenu(m menu.Menu, lines ...menu.CompositionLine) *CatalogBuilder {
	b.catalog.Menus = append(b.catalog.Menus, m)
	b.catalog.Compositions[m.ID] = lines
	return b
}

// Build returns the catalog
func (b *CatalogBuilder) Build() *menu.Catalog {
	return b.catalog
}

// Line creates a composition line contributing grams of an ingredient
func Line(ingredientID uint, grams float64) menu.CompositionLine {
	id := ingredientID
	g := grams
	return menu.CompositionLine{IngredientID: &id, QuantityG: &g}
}

// SampleCatalog is a small fixed Indonesian catalog shared by tests
func SampleCatalog() *menu.Catalog {
	return NewCatalogBuilder().
		WithIngredient(menu.Ingredient{ID: 1, Name: "Nasi Putih", AltNames: "rice, white rice", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3}).
		WithIngredient(menu.Ingredient{ID: 2, Name: "Ayam", AltNames: "chicken; daging ayam", Calories: 239, ProteinG: 27, CarbsG: 0, FatG: 14}).
		WithIngredient(menu.Ingredient{ID: 3, Name: "Udang", AltNames: "shrimp, prawn", Calories: 99, ProteinG: 24, CarbsG: 0.2, FatG: 0.3}).
		WithIngredient(menu.Ingredient{ID: 4, Name: "Kentang", AltNames: "potato", Calories: 77, ProteinG: 2, CarbsG: 17, FatG: 0.1}).
		WithIngredient(menu.Ingredient{ID: 5, Name: "Bayam", AltNames: "spinach", Calories: 23, ProteinG: 2.9, CarbsG: 3.6, FatG: 0.4}).
		WithMenu(menu.Menu{ID: 10, Name: "Nasi Ayam", MealType: menu.MealTypeBreakfast, TargetRole: menu.TargetAll, IsActive: true, Source: menu.ComputedNutrition{}},
			Line(1, 150), Line(2, 100)).
		WithMenu(menu.Menu{ID: 11, Name: "Nasi Udang", MealType: menu.MealTypeLunch, TargetRole: menu.TargetMother, IsActive: true, Source: menu.ComputedNutrition{}},
			Line(1, 150), Line(3, 100)).
		WithMenu(menu.Menu{ID: 12, Name: "Sup Kentang Bayam", MealType: menu.MealTypeDinner, TargetRole: menu.TargetAll, IsActive: true, Source: menu.ComputedNutrition{}},
			Line(4, 150), Line(5, 80)).
		WithMenu(menu.Menu{ID: 13, Name: "Bubur Bayam", MealType: menu.MealTypeLunch, TargetRole: menu.TargetChild12to23, IsActive: true, Source: menu.ComputedNutrition{}},
			Line(1, 60), Line(5, 30)).
		Build()
}

// PreferenceBuilder provides a fluent interface for building preferences
type PreferenceBuilder struct {
	pref nutrition.Preference
}

// NewPreferenceBuilder creates a generic adult preference
func NewPreferenceBuilder(userID uint) *PreferenceBuilder {
	return &PreferenceBuilder{pref: nutrition.Preference{UserID: userID, Role: nutrition.Generic{}}}
}

// WithBody sets height and weight
func (b *PreferenceBuilder) WithBody(heightCm, weightKg float64) *PreferenceBuilder {
	b.pref.HeightCm = &heightCm
	b.pref.WeightKg = &weightKg
	return b
}

// WithAge sets years and months
func (b *PreferenceBuilder) WithAge(years, months int) *PreferenceBuilder {
	b.pref.AgeYear = &years
	b.pref.AgeMonth = &months
	return b
}

// Pregnant switches the role to pregnant with an LMP weeksAgo before now
func (b *PreferenceBuilder) Pregnant(now time.Time, weeksAgo int, lilaCm *float64) *PreferenceBuilder {
	lmp := now.AddDate(0, 0, -7*weeksAgo)
	b.pref.Role = nutrition.Pregnant{LastMenstrualPeriod: &lmp, LILACm: lilaCm}
	return b
}

// Lactating switches the role to lactating
func (b *PreferenceBuilder) Lactating(phase nutrition.LactationPhase) *PreferenceBuilder {
	b.pref.Role = nutrition.Lactating{Phase: phase}
	return b
}

// Toddler switches the role to toddler
func (b *PreferenceBuilder) Toddler() *PreferenceBuilder {
	b.pref.Role = nutrition.Toddler{}
	return b
}

// WithAllergens sets allergens
func (b *PreferenceBuilder) WithAllergens(allergens ...string) *PreferenceBuilder {
	b.pref.Allergens = allergens
	return b
}

// WithProhibitions sets food prohibitions
func (b *PreferenceBuilder) WithProhibitions(items ...string) *PreferenceBuilder {
	b.pref.FoodProhibitions = items
	return b
}

// Build returns the preference
func (b *PreferenceBuilder) Build() *nutrition.Preference {
	p := b.pref
	return &p
}
