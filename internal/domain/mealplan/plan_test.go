package mealplan

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/nutrimom/api/internal/domain/nutrition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func uintp(v uint) *uint     { return &v }
func f64(v float64) *float64 { return &v }
func boolp(v bool) *bool     { return &v }

type PlanTestSuite struct {
	suite.Suite
	catalog *menu.Catalog
	now     time.Time
}

func (suite *PlanTestSuite) SetupTest() {
	suite.now = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	suite.catalog = &menu.Catalog{
		Ingredients: map[uint]menu.Ingredient{
			1: {ID: 1, Name: "Nasi Putih", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3},
			2: {ID: 2, Name: "Telur Ayam", Calories: 155, ProteinG: 13, CarbsG: 1.1, FatG: 11},
			3: {ID: 3, Name: "Kacang Tanah", Calories: 567, ProteinG: 26, CarbsG: 16, FatG: 49},
			7: {ID: 7, Name: "Daging Ayam", Calories: 239, ProteinG: 27, FatG: 14},
		},
		Menus: []menu.Menu{
			{ID: 10, Name: "Nasi Telur", MealType: menu.MealTypeBreakfast, TargetRole: menu.TargetAll, IsActive: true},
			{ID: 11, Name: "Bubur Kacang", MealType: menu.MealTypeBreakfast, Tags: []string{"kacang"}, TargetRole: menu.TargetAll, IsActive: true},
			{ID: 12, Name: "Nasi Ayam", MealType: menu.MealTypeLunch, TargetRole: menu.TargetMother, IsActive: true},
			{ID: 13, Name: "Ayam Goreng", MealType: menu.MealTypeLunch, TargetRole: menu.TargetAll, IsActive: true},
			{ID: 14, Name: "Bubur Bayi", MealType: menu.MealTypeDinner, TargetRole: menu.TargetChild, IsActive: true},
		},
		Compositions: map[uint][]menu.CompositionLine{
			10: {{IngredientID: uintp(1), QuantityG: f64(150)}, {IngredientID: uintp(2), QuantityG: f64(60)}},
			11: {{IngredientID: uintp(3), QuantityG: f64(80)}},
			12: {{IngredientID: uintp(1), QuantityG: f64(200)}, {IngredientID: uintp(7), QuantityG: f64(150)}, {IngredientID: uintp(2), DisplayText: "1 butir"}},
			13: {{IngredientID: uintp(7), QuantityG: f64(120)}},
			14: {{IngredientID: uintp(1), QuantityG: f64(50)}},
		},
	}
}

func (suite *PlanTestSuite) request() PlanRequest {
	return PlanRequest{
		UserID:     5,
		Preference: nutrition.Preference{UserID: 5, Role: nutrition.Generic{}, Allergens: []string{"kacang"}},
		Catalog:    suite.catalog,
		Scoring:    menu.DefaultScoringParameters(),
		Now:        suite.now,
	}
}

func (suite *PlanTestSuite) TestBuildPlan() {
	suite.Run("TwoDaysPrimaryOnly_ShouldEmitOneEntryPerSlot", func() {
		// Arrange
		req := suite.request()
		req.Days = 2
		req.OptionsPerMeal = 1
		req.HideOptions = boolp(true)

		// Act
		plan := BuildPlan(req)

		// Assert
		require.Len(suite.T(), plan.Days, 2)
		assert.Equal(suite.T(), "2026-05-10", plan.Days[0].Date)
		assert.Equal(suite.T(), "2026-05-11", plan.Days[1].Date)
		for _, day := range plan.Days {
			require.Len(suite.T(), day.Meals, 3)
			for _, slot := range day.Meals {
				assert.True(suite.T(), slot.OptionsHidden())
			}
		}
	})

	suite.Run("Allergen_ShouldDropTaggedMenu", func() {
		plan := BuildPlan(suite.request())

		breakfast := plan.Days[0].Meals[0]
		require.NotNil(suite.T(), breakfast.Primary)
		require.Len(suite.T(), breakfast.Options, 1)
		assert.Equal(suite.T(), uint(10), breakfast.Primary.MenuID)
	})

	suite.Run("ToddlerMenu_ShouldNotReachMother", func() {
		plan := BuildPlan(suite.request())

		dinner := plan.Days[0].Meals[2]
		assert.Equal(suite.T(), menu.MealTypeDinner, dinner.MealType)
		assert.Nil(suite.T(), dinner.Primary)
		assert.NotNil(suite.T(), dinner.Options)
		assert.Empty(suite.T(), dinner.Options)
	})

	suite.Run("Summary_ShouldSumPrimaryPicks", func() {
		plan := BuildPlan(suite.request())

		var want menu.Nutrition
		for _, slot := range plan.Days[0].Meals {
			if slot.Primary != nil {
				want = want.Add(slot.Primary.Nutrition)
			}
		}
		assert.Equal(suite.T(), want, plan.Days[0].Summary)
		assert.Equal(suite.T(), plan.Targets, plan.Days[0].DailyTarget)
	})

	suite.Run("MealTypeFilter_ShouldRestrictToOneSlot", func() {
		req := suite.request()
		req.MealTypeFilter = "lunch"

		plan := BuildPlan(req)

		require.Len(suite.T(), plan.Days[0].Meals, 1)
		assert.Equal(suite.T(), menu.MealTypeLunch, plan.Days[0].Meals[0].MealType)
	})

	suite.Run("InvalidMealTypeFilter_ShouldUseAllSlots", func() {
		req := suite.request()
		req.MealTypeFilter = "supper"

		plan := BuildPlan(req)

		assert.Len(suite.T(), plan.Days[0].Meals, 3)
	})

	suite.Run("Detection_ShouldHideOptionsAndPreferHits", func() {
		req := suite.request()
		req.Detected = menu.NewIngredientSet(7)

		plan := BuildPlan(req)

		lunch := plan.Days[0].Meals[1]
		assert.True(suite.T(), plan.DetectionUsed)
		assert.True(suite.T(), lunch.OptionsHidden())
		require.NotNil(suite.T(), lunch.Primary)
		assert.Equal(suite.T(), 1, lunch.Primary.DetectedHits)
		// breakfast has no detected ingredient and is filtered out
		assert.Nil(suite.T(), plan.Days[0].Meals[0].Primary)
	})

	suite.Run("FoodLogPayload_ShouldSkipLinesWithoutQuantity", func() {
		req := suite.request()
		req.MealTypeFilter = "LUNCH"
		req.OptionsPerMeal = 10

		plan := BuildPlan(req)

		var nasiAyam *Option
		for i, opt := range plan.Days[0].Meals[0].Options {
			if opt.MenuID == 12 {
				nasiAyam = &plan.Days[0].Meals[0].Options[i]
			}
		}
		require.NotNil(suite.T(), nasiAyam)
		assert.Len(suite.T(), nasiAyam.Ingredients, 3)
		assert.Equal(suite.T(), []FoodLogItem{{IngredientID: 1, QuantityG: 200}, {IngredientID: 7, QuantityG: 150}}, nasiAyam.FoodLogPayload.Items)
	})

	suite.Run("OutOfRangeTunables_ShouldBeClamped", func() {
		req := suite.request()
		req.Days = 400

		plan := BuildPlan(req)

		assert.Len(suite.T(), plan.Days, MaxDays)
	})

	suite.Run("NilCatalog_ShouldReturnEmptySlots", func() {
		req := suite.request()
		req.Catalog = nil

		plan := BuildPlan(req)

		require.Len(suite.T(), plan.Days, 1)
		for _, slot := range plan.Days[0].Meals {
			assert.Nil(suite.T(), slot.Primary)
		}
	})
}

func (suite *PlanTestSuite) TestMealSlotJSON() {
	hidden, err := json.Marshal(MealSlot{MealType: menu.MealTypeLunch})
	require.NoError(suite.T(), err)
	assert.NotContains(suite.T(), string(hidden), "options")

	shown, err := json.Marshal(MealSlot{MealType: menu.MealTypeLunch, Options: []Option{}})
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), string(shown), `"options":[]`)
}

func TestPlanTestSuite(t *testing.T) {
	suite.Run(t, new(PlanTestSuite))
}

func TestClamps(t *testing.T) {
	assert.Equal(t, DefaultDays, ClampDays(0))
	assert.Equal(t, 7, ClampDays(7))
	assert.Equal(t, MaxDays, ClampDays(99))
	assert.Equal(t, DefaultOptionsPerMeal, ClampOptions(-1))
	assert.Equal(t, MaxOptionsPerMeal, ClampOptions(11))
}
