package meallog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nutrimom/api/internal/domain/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func uintp(v uint) *uint     { return &v }
func f64(v float64) *float64 { return &v }

type MealLogTestSuite struct {
	suite.Suite
	menu        menu.Menu
	lines       []menu.CompositionLine
	ingredients map[uint]menu.Ingredient
}

func (suite *MealLogTestSuite) SetupTest() {
	suite.menu = menu.Menu{ID: 3, Name: "Nasi Telur", ImageURL: "/img/nasi-telur.jpg"}
	suite.lines = []menu.CompositionLine{
		{IngredientID: uintp(1), QuantityG: f64(150)},
		{IngredientID: uintp(2), DisplayText: "1 butir"},
		{IngredientID: uintp(99), QuantityG: f64(10)},
	}
	suite.ingredients = map[uint]menu.Ingredient{
		1: {ID: 1, Name: "Nasi Putih", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3},
		2: {ID: 2, Name: "Telur Ayam", Calories: 155, ProteinG: 13, CarbsG: 1.1, FatG: 11},
	}
}

func (suite *MealLogTestSuite) TestNewMealLog() {
	suite.Run("ValidMenu_ShouldSnapshotScaledLines", func() {
		// Arrange
		at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

		// Act
		log, err := NewMealLog(7, suite.menu, suite.lines, suite.ingredients, 2, false, at)

		// Assert
		require.NoError(suite.T(), err)
		assert.NotEqual(suite.T(), uuid.Nil, log.ID())
		assert.Equal(suite.T(), 2.0, log.Servings())
		assert.Equal(suite.T(), at, log.LoggedAt())
		assert.Equal(suite.T(), "Nasi Telur", log.MenuName())

		items := log.Items()
		require.Len(suite.T(), items, 2)
		assert.Equal(suite.T(), 300.0, items[0].QuantityG)
		assert.Equal(suite.T(), 0.0, items[1].QuantityG)
		assert.Equal(suite.T(), menu.Serialize(suite.ingredients[1], 300), log.Total())

		events := log.Events()
		require.Len(suite.T(), events, 1)
		logged, ok := events[0].(MealLoggedEvent)
		require.True(suite.T(), ok)
		assert.Equal(suite.T(), log.ID(), logged.MealLogID)
		assert.Equal(suite.T(), 390, logged.TotalCalories)
		assert.Empty(suite.T(), log.Events())
	})

	suite.Run("EmptyComposition_ShouldReturnError", func() {
		log, err := NewMealLog(7, suite.menu, nil, suite.ingredients, 1, false, time.Time{})

		assert.Nil(suite.T(), log)
		assert.ErrorIs(suite.T(), err, ErrMenuEmpty)
	})

	suite.Run("MissingUser_ShouldReturnError", func() {
		_, err := NewMealLog(0, suite.menu, suite.lines, suite.ingredients, 1, false, time.Time{})

		assert.ErrorIs(suite.T(), err, ErrInvalidUser)
	})

	suite.Run("ZeroTime_ShouldDefaultToNow", func() {
		log, err := NewMealLog(7, suite.menu, suite.lines, suite.ingredients, 1, false, time.Time{})

		require.NoError(suite.T(), err)
		assert.WithinDuration(suite.T(), time.Now().UTC(), log.LoggedAt(), 5*time.Second)
	})
}

func (suite *MealLogTestSuite) TestMarkConsumed() {
	log, err := NewMealLog(7, suite.menu, suite.lines, suite.ingredients, 1, false, time.Time{})
	require.NoError(suite.T(), err)
	log.Events()

	require.NoError(suite.T(), log.MarkConsumed(time.Now()))
	assert.True(suite.T(), log.IsConsumed())
	require.Len(suite.T(), log.Events(), 1)

	assert.ErrorIs(suite.T(), log.MarkConsumed(time.Now()), ErrAlreadyConsumed)
}

func TestMealLogTestSuite(t *testing.T) {
	suite.Run(t, new(MealLogTestSuite))
}

func TestClampServings(t *testing.T) {
	assert.Equal(t, 1.0, ClampServings(0))
	assert.Equal(t, 1.0, ClampServings(-3))
	assert.Equal(t, 0.5, ClampServings(0.5))
	assert.Equal(t, 20.0, ClampServings(99))
}
