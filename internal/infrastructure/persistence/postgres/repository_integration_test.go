//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nutrimom/api/internal/domain/meallog"
	gormrepo "github.com/nutrimom/api/internal/infrastructure/persistence/gorm"
	"github.com/nutrimom/api/test/testutils"
)

type PostgresRepositoryTestSuite struct {
	suite.Suite
	db  *testutils.TestDatabase
	ctx context.Context
}

func (suite *PostgresRepositoryTestSuite) SetupSuite() {
	suite.db = testutils.SetupTestDatabase(suite.T())
	suite.ctx = context.Background()
}

func (suite *PostgresRepositoryTestSuite) SetupTest() {
	suite.db.Truncate(suite.T())
	require.NoError(suite.T(), gormrepo.SeedDatabase(suite.db.GormDB))
}

func (suite *PostgresRepositoryTestSuite) TestSeededCatalog_ShouldLoadFromMigratedSchema() {
	catalog, err := gormrepo.NewCatalogRepository(suite.db.GormDB).ActiveCatalog(suite.ctx)

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), catalog.Menus, 9)
}

func (suite *PostgresRepositoryTestSuite) TestSearchIngredients_ShouldMatchAltNames() {
	repo := gormrepo.NewCatalogRepository(suite.db.GormDB)

	found, err := repo.SearchIngredients(suite.ctx, []string{"SHRIMP", "spinach"}, 10)

	require.NoError(suite.T(), err)
	names := make([]string, 0, len(found))
	for _, ing := range found {
		names = append(names, ing.Name)
	}
	assert.ElementsMatch(suite.T(), []string{"Bayam", "Udang"}, names)
}

func (suite *PostgresRepositoryTestSuite) TestMealLogLifecycle() {
	// Arrange
	catalogRepo := gormrepo.NewCatalogRepository(suite.db.GormDB)
	logs := gormrepo.NewMealLogRepository(suite.db.GormDB)

	catalog, err := catalogRepo.ActiveCatalog(suite.ctx)
	require.NoError(suite.T(), err)
	m := catalog.Menus[0]
	log, err := meallog.NewMealLog(1, m, catalog.Lines(m.ID), catalog.Ingredients, 1, false, time.Now().UTC())
	require.NoError(suite.T(), err)

	// Act
	require.NoError(suite.T(), logs.Create(suite.ctx, log))
	confirmed, err := logs.MarkConsumed(suite.ctx, 1, log.ID())
	require.NoError(suite.T(), err)

	// Assert
	assert.True(suite.T(), confirmed.IsConsumed())

	var consumed bool
	require.NoError(suite.T(), suite.db.PgxPool.QueryRow(suite.ctx,
		`SELECT is_consumed FROM food_meal_logs WHERE id = $1`, log.ID().String()).Scan(&consumed))
	assert.True(suite.T(), consumed)
}

func TestPostgresRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresRepositoryTestSuite))
}
