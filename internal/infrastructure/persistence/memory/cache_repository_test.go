package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nutrimom/api/internal/ports/outbound"
)

type CacheRepositoryTestSuite struct {
	suite.Suite
	repo *CacheRepository
	now  time.Time
	ctx  context.Context
}

func (suite *CacheRepositoryTestSuite) SetupTest() {
	suite.repo = NewCacheRepository()
	suite.now = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	suite.repo.now = func() time.Time { return suite.now }
	suite.ctx = context.Background()
}

func (suite *CacheRepositoryTestSuite) TearDownTest() {
	suite.repo.Close()
}

func (suite *CacheRepositoryTestSuite) TestGetSet() {
	suite.Run("Missing_ShouldReturnCacheMiss", func() {
		_, err := suite.repo.Get(suite.ctx, "absent")
		assert.ErrorIs(suite.T(), err, outbound.ErrCacheMiss)
	})

	suite.Run("Stored_ShouldReturnCopy", func() {
		// Arrange
		value := []byte("catalog")
		require.NoError(suite.T(), suite.repo.Set(suite.ctx, "k", value, time.Minute))
		value[0] = 'X'

		// Act
		got, err := suite.repo.Get(suite.ctx, "k")

		// Assert
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), "catalog", string(got))
	})

	suite.Run("Expired_ShouldMiss", func() {
		require.NoError(suite.T(), suite.repo.Set(suite.ctx, "short", []byte("v"), time.Second))
		suite.now = suite.now.Add(2 * time.Second)

		_, err := suite.repo.Get(suite.ctx, "short")
		assert.ErrorIs(suite.T(), err, outbound.ErrCacheMiss)

		exists, err := suite.repo.Exists(suite.ctx, "short")
		require.NoError(suite.T(), err)
		assert.False(suite.T(), exists)
	})
}

func (suite *CacheRepositoryTestSuite) TestDeleteAndExists() {
	require.NoError(suite.T(), suite.repo.Set(suite.ctx, "k", []byte("v"), 0))

	exists, err := suite.repo.Exists(suite.ctx, "k")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), exists)

	require.NoError(suite.T(), suite.repo.Delete(suite.ctx, "k"))

	exists, err = suite.repo.Exists(suite.ctx, "k")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), exists)
}

func (suite *CacheRepositoryTestSuite) TestIncrement() {
	for want := int64(1); want <= 3; want++ {
		got, err := suite.repo.Increment(suite.ctx, "counter")
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), want, got)
	}

	suite.now = suite.now.Add(25 * time.Hour)
	got, err := suite.repo.Increment(suite.ctx, "counter")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), got)
}

func (suite *CacheRepositoryTestSuite) TestSweep() {
	require.NoError(suite.T(), suite.repo.Set(suite.ctx, "old", []byte("v"), time.Second))
	require.NoError(suite.T(), suite.repo.Set(suite.ctx, "fresh", []byte("v"), time.Hour))
	suite.now = suite.now.Add(time.Minute)

	suite.repo.sweep()

	suite.repo.mutex.RLock()
	defer suite.repo.mutex.RUnlock()
	assert.NotContains(suite.T(), suite.repo.data, "old")
	assert.Contains(suite.T(), suite.repo.data, "fresh")
}

func TestCacheRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CacheRepositoryTestSuite))
}
