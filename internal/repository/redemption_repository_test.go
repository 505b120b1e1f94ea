package repository

import (
	"context"
	"testing"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedemptionRepository_Exists(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedemptionRepository(db)
	ctx := context.Background()

	t.Run("no record", func(t *testing.T) {
		exists, err := repo.Exists(ctx, 1, 1)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("record present", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Redemption{CodeID: 1, AccountID: 1})
		require.NoError(t, err)

		exists, err := repo.Exists(ctx, 1, 1)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("soft-deleted record does not block", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.Redemption{CodeID: 2, AccountID: 1})
		require.NoError(t, err)

		err = repo.SoftDelete(ctx, created.ID)
		require.NoError(t, err)

		exists, err := repo.Exists(ctx, 2, 1)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("pair is scoped per account", func(t *testing.T) {
		exists, err := repo.Exists(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestRedemptionRepository_ListByAccount(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedemptionRepository(db)
	ctx := context.Background()

	for _, rec := range []*model.Redemption{
		{CodeID: 1, AccountID: 7},
		{CodeID: 2, AccountID: 7},
		{CodeID: 3, AccountID: 8},
	} {
		_, err := repo.Create(ctx, rec)
		require.NoError(t, err)
	}

	records, err := repo.ListByAccount(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRedemptionRepository_SoftDelete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedemptionRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Redemption{CodeID: 1, AccountID: 1})
	require.NoError(t, err)

	err = repo.SoftDelete(ctx, created.ID)
	assert.NoError(t, err)

	err = repo.SoftDelete(ctx, created.ID)
	assert.ErrorIs(t, err, ErrRedemptionNotFound)
}
