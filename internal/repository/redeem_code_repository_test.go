package repository

import (
	"context"
	"testing"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemCodeRepository_GetByCodeForUpdate(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedeemCodeRepository(db)
	ctx := context.Background()

	t.Run("redeemable code", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.RedeemCode{
			Code:          "WELCOME10",
			Coins:         100,
			UsesRemaining: 1,
			Enabled:       true,
		})
		require.NoError(t, err)

		code, err := repo.GetByCodeForUpdate(ctx, "WELCOME10")
		require.NoError(t, err)
		assert.Equal(t, created.ID, code.ID)
		assert.Equal(t, uint64(100), code.Coins)
		assert.Equal(t, uint(1), code.UsesRemaining)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.GetByCodeForUpdate(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("disabled code reported as not found", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.RedeemCode{
			Code:          "DISABLED",
			Coins:         50,
			UsesRemaining: 5,
			Enabled:       false,
		})
		require.NoError(t, err)

		_, err = repo.GetByCodeForUpdate(ctx, "DISABLED")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})

	t.Run("soft-deleted code reported as not found", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.RedeemCode{
			Code:          "GONE",
			Coins:         50,
			UsesRemaining: 5,
			Enabled:       true,
		})
		require.NoError(t, err)

		err = repo.SoftDelete(ctx, "GONE")
		require.NoError(t, err)

		_, err = repo.GetByCodeForUpdate(ctx, "GONE")
		assert.ErrorIs(t, err, ErrCodeNotFound)
	})
}

func TestRedeemCodeRepository_ConsumeUse(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedeemCodeRepository(db)
	ctx := context.Background()

	t.Run("decrements down to zero then refuses", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.RedeemCode{
			Code:          "THREE",
			Coins:         10,
			UsesRemaining: 3,
			Enabled:       true,
		})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			err = repo.ConsumeUse(ctx, created.ID)
			assert.NoError(t, err)
		}

		err = repo.ConsumeUse(ctx, created.ID)
		assert.ErrorIs(t, err, ErrCodeExhausted)

		code, err := repo.GetByCode(ctx, "THREE")
		require.NoError(t, err)
		assert.Equal(t, uint(0), code.UsesRemaining)
	})

	t.Run("unknown code id", func(t *testing.T) {
		err := repo.ConsumeUse(ctx, 9999)
		assert.ErrorIs(t, err, ErrCodeExhausted)
	})
}

func TestRedeemCodeRepository_SetEnabled(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedeemCodeRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.RedeemCode{
		Code:          "TOGGLE",
		Coins:         10,
		UsesRemaining: 1,
		Enabled:       true,
	})
	require.NoError(t, err)

	err = repo.SetEnabled(ctx, "TOGGLE", false)
	assert.NoError(t, err)

	_, err = repo.GetByCodeForUpdate(ctx, "TOGGLE")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	err = repo.SetEnabled(ctx, "TOGGLE", true)
	assert.NoError(t, err)

	code, err := repo.GetByCodeForUpdate(ctx, "TOGGLE")
	require.NoError(t, err)
	assert.True(t, code.Enabled)

	err = repo.SetEnabled(ctx, "MISSING", true)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestRedeemCodeRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewRedeemCodeRepository(db)
	ctx := context.Background()

	for _, c := range []*model.RedeemCode{
		{Code: "A", Coins: 1, UsesRemaining: 1, Enabled: true},
		{Code: "B", Coins: 2, UsesRemaining: 1, Enabled: false},
		{Code: "C", Coins: 3, UsesRemaining: 1, Enabled: true},
	} {
		_, err := repo.Create(ctx, c)
		require.NoError(t, err)
	}
	require.NoError(t, repo.SoftDelete(ctx, "C"))

	codes, total, err := repo.List(ctx, RedeemCodeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, codes, 2)

	enabled := true
	codes, total, err = repo.List(ctx, RedeemCodeFilter{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, codes, 1)
	assert.Equal(t, "A", codes[0].Code)
}
