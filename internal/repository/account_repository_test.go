package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Debit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	t.Run("successful debit", func(t *testing.T) {
		account := &AccountEntity{
			ID:       1,
			Username: "alpha",
			Credits:  1000,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		err = repo.Debit(ctx, 1, 300)
		assert.NoError(t, err)

		balance, err := repo.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(700), balance)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		account := &AccountEntity{
			ID:       2,
			Username: "bravo",
			Credits:  100,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		err = repo.Debit(ctx, 2, 200)
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		balance, err := repo.GetBalance(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance)
	})

	t.Run("account not found reports insufficient funds", func(t *testing.T) {
		// a missing row and an insufficient balance are the same zero
		// affected-row outcome for the conditional UPDATE
		err := repo.Debit(ctx, 999, 100)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("exact balance debit", func(t *testing.T) {
		account := &AccountEntity{
			ID:       3,
			Username: "charlie",
			Credits:  250,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		err = repo.Debit(ctx, 3, 250)
		assert.NoError(t, err)

		balance, err := repo.GetBalance(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), balance)
	})

	t.Run("soft-deleted account cannot be debited", func(t *testing.T) {
		account := &AccountEntity{
			ID:       4,
			Username: "delta",
			Credits:  500,
			Deleted:  true,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		err = repo.Debit(ctx, 4, 100)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestAccountRepository_Credit(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	t.Run("successful credit", func(t *testing.T) {
		account := &AccountEntity{
			ID:       1,
			Username: "alpha",
			Credits:  500,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		err = repo.Credit(ctx, 1, 250)
		assert.NoError(t, err)

		balance, err := repo.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(750), balance)
	})

	t.Run("account not found", func(t *testing.T) {
		err := repo.Credit(ctx, 999, 100)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("multiple credits accumulate", func(t *testing.T) {
		account := &AccountEntity{
			ID:       2,
			Username: "bravo",
			Credits:  100,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		err = repo.Credit(ctx, 2, 50)
		assert.NoError(t, err)

		err = repo.Credit(ctx, 2, 75)
		assert.NoError(t, err)

		balance, err := repo.GetBalance(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(225), balance)
	})
}

func TestAccountRepository_GetBalance(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	t.Run("get existing balance", func(t *testing.T) {
		account := &AccountEntity{
			ID:       1,
			Username: "alpha",
			Credits:  1500,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		balance, err := repo.GetBalance(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, uint64(1500), balance)
	})

	t.Run("account not found", func(t *testing.T) {
		balance, err := repo.GetBalance(ctx, 999)
		assert.ErrorIs(t, err, ErrAccountNotFound)
		assert.Equal(t, uint64(0), balance)
	})

	t.Run("soft-deleted account is invisible", func(t *testing.T) {
		account := &AccountEntity{
			ID:       2,
			Username: "bravo",
			Credits:  300,
			Deleted:  true,
		}
		err := db.Write(ctx).Create(account).Error
		require.NoError(t, err)

		_, err = repo.GetBalance(ctx, 2)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAccountRepository_SoftDelete(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewAccountRepository(db)
	ctx := context.Background()

	account := &AccountEntity{
		ID:       1,
		Username: "alpha",
		Credits:  100,
	}
	err := db.Write(ctx).Create(account).Error
	require.NoError(t, err)

	err = repo.SoftDelete(ctx, 1)
	assert.NoError(t, err)

	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// row survives for reporting code that reads the flag directly
	var entity AccountEntity
	err = db.Write(ctx).Where("id = ?", 1).First(&entity).Error
	require.NoError(t, err)
	assert.True(t, entity.Deleted)

	err = repo.SoftDelete(ctx, 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
