package repository

import (
	"context"
	"testing"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	t.Run("create debit entry", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID: 1,
			Type:      "debit",
			Amount:    100,
			Reference: "purchase:server-slot",
		}

		created, err := repo.Create(ctx, txn)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, txn.AccountID, created.AccountID)
		assert.Equal(t, txn.Type, created.Type)
		assert.Equal(t, txn.Amount, created.Amount)
		assert.Equal(t, txn.Reference, created.Reference)
	})

	t.Run("create credit entry", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID: 2,
			Type:      "credit",
			Amount:    500,
			Reference: "redeem:WELCOME10",
		}

		created, err := repo.Create(ctx, txn)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "credit", created.Type)
	})
}

func TestTransactionRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		typ := "debit"
		if i%2 == 0 {
			typ = "credit"
		}
		_, err := repo.Create(ctx, &model.Transaction{
			AccountID: int64(1 + i%2),
			Type:      typ,
			Amount:    uint64(50 * (i + 1)),
		})
		require.NoError(t, err)
	}

	t.Run("filter by account", func(t *testing.T) {
		id := int64(1)
		items, total, err := repo.List(ctx, TransactionFilter{AccountID: &id})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 3)
	})

	t.Run("filter by type", func(t *testing.T) {
		typ := "debit"
		items, total, err := repo.List(ctx, TransactionFilter{Type: &typ})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("limit and offset", func(t *testing.T) {
		items, total, err := repo.List(ctx, TransactionFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, items, 2)
	})
}
