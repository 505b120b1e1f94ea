package repository

import (
	"context"
	"errors"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type AccountRepository struct {
	*pg.DB
}

func NewAccountRepository(db *pg.DB) *AccountRepository {
	return &AccountRepository{
		db,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	entity := toAccountEntity(account)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toAccountModel(entity), nil
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (*model.Account, error) {
	var entity AccountEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ? AND deleted = ?", id, false).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return toAccountModel(&entity), nil
}

// Debit decrements the balance with a single conditional UPDATE. No row lock
// is taken; the statement's own atomicity is the only guard, and the
// affected-row count decides the outcome. A missing account and an
// insufficient balance are indistinguishable here and both report
// ErrInsufficientFunds.
func (r *AccountRepository) Debit(ctx context.Context, accountID int64, amount uint64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("id = ? AND credits >= ? AND deleted = ?", accountID, amount, false).
		Update("credits", gorm.Expr("credits - ?", amount))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrInsufficientFunds
	}

	return nil
}

// Credit is an unconditional additive increment. It fails only when the
// account row does not exist (or is soft-deleted).
func (r *AccountRepository) Credit(ctx context.Context, accountID int64, amount uint64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("id = ? AND deleted = ?", accountID, false).
		Update("credits", gorm.Expr("credits + ?", amount))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *AccountRepository) GetBalance(ctx context.Context, accountID int64) (uint64, error) {
	var entity AccountEntity
	err := r.Read(ctx).WithContext(ctx).
		Select("credits").
		Where("id = ? AND deleted = ?", accountID, false).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}

	return entity.Credits, nil
}

func (r *AccountRepository) SoftDelete(ctx context.Context, accountID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("id = ? AND deleted = ?", accountID, false).
		Update("deleted", true)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}
