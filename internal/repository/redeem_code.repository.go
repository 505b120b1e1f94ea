package repository

import (
	"context"
	"errors"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrCodeNotFound  = errors.New("redeem code not found")
	ErrCodeExhausted = errors.New("redeem code has no uses left")
)

type RedeemCodeRepository struct {
	*pg.DB
}

func NewRedeemCodeRepository(db *pg.DB) *RedeemCodeRepository {
	return &RedeemCodeRepository{
		db,
	}
}

func (r *RedeemCodeRepository) Create(ctx context.Context, code *model.RedeemCode) (*model.RedeemCode, error) {
	entity := toRedeemCodeEntity(code)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toRedeemCodeModel(entity), nil
}

func (r *RedeemCodeRepository) GetByCode(ctx context.Context, code string) (*model.RedeemCode, error) {
	var entity RedeemCodeEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("code = ? AND deleted = ?", code, false).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	return toRedeemCodeModel(&entity), nil
}

// GetByCodeForUpdate fetches a redeemable code row under a row-level lock.
// Must run inside WithinTransaction; the lock is held until the surrounding
// transaction commits or rolls back, totally ordering concurrent redemption
// attempts on the same code. Disabled and soft-deleted codes are reported
// the same as missing ones.
func (r *RedeemCodeRepository) GetByCodeForUpdate(ctx context.Context, code string) (*model.RedeemCode, error) {
	var entity RedeemCodeEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ? AND enabled = ? AND deleted = ?", code, true, false).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	return toRedeemCodeModel(&entity), nil
}

// ConsumeUse decrements uses_remaining by one, guarded by uses_remaining > 0
// so the counter can never go negative even if the caller's lock scope ever
// regresses.
func (r *RedeemCodeRepository) ConsumeUse(ctx context.Context, codeID int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&RedeemCodeEntity{}).
		Where("id = ? AND uses_remaining > 0", codeID).
		Update("uses_remaining", gorm.Expr("uses_remaining - ?", 1))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCodeExhausted
	}

	return nil
}

func (r *RedeemCodeRepository) SetEnabled(ctx context.Context, code string, enabled bool) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&RedeemCodeEntity{}).
		Where("code = ? AND deleted = ?", code, false).
		Update("enabled", enabled)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCodeNotFound
	}

	return nil
}

func (r *RedeemCodeRepository) SoftDelete(ctx context.Context, code string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&RedeemCodeEntity{}).
		Where("code = ? AND deleted = ?", code, false).
		Update("deleted", true)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrCodeNotFound
	}

	return nil
}

type RedeemCodeFilter struct {
	Enabled *bool
	Limit   int
	Offset  int
}

func (r *RedeemCodeRepository) List(ctx context.Context, f RedeemCodeFilter) ([]*model.RedeemCode, int64, error) {
	q := r.Read(ctx).WithContext(ctx).
		Model(&RedeemCodeEntity{}).
		Where("deleted = ?", false)

	if f.Enabled != nil {
		q = q.Where("enabled = ?", *f.Enabled)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var entities []*RedeemCodeEntity
	if err := q.Order("id").Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toRedeemCodeModels(entities), total, nil
}
