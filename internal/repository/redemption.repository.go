package repository

import (
	"context"
	"errors"

	"github.com/mythicalsystems/dash-ledger/internal/model"
	"github.com/mythicalsystems/dash-ledger/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrAlreadyRedeemed    = errors.New("code already redeemed by this account")
	ErrRedemptionNotFound = errors.New("redemption not found")
)

type RedemptionRepository struct {
	*pg.DB
}

func NewRedemptionRepository(db *pg.DB) *RedemptionRepository {
	return &RedemptionRepository{
		db,
	}
}

// Exists reports whether a non-deleted redemption exists for the pair. Runs
// against the write handle so it sees rows inside the caller's transaction
// and honors the code-row lock ordering.
func (r *RedemptionRepository) Exists(ctx context.Context, codeID, accountID int64) (bool, error) {
	var count int64
	err := r.Write(ctx).WithContext(ctx).
		Model(&RedemptionEntity{}).
		Where("code_id = ? AND account_id = ? AND deleted = ?", codeID, accountID, false).
		Count(&count).
		Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Create inserts the redemption record. The partial unique index on
// (code_id, account_id) WHERE NOT deleted backs the application-level Exists
// check; a duplicate-key violation maps to ErrAlreadyRedeemed so both guards
// agree.
func (r *RedemptionRepository) Create(ctx context.Context, redemption *model.Redemption) (*model.Redemption, error) {
	entity := toRedemptionEntity(redemption)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRedeemed
		}
		return nil, err
	}

	return toRedemptionModel(entity), nil
}

func (r *RedemptionRepository) SoftDelete(ctx context.Context, id int64) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&RedemptionEntity{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrRedemptionNotFound
	}

	return nil
}

func (r *RedemptionRepository) ListByAccount(ctx context.Context, accountID int64) ([]*model.Redemption, error) {
	var entities []*RedemptionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("account_id = ? AND deleted = ?", accountID, false).
		Order("id").
		Find(&entities).
		Error

	if err != nil {
		return nil, err
	}

	return toRedemptionModels(entities), nil
}
