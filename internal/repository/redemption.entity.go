package repository

import (
	"github.com/mythicalsystems/dash-ledger/internal/model"
)

type RedemptionEntity struct {
	ID        int64 `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	CodeID    int64 `db:"code_id"    gorm:"column:code_id;not null;index"`
	AccountID int64 `db:"account_id" gorm:"column:account_id;not null;index"`
	Deleted   bool  `db:"deleted"    gorm:"column:deleted;not null;default:false"`
}

func (RedemptionEntity) TableName() string {
	return "redemptions"
}

func toRedemptionEntity(m *model.Redemption) *RedemptionEntity {
	if m == nil {
		return nil
	}
	return &RedemptionEntity{
		ID:        m.ID,
		CodeID:    m.CodeID,
		AccountID: m.AccountID,
		Deleted:   m.Deleted,
	}
}

func toRedemptionModel(e *RedemptionEntity) *model.Redemption {
	if e == nil {
		return nil
	}
	return &model.Redemption{
		ID:        e.ID,
		CodeID:    e.CodeID,
		AccountID: e.AccountID,
		Deleted:   e.Deleted,
	}
}

func toRedemptionModels(entities []*RedemptionEntity) []*model.Redemption {
	if entities == nil {
		return nil
	}
	models := make([]*model.Redemption, len(entities))
	for i, e := range entities {
		models[i] = toRedemptionModel(e)
	}
	return models
}
