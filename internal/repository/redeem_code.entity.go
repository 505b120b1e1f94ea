package repository

import (
	"github.com/mythicalsystems/dash-ledger/internal/model"
)

type RedeemCodeEntity struct {
	ID            int64  `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	Code          string `db:"code"           gorm:"column:code;not null;unique"`
	Coins         uint64 `db:"coins"          gorm:"column:coins;not null"`
	UsesRemaining uint   `db:"uses_remaining" gorm:"column:uses_remaining;not null;default:0"`
	Enabled       bool   `db:"enabled"        gorm:"column:enabled;not null;default:true"`
	Deleted       bool   `db:"deleted"        gorm:"column:deleted;not null;default:false"`
}

func (RedeemCodeEntity) TableName() string {
	return "redeem_codes"
}

func toRedeemCodeEntity(m *model.RedeemCode) *RedeemCodeEntity {
	if m == nil {
		return nil
	}
	return &RedeemCodeEntity{
		ID:            m.ID,
		Code:          m.Code,
		Coins:         m.Coins,
		UsesRemaining: m.UsesRemaining,
		Enabled:       m.Enabled,
		Deleted:       m.Deleted,
	}
}

func toRedeemCodeModel(e *RedeemCodeEntity) *model.RedeemCode {
	if e == nil {
		return nil
	}
	return &model.RedeemCode{
		ID:            e.ID,
		Code:          e.Code,
		Coins:         e.Coins,
		UsesRemaining: e.UsesRemaining,
		Enabled:       e.Enabled,
		Deleted:       e.Deleted,
	}
}

func toRedeemCodeModels(entities []*RedeemCodeEntity) []*model.RedeemCode {
	if entities == nil {
		return nil
	}
	models := make([]*model.RedeemCode, len(entities))
	for i, e := range entities {
		models[i] = toRedeemCodeModel(e)
	}
	return models
}
