package repository

import (
	"github.com/mythicalsystems/dash-ledger/internal/model"
)

type AccountEntity struct {
	ID       int64  `db:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	Username string `db:"username" gorm:"column:username;not null;unique"`
	Credits  uint64 `db:"credits"  gorm:"column:credits;not null;default:0"`
	Deleted  bool   `db:"deleted"  gorm:"column:deleted;not null;default:false"`
}

func (AccountEntity) TableName() string {
	return "accounts"
}

func toAccountEntity(m *model.Account) *AccountEntity {
	if m == nil {
		return nil
	}
	return &AccountEntity{
		ID:       m.ID,
		Username: m.Username,
		Credits:  m.Credits,
		Deleted:  m.Deleted,
	}
}

func toAccountModel(e *AccountEntity) *model.Account {
	if e == nil {
		return nil
	}
	return &model.Account{
		ID:       e.ID,
		Username: e.Username,
		Credits:  e.Credits,
		Deleted:  e.Deleted,
	}
}
