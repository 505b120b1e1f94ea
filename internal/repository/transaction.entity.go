package repository

import (
	"github.com/mythicalsystems/dash-ledger/internal/model"
)

type TransactionEntity struct {
	ID        int64  `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	AccountID int64  `db:"account_id" gorm:"column:account_id;not null;index"`
	Amount    uint64 `db:"amount"     gorm:"column:amount;not null"`
	Type      string `db:"type"       gorm:"column:type;not null"`
	Reference string `db:"reference"  gorm:"column:reference"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:        m.ID,
		AccountID: m.AccountID,
		Amount:    m.Amount,
		Type:      m.Type,
		Reference: m.Reference,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:        e.ID,
		AccountID: e.AccountID,
		Amount:    e.Amount,
		Type:      e.Type,
		Reference: e.Reference,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}
