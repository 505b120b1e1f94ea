package model

// Transaction is one append-only ledger entry. A row is written for every
// applied debit and credit, inside the same database transaction as the
// balance change itself.
type Transaction struct {
	ID        int64  `json:"id"`
	AccountID int64  `json:"account_id"`
	Amount    uint64 `json:"amount"`
	Type      string `json:"type"` // "debit" | "credit"
	Reference string `json:"reference"`
}

func (Transaction) TableName() string { return "transactions" }
