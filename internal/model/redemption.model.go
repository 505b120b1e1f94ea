package model

// Redemption is the append-only proof that an account consumed a code.
// At most one non-deleted row may exist per (code, account) pair.
type Redemption struct {
	ID        int64 `json:"id"`
	CodeID    int64 `json:"code_id"`
	AccountID int64 `json:"account_id"`
	Deleted   bool  `json:"-"`
}

func (Redemption) TableName() string { return "redemptions" }
