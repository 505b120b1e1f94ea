package model

type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Credits  uint64 `json:"credits"`
	Deleted  bool   `json:"-"`
}

func (Account) TableName() string { return "accounts" }
