package model

// RedeemCode is an administrator-issued code worth a fixed coin reward.
// A code is redeemable only while enabled, not deleted and UsesRemaining > 0.
type RedeemCode struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Coins         uint64 `json:"coins"`
	UsesRemaining uint   `json:"uses_remaining"`
	Enabled       bool   `json:"enabled"`
	Deleted       bool   `json:"-"`
}

func (RedeemCode) TableName() string { return "redeem_codes" }
