package model

// PurchaseResult carries the outcome of a purchase. Required/Available are
// populated on an insufficient-funds decline so callers can show a quote.
type PurchaseResult struct {
	Remaining uint64 `json:"remaining"`
	Required  uint64 `json:"required,omitempty"`
	Available uint64 `json:"available,omitempty"`
}

type RedemptionResult struct {
	CodeID   int64  `json:"code_id"`
	Coins    uint64 `json:"coins"`
	UsesLeft uint   `json:"uses_left"`
}

// ValidationResult is advisory only: the lock it was computed under is
// released before the caller can act on it.
type ValidationResult struct {
	CodeID          int64  `json:"code_id"`
	Coins           uint64 `json:"coins"`
	UsesLeft        uint   `json:"uses_left"`
	AlreadyRedeemed bool   `json:"already_redeemed"`
	CanRedeem       bool   `json:"can_redeem"`
}

type LeaderboardEntry struct {
	AccountID int64 `json:"account_id"`
	Coins     int64 `json:"coins"`
}
