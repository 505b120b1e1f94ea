package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	KindDebit        = "ledger.debit"
	KindCredit       = "ledger.credit"
	KindCodeRedeemed = "code.redeemed"
	KindItemGranted  = "item.granted"
)

// Event is the ledger change notification published after a balance or
// redemption mutation committed. Delivery is at-least-once; consumers must
// deduplicate on ID.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	AccountID  int64     `json:"account_id"`
	CodeID     int64     `json:"code_id,omitempty"`
	Amount     uint64    `json:"amount,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(kind string, accountID int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		AccountID:  accountID,
		OccurredAt: time.Now().UTC(),
	}
}
