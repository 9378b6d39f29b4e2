package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxStatus string

const (
	StatusPending   TxStatus = "pending"
	StatusCompleted TxStatus = "completed"
	StatusFailed    TxStatus = "failed"
)

// Transaction is one payment attempt: created pending at initiation time and
// moved to a terminal status by the callback handler. Records synthesized
// during callback recovery are created directly in completed state.
type Transaction struct {
	ID                  string
	OwnerID             string // empty means no initiating user is known
	PhoneNumber         string
	Amount              decimal.Decimal
	Reference           string
	Description         string
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseCode        string
	ResponseDescription string
	CustomerMessage     string
	MpesaReceiptNumber  string
	CompletedAt         *time.Time
	Status              TxStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ValidTransition reports whether a status change is allowed. Both terminal
// states admit a re-application of the same state, which is what a replayed
// callback produces.
func ValidTransition(from, to TxStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted, StatusFailed:
		return to == from
	}
	return false
}
