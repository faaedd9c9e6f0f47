package domain

import (
	"time"

	"github.com/google/uuid"
)

// TopupStatus is the internal tri-state for a wallet topup.
// pending -> success and pending -> failed are the only legal transitions;
// both targets are terminal.
type TopupStatus string

const (
	TopupPending TopupStatus = "pending"
	TopupSuccess TopupStatus = "success"
	TopupFailed  TopupStatus = "failed"
)

// IsTerminal reports whether the status permits no further transitions.
func (s TopupStatus) IsTerminal() bool {
	return s == TopupSuccess || s == TopupFailed
}

// PayMethod is the internal payment-method vocabulary.
type PayMethod string

const (
	PayIMPS PayMethod = "IMPS"
	PayNEFT PayMethod = "NEFT"
	PayRTGS PayMethod = "RTGS"
	PayUPI  PayMethod = "UPI"
)

// Topup is one wallet top-up attempt. OrderID is system-generated before
// the gateway call and doubles as the idempotency key for reconciliation.
// Amount is fixed at order-creation time; a callback can never change it.
type Topup struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Amount         int64
	OrderID        string
	Status         TopupStatus
	GatewayOrderID *string
	UTR            *string
	PayMethod      PayMethod
	VerifiedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Credited reports whether the wallet has already been credited for this
// topup. Checks both the status and the verification timestamp.
func (t *Topup) Credited() bool {
	return t.Status == TopupSuccess && t.VerifiedAt != nil
}
