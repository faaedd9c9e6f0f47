package domain

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus is the lifecycle state of a purchase.
type PurchaseStatus string

const (
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

// Purchase records one successful settlement. Immutable after creation
// except for status (refunds). Owns the coupons claimed for it.
type Purchase struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	SlotID     uuid.UUID
	Quantity   int64
	UnitPrice  int64
	TotalPrice int64
	OrderNo    string
	Status     PurchaseStatus
	Platform   string
	CreatedAt  time.Time
}

// SettleParams is the input to the settlement engine.
type SettleParams struct {
	UserID     uuid.UUID
	SlotID     uuid.UUID
	Quantity   int64
	UnitPrice  int64
	TotalPrice int64
	Platform   string
}

// AllocatedUnit is one claimed coupon returned to the buyer.
type AllocatedUnit struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// SettleResult is the outcome of a successful settlement.
type SettleResult struct {
	PurchaseID uuid.UUID
	OrderNo    string
	Units      []AllocatedUnit
	NewBalance int64
}
