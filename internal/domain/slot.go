package domain

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a finite-stock inventory pool of coupon codes inside a store.
// AvailableStock is a cached aggregate of the unclaimed coupon rows; the
// settlement engine treats it as advisory and always re-checks the live
// unclaimed count before claiming.
type Slot struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	Title          string
	AvailableStock int64
	TotalSold      int64
	Active         bool
	Tiers          []PricingTier
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PricingTier is one row of a slot's ordered quantity-based price list.
// MaxQty nil means the tier is unbounded above.
type PricingTier struct {
	ID        uuid.UUID
	SlotID    uuid.UUID
	MinQty    int64
	MaxQty    *int64
	UnitPrice int64
}

// PriceFor resolves the unit price for the given quantity from the tier
// list. Returns false if no tier covers the quantity.
func (s *Slot) PriceFor(quantity int64) (int64, bool) {
	for _, t := range s.Tiers {
		if quantity < t.MinQty {
			continue
		}
		if t.MaxQty != nil && quantity > *t.MaxQty {
			continue
		}
		return t.UnitPrice, true
	}
	return 0, false
}

// Coupon is a single sellable inventory unit. It is created unclaimed by an
// admin bulk upload and transitions to claimed exactly once, irreversibly,
// as part of a purchase.
type Coupon struct {
	ID         uuid.UUID
	SlotID     uuid.UUID
	Code       string
	Claimed    bool
	UserID     *uuid.UUID
	PurchaseID *uuid.UUID
	ClaimedAt  *time.Time
	CreatedAt  time.Time
}
