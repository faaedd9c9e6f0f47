package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxRunner executes fn inside one database transaction. An error from fn
// rolls the whole transaction back, so a multi-step settlement leaves no
// partial side effects.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// UserRepository provides access to the users table.
type UserRepository interface {
	// FindByID returns a user by ID, nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// FindByEmail returns a user by email, nil if absent.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) on the
	// user's wallet row. Must be called within a transaction.
	LockForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, db DBTX, user *domain.User) error

	// ApplyWalletDelta updates wallet columns with server-side arithmetic.
	// A debit (negative balance delta) is guarded in SQL: it matches only
	// rows where the account is not blocked and the balance covers the
	// debit. Returns nil if no row matched.
	ApplyWalletDelta(ctx context.Context, db DBTX, id uuid.UUID, delta domain.WalletDelta) (*domain.User, error)
}

// SlotRepository provides access to the slots and pricing_tiers tables.
type SlotRepository interface {
	// FindByID returns a slot with its pricing tiers, nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Slot, error)

	// Create inserts a slot.
	Create(ctx context.Context, db DBTX, slot *domain.Slot) error

	// AddTier inserts a pricing tier for a slot.
	AddTier(ctx context.Context, db DBTX, tier *domain.PricingTier) error

	// List returns active slots with tiers.
	List(ctx context.Context, db DBTX, limit int) ([]domain.Slot, error)

	// AdjustCounters moves quantity from available_stock to total_sold,
	// conditioned on available_stock covering the quantity. Returns the
	// number of rows updated (0 or 1).
	AdjustCounters(ctx context.Context, db DBTX, id uuid.UUID, quantity int64) (int64, error)
}

// CouponRepository provides access to the coupons table.
type CouponRepository interface {
	// CountUnclaimed returns the live count of unclaimed coupons in a slot.
	CountUnclaimed(ctx context.Context, db DBTX, slotID uuid.UUID) (int64, error)

	// ClaimBatch transitions up to quantity unclaimed coupons of the slot
	// to claimed, stamping owner, purchase and claim time. The claim is a
	// conditional update: rows already claimed by a concurrent purchase
	// are skipped, so the returned set may be shorter than quantity.
	ClaimBatch(ctx context.Context, db DBTX, slotID, userID, purchaseID uuid.UUID, quantity int64) ([]domain.AllocatedUnit, error)

	// BulkInsert loads unclaimed coupon codes into a slot.
	BulkInsert(ctx context.Context, db DBTX, slotID uuid.UUID, codes []string) (int64, error)

	// ListByPurchase returns the coupons owned by a purchase.
	ListByPurchase(ctx context.Context, db DBTX, purchaseID uuid.UUID) ([]domain.Coupon, error)
}

// PurchaseRepository provides access to the purchases table.
type PurchaseRepository interface {
	// Insert creates a purchase row. Returns a unique-violation error when
	// the order number collides; the caller retries with a fresh number.
	Insert(ctx context.Context, db DBTX, p *domain.Purchase) error

	// ListByUser returns a user's purchases, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Purchase, error)

	// RevenueSummary returns the total of completed purchases.
	RevenueSummary(ctx context.Context, db DBTX) (int64, error)
}

// TopupRepository provides access to the topups table.
type TopupRepository interface {
	// Insert creates a pending topup keyed by its order id.
	Insert(ctx context.Context, db DBTX, t *domain.Topup) error

	// FindByOrderID returns a topup by order id, nil if absent.
	FindByOrderID(ctx context.Context, db DBTX, orderID string) (*domain.Topup, error)

	// TransitionStatus persists the mapped status and gateway correlation
	// fields with a single conditional update that never touches a row
	// already in success. Returns the updated topup, or nil when the row
	// was already success (the idempotent no-op path).
	TransitionStatus(ctx context.Context, db DBTX, orderID string, status domain.TopupStatus, gatewayOrderID, utr *string, method domain.PayMethod) (*domain.Topup, error)

	// ListByUser returns a user's topups, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Topup, error)

	// CreditedSum returns the total amount of credited topups.
	CreditedSum(ctx context.Context, db DBTX) (int64, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the
	// money movement it describes).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error
}
