package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
)

// orderNoAttempts bounds the retry loop on order-number collisions.
const orderNoAttempts = 5

// Engine settles purchases: it converts a wallet balance into claimed
// inventory units. Every settlement runs inside one database transaction,
// so an allocation race or a failed debit rolls back all prior steps and
// leaves no claimed-but-unpaid units behind.
type Engine struct {
	tx        repository.TxRunner
	users     repository.UserRepository
	slots     repository.SlotRepository
	coupons   repository.CouponRepository
	purchases repository.PurchaseRepository
	outbox    repository.OutboxRepository
	logger    *slog.Logger
}

// NewEngine creates a settlement engine with the given repositories.
func NewEngine(
	tx repository.TxRunner,
	users repository.UserRepository,
	slots repository.SlotRepository,
	coupons repository.CouponRepository,
	purchases repository.PurchaseRepository,
	outbox repository.OutboxRepository,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		tx:        tx,
		users:     users,
		slots:     slots,
		coupons:   coupons,
		purchases: purchases,
		outbox:    outbox,
		logger:    logger,
	}
}

// Settle executes one purchase.
// Pattern: Lock wallet → preconditions → insert purchase → claim units →
// debit wallet → adjust counters → outbox event, all in one transaction.
func (e *Engine) Settle(ctx context.Context, params domain.SettleParams) (*domain.SettleResult, error) {
	if err := domain.ValidateQuantity(params.Quantity); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidatePositiveAmount(params.TotalPrice); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if params.UnitPrice*params.Quantity != params.TotalPrice {
		return nil, domain.ErrValidation("total price does not match unit price and quantity")
	}

	// A 4-digit random suffix can collide within a day. A unique-violation
	// aborts the whole Postgres transaction, so the retry wraps the
	// transaction rather than the single insert.
	var result *domain.SettleResult
	var err error
	for attempt := 0; attempt < orderNoAttempts; attempt++ {
		err = e.tx.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
			r, txErr := e.settleTx(ctx, tx, params)
			if txErr != nil {
				return txErr
			}
			result = r
			return nil
		})
		if err == nil || !IsUniqueViolation(err) {
			break
		}
		e.logger.Warn("order number collision, retrying", "attempt", attempt+1)
	}
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, domain.ErrInternal("order number collision persisted across retries", err)
		}
		return nil, err
	}

	e.logger.Info("purchase settled",
		"purchase_id", result.PurchaseID,
		"order_no", result.OrderNo,
		"user_id", params.UserID,
		"slot_id", params.SlotID,
		"quantity", params.Quantity,
		"total_price", params.TotalPrice,
	)
	return result, nil
}

func (e *Engine) settleTx(ctx context.Context, tx repository.DBTX, params domain.SettleParams) (*domain.SettleResult, error) {
	// Lock the wallet row for the duration of the settlement, serializing
	// concurrent purchases by the same user.
	user, err := e.users.LockForUpdate(ctx, tx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound(params.UserID.String())
	}
	if user.Blocked {
		return nil, domain.ErrAccountBlocked()
	}
	if user.Balance < params.TotalPrice {
		return nil, domain.ErrInsufficientFunds(user.Balance, params.TotalPrice)
	}

	slot, err := e.slots.FindByID(ctx, tx, params.SlotID)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return nil, domain.ErrSlotNotFound(params.SlotID.String())
	}
	if slot.AvailableStock < params.Quantity {
		return nil, domain.ErrInsufficientStock(slot.AvailableStock)
	}

	// The stock counter is a cached aggregate; re-check the live unclaimed
	// rows so counter drift can never oversell.
	live, err := e.coupons.CountUnclaimed(ctx, tx, params.SlotID)
	if err != nil {
		return nil, fmt.Errorf("count unclaimed: %w", err)
	}
	if live < params.Quantity {
		return nil, domain.ErrInsufficientStock(live)
	}

	purchase, err := e.insertPurchase(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	units, err := e.coupons.ClaimBatch(ctx, tx, params.SlotID, params.UserID, purchase.ID, params.Quantity)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	if int64(len(units)) != params.Quantity {
		// A rival purchase won some of the rows between the count and the
		// claim. Rolling back the transaction releases everything.
		return nil, domain.ErrAllocationRace()
	}

	updated, err := e.users.ApplyWalletDelta(ctx, tx, params.UserID, domain.WalletDelta{
		Balance:        -params.TotalPrice,
		TotalSpent:     params.TotalPrice,
		TotalPurchased: params.Quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrInsufficientFunds(user.Balance, params.TotalPrice)
	}

	rows, err := e.slots.AdjustCounters(ctx, tx, params.SlotID, params.Quantity)
	if err != nil {
		return nil, fmt.Errorf("adjust counters: %w", err)
	}
	if rows == 0 {
		return nil, domain.ErrAllocationRace()
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewPurchaseCompletedEvent(purchase)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return &domain.SettleResult{
		PurchaseID: purchase.ID,
		OrderNo:    purchase.OrderNo,
		Units:      units,
		NewBalance: updated.Balance,
	}, nil
}

// insertPurchase creates the purchase row with a fresh order number.
// A unique-violation propagates up so the whole transaction retries.
func (e *Engine) insertPurchase(ctx context.Context, tx repository.DBTX, params domain.SettleParams) (*domain.Purchase, error) {
	purchase := &domain.Purchase{
		ID:         uuid.New(),
		UserID:     params.UserID,
		SlotID:     params.SlotID,
		Quantity:   params.Quantity,
		UnitPrice:  params.UnitPrice,
		TotalPrice: params.TotalPrice,
		OrderNo:    GenerateOrderNo(time.Now()),
		Status:     domain.PurchaseCompleted,
		Platform:   params.Platform,
	}
	if err := e.purchases.Insert(ctx, tx, purchase); err != nil {
		if IsUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	return purchase, nil
}
