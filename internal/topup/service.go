package topup

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/gateway"
	"github.com/krishnacouponstore/code-sub002/internal/guard"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
)

// orderIDPrefix heads every system-generated topup order id.
const orderIDPrefix = "TPU"

// gatewayKey is the circuit breaker key for the payment gateway.
const gatewayKey = "gateway"

// Bounds holds the configured topup amount limits in paise.
type Bounds struct {
	Min int64
	Max int64
}

// CreateOrderParams is the input for order creation.
type CreateOrderParams struct {
	UserID uuid.UUID
	Amount int64
	Mobile string
	Email  string
}

// CreateOrderResult is the successful outcome of order creation.
type CreateOrderResult struct {
	OrderID    string
	PaymentURL string
	CheckLink  string
}

// ReconcileResult is the outcome of one reconciliation pass.
type ReconcileResult struct {
	Status         domain.TopupStatus
	Amount         int64
	UTR            string
	CreditedAmount int64
	AlreadyFinal   bool
	Message        string
}

// Service is the topup reconciliation engine. Order creation persists a
// pending topup before the gateway call; reconciliation is one idempotent
// state transition shared by the webhook and the client poll.
type Service struct {
	tx      repository.TxRunner
	pool    repository.DBTX
	users   repository.UserRepository
	topups  repository.TopupRepository
	outbox  repository.OutboxRepository
	client  gateway.Client
	breaker *guard.CircuitBreaker
	bounds  Bounds
	logger  *slog.Logger
}

// NewService creates a topup service.
func NewService(
	tx repository.TxRunner,
	pool repository.DBTX,
	users repository.UserRepository,
	topups repository.TopupRepository,
	outbox repository.OutboxRepository,
	client gateway.Client,
	breaker *guard.CircuitBreaker,
	bounds Bounds,
	logger *slog.Logger,
) *Service {
	return &Service{
		tx:      tx,
		pool:    pool,
		users:   users,
		topups:  topups,
		outbox:  outbox,
		client:  client,
		breaker: breaker,
		bounds:  bounds,
		logger:  logger,
	}
}

// GenerateOrderID builds a globally-unique topup order id: prefix,
// millisecond timestamp and a 4-digit random suffix.
func GenerateOrderID(now time.Time) string {
	return fmt.Sprintf("%s%d%04d", orderIDPrefix, now.UnixMilli(), rand.Intn(10000))
}

// CreateOrder validates the request, persists a pending topup and submits
// the order to the gateway. The pending row is written before the gateway
// call so a webhook or poll can reconcile it even when the create-order
// response is lost or times out.
func (s *Service) CreateOrder(ctx context.Context, params CreateOrderParams) (*CreateOrderResult, error) {
	if err := domain.ValidateTopupAmount(params.Amount, s.bounds.Min, s.bounds.Max); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	mobile, err := domain.NormalizeMobile(params.Mobile)
	if err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if params.Email != "" {
		if err := domain.ValidateEmail(params.Email); err != nil {
			return nil, domain.ErrValidation(err.Error())
		}
	}

	user, err := s.users.FindByID(ctx, s.pool, params.UserID)
	if err != nil {
		return nil, domain.ErrInternal("find user", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound(params.UserID.String())
	}
	if user.Blocked {
		return nil, domain.ErrAccountBlocked()
	}

	record := &domain.Topup{
		ID:        uuid.New(),
		UserID:    params.UserID,
		Amount:    params.Amount,
		OrderID:   GenerateOrderID(time.Now()),
		Status:    domain.TopupPending,
		PayMethod: domain.PayUPI,
	}
	if err := s.topups.Insert(ctx, s.pool, record); err != nil {
		return nil, domain.ErrInternal("persist pending topup", err)
	}

	if res := s.breaker.Check(ctx, gatewayKey); !res.Allowed {
		return nil, domain.ErrGatewayUnavailable(fmt.Errorf("%s", res.Reason))
	}

	resp, err := s.client.CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:         params.Amount,
		OrderID:        record.OrderID,
		CustomerMobile: mobile,
		Remark1:        "wallet topup",
		Remark2:        params.Email,
	})
	if err != nil {
		// The pending row stays: a later webhook or poll can still
		// resolve an order the gateway accepted before the timeout.
		s.breaker.RecordFailure(gatewayKey)
		s.logger.Error("gateway create order failed", "order_id", record.OrderID, "error", err)
		return nil, domain.ErrGatewayUnavailable(err)
	}
	s.breaker.RecordSuccess(gatewayKey)

	if !resp.Accepted {
		return nil, domain.ErrGatewayRejected(resp.Message)
	}

	s.logger.Info("topup order created",
		"order_id", record.OrderID,
		"user_id", params.UserID,
		"amount", params.Amount,
	)
	return &CreateOrderResult{
		OrderID:    record.OrderID,
		PaymentURL: resp.PaymentURL,
		CheckLink:  "/topups/status",
	}, nil
}

// Reconcile brings a gateway-reported status into agreement with the stored
// topup exactly once. Both the webhook handler and the client poll call it;
// duplicate deliveries hit the idempotency short-circuit or the conditional
// update and credit nothing further.
func (s *Service) Reconcile(ctx context.Context, orderID, rawStatus, gatewayRef, rawPayMode string) (*ReconcileResult, error) {
	existing, err := s.topups.FindByOrderID(ctx, s.pool, orderID)
	if err != nil {
		return nil, domain.ErrInternal("find topup", err)
	}
	if existing == nil {
		return nil, domain.ErrTransactionNotFound(orderID)
	}

	// Idempotency short-circuit: already credited, return the cached
	// result without side effects.
	if existing.Credited() {
		return &ReconcileResult{
			Status:       existing.Status,
			Amount:       existing.Amount,
			UTR:          derefStr(existing.UTR),
			AlreadyFinal: true,
			Message:      "transaction already processed",
		}, nil
	}

	mapped := gateway.MapStatus(rawStatus)
	method := gateway.MapPaymentMethod(rawPayMode)

	var result *ReconcileResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var refPtr *string
		if gatewayRef != "" {
			refPtr = &gatewayRef
		}

		// Conditional update: never matches a row already in success, so
		// two concurrent callbacks cannot both credit.
		updated, err := s.topups.TransitionStatus(ctx, tx, orderID, mapped, nil, refPtr, method)
		if err != nil {
			return err
		}
		if updated == nil {
			// Concurrent winner credited first.
			result = &ReconcileResult{
				Status:       domain.TopupSuccess,
				Amount:       existing.Amount,
				AlreadyFinal: true,
				Message:      "transaction already processed",
			}
			return nil
		}

		result = &ReconcileResult{
			Status:  updated.Status,
			Amount:  updated.Amount,
			UTR:     derefStr(updated.UTR),
			Message: "status updated",
		}

		if mapped != domain.TopupSuccess {
			if mapped == domain.TopupFailed && existing.Status != domain.TopupFailed {
				if err := s.outbox.Insert(ctx, tx, domain.NewTopupEvent(updated)); err != nil {
					return fmt.Errorf("insert outbox event: %w", err)
				}
			}
			return nil
		}

		// First transition into success: credit the wallet by the stored
		// amount, never by anything the callback claims.
		credited, err := s.users.ApplyWalletDelta(ctx, tx, updated.UserID, domain.WalletDelta{
			Balance: updated.Amount,
		})
		if err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}
		if credited == nil {
			return domain.ErrInternal("credit target missing", nil)
		}

		if err := s.outbox.Insert(ctx, tx, domain.NewTopupEvent(updated)); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}

		result.CreditedAmount = updated.Amount
		result.Message = "wallet credited"
		return nil
	})
	if err != nil {
		if appErr, ok := err.(*domain.AppError); ok {
			return nil, appErr
		}
		return nil, domain.ErrInternal("reconcile topup", err)
	}

	if result.CreditedAmount > 0 {
		s.logger.Info("topup credited",
			"order_id", orderID,
			"amount", result.CreditedAmount,
		)
	}
	return result, nil
}

// CheckStatus polls the gateway for the order's current state and feeds the
// answer through the same reconciliation path the webhook uses.
func (s *Service) CheckStatus(ctx context.Context, orderID string) (*ReconcileResult, error) {
	existing, err := s.topups.FindByOrderID(ctx, s.pool, orderID)
	if err != nil {
		return nil, domain.ErrInternal("find topup", err)
	}
	if existing == nil {
		return nil, domain.ErrTransactionNotFound(orderID)
	}
	if existing.Credited() {
		return &ReconcileResult{
			Status:       existing.Status,
			Amount:       existing.Amount,
			UTR:          derefStr(existing.UTR),
			AlreadyFinal: true,
			Message:      "transaction already processed",
		}, nil
	}

	if res := s.breaker.Check(ctx, gatewayKey); !res.Allowed {
		return nil, domain.ErrGatewayUnavailable(fmt.Errorf("%s", res.Reason))
	}

	resp, err := s.client.CheckStatus(ctx, orderID)
	if err != nil {
		s.breaker.RecordFailure(gatewayKey)
		return nil, domain.ErrGatewayUnavailable(err)
	}
	s.breaker.RecordSuccess(gatewayKey)

	if !resp.Found {
		// The gateway does not know the order yet (create-order response
		// may have been lost). Leave the row pending.
		return &ReconcileResult{
			Status:  existing.Status,
			Amount:  existing.Amount,
			Message: resp.Message,
		}, nil
	}

	return s.Reconcile(ctx, orderID, resp.TxnStatus, resp.UTR, resp.PayMode)
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
