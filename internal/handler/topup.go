package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/auth"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/guard"
	"github.com/krishnacouponstore/code-sub002/internal/topup"
)

// TopupHandler handles wallet topup order creation and status polling.
type TopupHandler struct {
	topupSvc *topup.Service
	limiter  *guard.RateLimiter
}

// NewTopupHandler creates a new TopupHandler.
func NewTopupHandler(topupSvc *topup.Service, limiter *guard.RateLimiter) *TopupHandler {
	return &TopupHandler{topupSvc: topupSvc, limiter: limiter}
}

type createTopupRequest struct {
	Amount int64  `json:"amount"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

// CreateOrder handles POST /topups/order.
func (h *TopupHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		RespondError(w, domain.ErrUnauthorized("no auth context"))
		return
	}

	if res := h.limiter.Check(r.Context(), userID.String()); !res.Allowed {
		RespondError(w, domain.ErrRateLimited(res.Reason))
		return
	}

	var req createTopupRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondBadBody(w)
		return
	}

	result, err := h.topupSvc.CreateOrder(r.Context(), topup.CreateOrderParams{
		UserID: userID,
		Amount: req.Amount,
		Mobile: req.Mobile,
		Email:  req.Email,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]string{
		"order_id":    result.OrderID,
		"payment_url": result.PaymentURL,
		"check_link":  result.CheckLink,
	})
}

type checkStatusRequest struct {
	OrderID string `json:"order_id"`
}

// CheckStatus handles POST /topups/status. It polls the gateway and runs
// the poll result through the same reconciliation as the webhook.
func (h *TopupHandler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	var req checkStatusRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondBadBody(w)
		return
	}
	if req.OrderID == "" {
		RespondError(w, domain.ErrValidation("order_id is required"))
		return
	}

	result, err := h.topupSvc.CheckStatus(r.Context(), req.OrderID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"order_id":        req.OrderID,
		"status":          result.Status,
		"amount":          result.Amount,
		"utr":             result.UTR,
		"credited_amount": result.CreditedAmount,
		"message":         result.Message,
	})
}
