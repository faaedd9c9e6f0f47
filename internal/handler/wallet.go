package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/auth"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
)

// WalletHandler serves wallet balance and topup history reads.
type WalletHandler struct {
	users  repository.UserRepository
	topups repository.TopupRepository
	pool   repository.DBTX
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(users repository.UserRepository, topups repository.TopupRepository, pool repository.DBTX) *WalletHandler {
	return &WalletHandler{users: users, topups: topups, pool: pool}
}

// GetBalance handles GET /wallet/balance.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		RespondError(w, domain.ErrUnauthorized("no auth context"))
		return
	}

	user, err := h.users.FindByID(r.Context(), h.pool, userID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find user", err))
		return
	}
	if user == nil {
		RespondError(w, domain.ErrUserNotFound(userID.String()))
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"balance":         user.Balance,
		"total_spent":     user.TotalSpent,
		"total_purchased": user.TotalPurchased,
	})
}

// ListTopups handles GET /wallet/topups.
func (h *WalletHandler) ListTopups(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		RespondError(w, domain.ErrUnauthorized("no auth context"))
		return
	}

	topups, err := h.topups.ListByUser(r.Context(), h.pool, userID, 100)
	if err != nil {
		RespondError(w, domain.ErrInternal("list topups", err))
		return
	}

	views := make([]map[string]interface{}, 0, len(topups))
	for _, t := range topups {
		views = append(views, map[string]interface{}{
			"order_id":   t.OrderID,
			"amount":     t.Amount,
			"status":     t.Status,
			"pay_method": t.PayMethod,
			"created_at": t.CreatedAt,
		})
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{"topups": views})
}
