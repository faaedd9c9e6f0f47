package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/auth"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
	"github.com/krishnacouponstore/code-sub002/internal/settlement"
)

// PurchaseHandler handles purchase settlement and history endpoints.
type PurchaseHandler struct {
	engine    *settlement.Engine
	slots     repository.SlotRepository
	purchases repository.PurchaseRepository
	coupons   repository.CouponRepository
	pool      repository.DBTX
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(
	engine *settlement.Engine,
	slots repository.SlotRepository,
	purchases repository.PurchaseRepository,
	coupons repository.CouponRepository,
	pool repository.DBTX,
) *PurchaseHandler {
	return &PurchaseHandler{engine: engine, slots: slots, purchases: purchases, coupons: coupons, pool: pool}
}

type purchaseRequest struct {
	SlotID     uuid.UUID `json:"slot_id"`
	Quantity   int64     `json:"quantity"`
	UnitPrice  int64     `json:"unit_price"`
	TotalPrice int64     `json:"total_price"`
	Platform   string    `json:"platform"`
}

type purchaseData struct {
	PurchaseID       uuid.UUID              `json:"purchase_id"`
	OrderNumber      string                 `json:"order_number"`
	Codes            []domain.AllocatedUnit `json:"codes"`
	NewWalletBalance int64                  `json:"new_wallet_balance"`
}

// Create handles POST /purchases. The submitted unit price is verified
// against the slot's pricing tiers before anything moves, so a tampered
// client total can never settle.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		RespondError(w, domain.ErrUnauthorized("no auth context"))
		return
	}

	var req purchaseRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondBadBody(w)
		return
	}

	slot, err := h.slots.FindByID(r.Context(), h.pool, req.SlotID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find slot", err))
		return
	}
	if slot == nil || !slot.Active {
		RespondError(w, domain.ErrSlotNotFound(req.SlotID.String()))
		return
	}

	tierPrice, ok := slot.PriceFor(req.Quantity)
	if !ok {
		RespondError(w, domain.ErrValidation("no pricing tier covers the requested quantity"))
		return
	}
	if req.UnitPrice != tierPrice {
		RespondError(w, domain.ErrValidation("unit price does not match the slot's pricing tier"))
		return
	}

	result, err := h.engine.Settle(r.Context(), domain.SettleParams{
		UserID:     userID,
		SlotID:     req.SlotID,
		Quantity:   req.Quantity,
		UnitPrice:  req.UnitPrice,
		TotalPrice: req.TotalPrice,
		Platform:   req.Platform,
	})
	if err != nil {
		RespondJSON(w, errStatus(err), map[string]interface{}{
			"success": false,
			"error":   errBody(err),
		})
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": purchaseData{
			PurchaseID:       result.PurchaseID,
			OrderNumber:      result.OrderNo,
			Codes:            result.Units,
			NewWalletBalance: result.NewBalance,
		},
	})
}

// ListMine handles GET /purchases/me.
func (h *PurchaseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		RespondError(w, domain.ErrUnauthorized("no auth context"))
		return
	}

	purchases, err := h.purchases.ListByUser(r.Context(), h.pool, userID, 100)
	if err != nil {
		RespondError(w, domain.ErrInternal("list purchases", err))
		return
	}

	views := make([]purchaseView, 0, len(purchases))
	for _, p := range purchases {
		v := newPurchaseView(p)
		coupons, err := h.coupons.ListByPurchase(r.Context(), h.pool, p.ID)
		if err != nil {
			RespondError(w, domain.ErrInternal("list purchase codes", err))
			return
		}
		for _, c := range coupons {
			v.Codes = append(v.Codes, domain.AllocatedUnit{ID: c.ID, Code: c.Code})
		}
		views = append(views, v)
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"purchases": views,
	})
}

type purchaseView struct {
	ID         uuid.UUID              `json:"id"`
	SlotID     uuid.UUID              `json:"slot_id"`
	Quantity   int64                  `json:"quantity"`
	UnitPrice  int64                  `json:"unit_price"`
	TotalPrice int64                  `json:"total_price"`
	OrderNo    string                 `json:"order_no"`
	Status     string                 `json:"status"`
	Codes      []domain.AllocatedUnit `json:"codes"`
	CreatedAt  string                 `json:"created_at"`
}

func newPurchaseView(p domain.Purchase) purchaseView {
	return purchaseView{
		ID:         p.ID,
		SlotID:     p.SlotID,
		Quantity:   p.Quantity,
		UnitPrice:  p.UnitPrice,
		TotalPrice: p.TotalPrice,
		OrderNo:    p.OrderNo,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func errStatus(err error) int {
	if appErr, ok := err.(*domain.AppError); ok {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

func errBody(err error) map[string]string {
	if appErr, ok := err.(*domain.AppError); ok {
		return map[string]string{"code": appErr.Code, "message": appErr.Message}
	}
	return map[string]string{"code": "INTERNAL_ERROR", "message": "internal server error"}
}
