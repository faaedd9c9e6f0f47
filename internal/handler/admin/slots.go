package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/handler"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
)

// SlotAdminHandler handles slot and inventory management.
type SlotAdminHandler struct {
	slots   repository.SlotRepository
	coupons repository.CouponRepository
	pool    repository.DBTX
}

// NewSlotAdminHandler creates a new SlotAdminHandler.
func NewSlotAdminHandler(slots repository.SlotRepository, coupons repository.CouponRepository, pool repository.DBTX) *SlotAdminHandler {
	return &SlotAdminHandler{slots: slots, coupons: coupons, pool: pool}
}

type createSlotRequest struct {
	StoreID uuid.UUID `json:"store_id"`
	Title   string    `json:"title"`
	Active  bool      `json:"active"`
}

// CreateSlot handles POST /admin/slots.
func (h *SlotAdminHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondBadBody(w)
		return
	}
	if req.Title == "" {
		handler.RespondError(w, domain.ErrValidation("title is required"))
		return
	}

	slot := &domain.Slot{
		ID:      uuid.New(),
		StoreID: req.StoreID,
		Title:   req.Title,
		Active:  req.Active,
	}
	if err := h.slots.Create(r.Context(), h.pool, slot); err != nil {
		handler.RespondError(w, domain.ErrInternal("create slot", err))
		return
	}

	handler.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":     slot.ID,
		"title":  slot.Title,
		"active": slot.Active,
	})
}

// ListSlots handles GET /admin/slots.
func (h *SlotAdminHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.slots.List(r.Context(), h.pool, 200)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list slots", err))
		return
	}

	views := make([]map[string]interface{}, 0, len(slots))
	for _, s := range slots {
		views = append(views, map[string]interface{}{
			"id":              s.ID,
			"title":           s.Title,
			"available_stock": s.AvailableStock,
			"total_sold":      s.TotalSold,
			"active":          s.Active,
		})
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"slots": views})
}

type addTierRequest struct {
	MinQty    int64  `json:"min_qty"`
	MaxQty    *int64 `json:"max_qty"`
	UnitPrice int64  `json:"unit_price"`
}

// AddTier handles POST /admin/slots/{slotID}/tiers.
func (h *SlotAdminHandler) AddTier(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid slot id"))
		return
	}

	var req addTierRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondBadBody(w)
		return
	}
	if req.MinQty <= 0 || req.UnitPrice <= 0 {
		handler.RespondError(w, domain.ErrValidation("min_qty and unit_price must be positive"))
		return
	}
	if req.MaxQty != nil && *req.MaxQty < req.MinQty {
		handler.RespondError(w, domain.ErrValidation("max_qty must not be below min_qty"))
		return
	}

	slot, err := h.slots.FindByID(r.Context(), h.pool, slotID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("find slot", err))
		return
	}
	if slot == nil {
		handler.RespondError(w, domain.ErrSlotNotFound(slotID.String()))
		return
	}

	tier := &domain.PricingTier{
		ID:        uuid.New(),
		SlotID:    slotID,
		MinQty:    req.MinQty,
		MaxQty:    req.MaxQty,
		UnitPrice: req.UnitPrice,
	}
	if err := h.slots.AddTier(r.Context(), h.pool, tier); err != nil {
		handler.RespondError(w, domain.ErrInternal("add tier", err))
		return
	}

	handler.RespondJSON(w, http.StatusCreated, map[string]interface{}{"id": tier.ID})
}

type uploadCouponsRequest struct {
	Codes []string `json:"codes"`
}

// UploadCoupons handles POST /admin/slots/{slotID}/coupons. Codes are
// loaded unclaimed and immediately become sellable stock.
func (h *SlotAdminHandler) UploadCoupons(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid slot id"))
		return
	}

	var req uploadCouponsRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.RespondBadBody(w)
		return
	}
	if len(req.Codes) == 0 {
		handler.RespondError(w, domain.ErrValidation("codes must not be empty"))
		return
	}
	for _, code := range req.Codes {
		if code == "" {
			handler.RespondError(w, domain.ErrValidation("codes must not contain empty strings"))
			return
		}
	}

	slot, err := h.slots.FindByID(r.Context(), h.pool, slotID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("find slot", err))
		return
	}
	if slot == nil {
		handler.RespondError(w, domain.ErrSlotNotFound(slotID.String()))
		return
	}

	inserted, err := h.coupons.BulkInsert(r.Context(), h.pool, slotID, req.Codes)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("bulk insert coupons", err))
		return
	}

	handler.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"inserted": inserted,
	})
}
