package admin

import (
	"net/http"

	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/handler"
	"github.com/krishnacouponstore/code-sub002/internal/repository"
)

// ReportsHandler handles admin revenue reporting.
type ReportsHandler struct {
	purchases repository.PurchaseRepository
	topups    repository.TopupRepository
	pool      repository.DBTX
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(purchases repository.PurchaseRepository, topups repository.TopupRepository, pool repository.DBTX) *ReportsHandler {
	return &ReportsHandler{purchases: purchases, topups: topups, pool: pool}
}

// GetRevenueSummary handles GET /admin/reports/revenue.
func (h *ReportsHandler) GetRevenueSummary(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.purchases.RevenueSummary(r.Context(), h.pool)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("purchase revenue", err))
		return
	}

	credited, err := h.topups.CreditedSum(r.Context(), h.pool)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("credited topups", err))
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]int64{
		"purchase_revenue": revenue,
		"credited_topups":  credited,
	})
}
