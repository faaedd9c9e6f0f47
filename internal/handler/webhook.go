package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/krishnacouponstore/code-sub002/internal/topup"
)

// WebhookHandler handles payment gateway callbacks.
type WebhookHandler struct {
	topupSvc *topup.Service
	logger   *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(topupSvc *topup.Service, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{topupSvc: topupSvc, logger: logger}
}

// webhookPayload is the normalized callback regardless of content type.
// The gateway sends JSON or form-urlencoded depending on its mood; the
// form encoding addresses nested fields as bracketed result[...] keys.
type webhookPayload struct {
	OrderID   string
	TxnStatus string
	UTR       string
	PayMode   string
	Message   string
}

// HandlePaymentWebhook handles POST /webhooks/payment.
// Mounted outside the JSON middleware: the body may be form-urlencoded.
// Always answers 200 on success paths, including idempotent replays, so
// the gateway stops retrying.
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	payload, err := parseWebhookBody(r)
	if err != nil {
		h.logger.Warn("malformed webhook body", "error", err)
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed webhook body"})
		return
	}
	if payload.OrderID == "" {
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id is required"})
		return
	}

	result, err := h.topupSvc.Reconcile(r.Context(), payload.OrderID, payload.TxnStatus, payload.UTR, payload.PayMode)
	if err != nil {
		h.logger.Error("webhook reconcile failed",
			"order_id", payload.OrderID,
			"raw_status", payload.TxnStatus,
			"error", err,
		)
		if appErr, ok := err.(*domain.AppError); ok && appErr.Code == "TRANSACTION_NOT_FOUND" {
			RespondJSON(w, http.StatusNotFound, map[string]string{"error": appErr.Message})
			return
		}
		RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.logger.Info("webhook processed",
		"order_id", payload.OrderID,
		"status", result.Status,
		"credited_amount", result.CreditedAmount,
		"already_final", result.AlreadyFinal,
	)
	RespondJSON(w, http.StatusOK, map[string]string{"message": result.Message})
}

func parseWebhookBody(r *http.Request) (*webhookPayload, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		return parseJSONWebhook(r.Body)
	}
	return parseFormWebhook(r)
}

func parseJSONWebhook(body io.Reader) (*webhookPayload, error) {
	var raw struct {
		Status  json.RawMessage `json:"status"`
		OrderID string          `json:"order_id"`
		Message string          `json:"message"`
		Result  struct {
			OrderID   string `json:"orderId"`
			TxnStatus string `json:"txnStatus"`
			UTR       string `json:"utr"`
			PayMode   string `json:"payMode"`
			Amount    string `json:"amount"`
		} `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(&raw); err != nil {
		return nil, err
	}

	p := &webhookPayload{
		OrderID:   raw.OrderID,
		TxnStatus: raw.Result.TxnStatus,
		UTR:       raw.Result.UTR,
		PayMode:   raw.Result.PayMode,
		Message:   raw.Message,
	}
	if p.OrderID == "" {
		p.OrderID = raw.Result.OrderID
	}
	// Some callbacks only carry the raw status at the top level, encoded
	// as either a bare string or a boolean.
	if p.TxnStatus == "" && len(raw.Status) > 0 {
		p.TxnStatus = strings.Trim(string(raw.Status), `"`)
	}
	return p, nil
}

func parseFormWebhook(r *http.Request) (*webhookPayload, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}

	p := &webhookPayload{
		OrderID:   values.Get("order_id"),
		TxnStatus: values.Get("result[txnStatus]"),
		UTR:       values.Get("result[utr]"),
		PayMode:   values.Get("result[payMode]"),
		Message:   values.Get("message"),
	}
	if p.OrderID == "" {
		p.OrderID = values.Get("result[orderId]")
	}
	if p.TxnStatus == "" {
		p.TxnStatus = values.Get("status")
	}
	return p, nil
}
