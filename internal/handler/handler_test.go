package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/krishnacouponstore/code-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- RespondJSON Tests ---

func TestRespondJSON(t *testing.T) {
	t.Run("200 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("204 with nil body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

// --- RespondError Tests ---

func TestRespondError(t *testing.T) {
	t.Run("AppError maps to correct status", func(t *testing.T) {
		tests := []struct {
			err        *domain.AppError
			wantStatus int
			wantCode   string
		}{
			{domain.ErrUserNotFound("123"), 404, "USER_NOT_FOUND"},
			{domain.ErrAccountBlocked(), 403, "ACCOUNT_BLOCKED"},
			{domain.ErrInsufficientFunds(100, 200), 400, "INSUFFICIENT_FUNDS"},
			{domain.ErrSlotNotFound("abc"), 404, "SLOT_NOT_FOUND"},
			{domain.ErrInsufficientStock(3), 409, "INSUFFICIENT_STOCK"},
			{domain.ErrAllocationRace(), 409, "ALLOCATION_RACE"},
			{domain.ErrTransactionNotFound("TPU1"), 404, "TRANSACTION_NOT_FOUND"},
			{domain.ErrGatewayRejected("nope"), 502, "GATEWAY_REJECTED"},
			{domain.ErrValidation("bad input"), 400, "VALIDATION_ERROR"},
			{domain.ErrUnauthorized("no token"), 401, "UNAUTHORIZED"},
			{domain.ErrRateLimited("slow down"), 429, "RATE_LIMITED"},
			{domain.ErrInternal("oops", nil), 500, "INTERNAL_ERROR"},
		}

		for _, tt := range tests {
			t.Run(tt.wantCode, func(t *testing.T) {
				w := httptest.NewRecorder()
				RespondError(w, tt.err)
				assert.Equal(t, tt.wantStatus, w.Code)

				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body["code"])
			})
		}
	})

	t.Run("generic error returns 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "INTERNAL_ERROR", body["code"])
		assert.Equal(t, "internal server error", body["message"])
	})
}

// --- DecodeJSON Tests ---

func TestDecodeJSON(t *testing.T) {
	t.Run("valid JSON body", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"test","value":42}`)
		r := httptest.NewRequest(http.MethodPost, "/", body)
		var dst struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		}
		require.NoError(t, DecodeJSON(r, &dst))
		assert.Equal(t, "test", dst.Name)
		assert.Equal(t, 42, dst.Value)
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		body := bytes.NewBufferString(`{invalid`)
		r := httptest.NewRequest(http.MethodPost, "/", body)
		var dst map[string]interface{}
		err := DecodeJSON(r, &dst)
		require.Error(t, err)
	})
}

// --- Middleware Tests ---

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates id when absent", func(t *testing.T) {
		var gotID string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = GetRequestID(r.Context())
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, gotID)
		assert.Equal(t, gotID, w.Header().Get("X-Request-ID"))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		var gotID string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID = GetRequestID(r.Context())
		}))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "req-42")
		h.ServeHTTP(httptest.NewRecorder(), r)
		assert.Equal(t, "req-42", gotID)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Recovery(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

// --- Webhook body parsing ---

func TestParseWebhookBody_JSON(t *testing.T) {
	body := `{
		"status": true,
		"message": "ok",
		"result": {
			"orderId": "TPU17000000000001234",
			"txnStatus": "COMPLETED",
			"utr": "UTR998877",
			"payMode": "4",
			"amount": "500"
		}
	}`
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := parseWebhookBody(r)
	require.NoError(t, err)
	assert.Equal(t, "TPU17000000000001234", p.OrderID)
	assert.Equal(t, "COMPLETED", p.TxnStatus)
	assert.Equal(t, "UTR998877", p.UTR)
	assert.Equal(t, "4", p.PayMode)
}

func TestParseWebhookBody_JSONTopLevelFields(t *testing.T) {
	// Some callbacks put everything at the top level.
	body := `{"status": "SUCCESS", "order_id": "TPU1", "message": "done"}`
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	p, err := parseWebhookBody(r)
	require.NoError(t, err)
	assert.Equal(t, "TPU1", p.OrderID)
	assert.Equal(t, "SUCCESS", p.TxnStatus)
	assert.Equal(t, "done", p.Message)
}

func TestParseWebhookBody_Form(t *testing.T) {
	form := "status=COMPLETED&order_id=TPU2&message=ok" +
		"&result%5BtxnStatus%5D=SUCCESS&result%5Butr%5D=UTR1&result%5BpayMode%5D=1"
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(form))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, err := parseWebhookBody(r)
	require.NoError(t, err)
	assert.Equal(t, "TPU2", p.OrderID)
	// Bracketed result keys win over the top-level status.
	assert.Equal(t, "SUCCESS", p.TxnStatus)
	assert.Equal(t, "UTR1", p.UTR)
	assert.Equal(t, "1", p.PayMode)
}

func TestParseWebhookBody_FormFallbacks(t *testing.T) {
	form := "status=FAILED&result%5BorderId%5D=TPU3"
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(form))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p, err := parseWebhookBody(r)
	require.NoError(t, err)
	assert.Equal(t, "TPU3", p.OrderID)
	assert.Equal(t, "FAILED", p.TxnStatus)
}

func TestParseWebhookBody_MalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(`{not json`))
	r.Header.Set("Content-Type", "application/json")

	_, err := parseWebhookBody(r)
	require.Error(t, err)
}
