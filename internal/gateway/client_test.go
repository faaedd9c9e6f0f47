package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientCreateOrder(t *testing.T) {
	t.Run("accepted order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "/create-order", r.URL.Path)
			assert.Equal(t, "tok-123", r.FormValue("user_token"))
			assert.Equal(t, "500", r.FormValue("amount"))
			assert.Equal(t, "TPU1700000000001234", r.FormValue("order_id"))
			assert.Equal(t, "9876543210", r.FormValue("customer_mobile"))
			assert.Equal(t, "http://shop.local/redirect", r.FormValue("redirect_url"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":true,"message":"Order Created","result":{"orderId":"GW-77","payment_url":"https://pay.example.in/p/GW-77"}}`))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "tok-123", "http://shop.local/redirect", 5*time.Second)
		resp, err := c.CreateOrder(context.Background(), CreateOrderRequest{
			Amount:         500,
			OrderID:        "TPU1700000000001234",
			CustomerMobile: "9876543210",
			Remark1:        "wallet topup",
		})
		require.NoError(t, err)
		assert.True(t, resp.Accepted)
		assert.Equal(t, "GW-77", resp.OrderID)
		assert.Equal(t, "https://pay.example.in/p/GW-77", resp.PaymentURL)
	})

	t.Run("rejected order carries gateway message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":false,"message":"amount below merchant minimum"}`))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "tok-123", "http://shop.local/redirect", 5*time.Second)
		resp, err := c.CreateOrder(context.Background(), CreateOrderRequest{Amount: 1, OrderID: "TPU1"})
		require.NoError(t, err)
		assert.False(t, resp.Accepted)
		assert.Equal(t, "amount below merchant minimum", resp.Message)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "tok-123", "", 5*time.Second)
		_, err := c.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, OrderID: "TPU2"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("missing token fails before any call", func(t *testing.T) {
		c := NewHTTPClient("http://unused.invalid", "", "", 5*time.Second)
		_, err := c.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100, OrderID: "TPU3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestHTTPClientCheckStatus(t *testing.T) {
	t.Run("completed transaction", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "/check-order-status", r.URL.Path)
			assert.Equal(t, "TPU1700000000001234", r.FormValue("order_id"))

			w.Write([]byte(`{"status":true,"message":"Txn Found","result":{"txnStatus":"COMPLETED","utr":"UTR998877","payMode":"4","amount":"500"}}`))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "tok-123", "", 5*time.Second)
		resp, err := c.CheckStatus(context.Background(), "TPU1700000000001234")
		require.NoError(t, err)
		assert.True(t, resp.Found)
		assert.Equal(t, "COMPLETED", resp.TxnStatus)
		assert.Equal(t, "UTR998877", resp.UTR)
		assert.Equal(t, "4", resp.PayMode)
	})

	t.Run("context cancellation aborts the call", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		c := NewHTTPClient(srv.URL, "tok-123", "", 5*time.Second)
		_, err := c.CheckStatus(ctx, "TPU1")
		require.Error(t, err)
	})
}
