package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CreateOrderRequest carries the fields for a gateway order creation call.
type CreateOrderRequest struct {
	Amount         int64
	OrderID        string
	CustomerMobile string
	Remark1        string
	Remark2        string
}

// CreateOrderResponse is the gateway's answer to an order creation.
type CreateOrderResponse struct {
	Accepted   bool
	Message    string
	OrderID    string // gateway-assigned order id
	PaymentURL string
}

// StatusResponse is the gateway's answer to a status check.
type StatusResponse struct {
	Found      bool
	Message    string
	TxnStatus  string // raw gateway vocabulary, mapped by MapStatus
	UTR        string
	PayMode    string
	Amount     string
}

// Client is the outbound payment-gateway interface. The HTTP implementation
// talks to the third-party order API; tests substitute a fake.
type Client interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error)
	CheckStatus(ctx context.Context, orderID string) (*StatusResponse, error)
}

// HTTPClient talks to the gateway's form-urlencoded HTTP API.
type HTTPClient struct {
	baseURL     string
	userToken   string
	redirectURL string
	httpClient  *http.Client
}

// NewHTTPClient creates a gateway client with a bounded request timeout.
func NewHTTPClient(baseURL, userToken, redirectURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		userToken:   userToken,
		redirectURL: redirectURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// rawOrderResponse mirrors the gateway's create-order JSON envelope.
type rawOrderResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Result  struct {
		OrderID    string `json:"orderId"`
		PaymentURL string `json:"payment_url"`
	} `json:"result"`
}

// rawStatusResponse mirrors the gateway's check-status JSON envelope. The
// gateway is inconsistent about field encodings between this response and
// its webhook, so everything is read as strings here.
type rawStatusResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Result  struct {
		TxnStatus string `json:"txnStatus"`
		UTR       string `json:"utr"`
		PayMode   string `json:"payMode"`
		Amount    string `json:"amount"`
	} `json:"result"`
}

// CreateOrder submits an order to the gateway. A rejected order comes back
// with Accepted=false and the gateway's message; a transport failure is an
// error.
func (c *HTTPClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if c.userToken == "" {
		return nil, fmt.Errorf("gateway user token not configured")
	}

	form := url.Values{}
	form.Set("user_token", c.userToken)
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("order_id", req.OrderID)
	form.Set("customer_mobile", req.CustomerMobile)
	form.Set("redirect_url", c.redirectURL)
	form.Set("remark1", req.Remark1)
	form.Set("remark2", req.Remark2)

	var raw rawOrderResponse
	if err := c.postForm(ctx, "/create-order", form, &raw); err != nil {
		return nil, err
	}

	return &CreateOrderResponse{
		Accepted:   raw.Status,
		Message:    raw.Message,
		OrderID:    raw.Result.OrderID,
		PaymentURL: raw.Result.PaymentURL,
	}, nil
}

// CheckStatus polls the gateway for the current state of an order.
func (c *HTTPClient) CheckStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	if c.userToken == "" {
		return nil, fmt.Errorf("gateway user token not configured")
	}

	form := url.Values{}
	form.Set("user_token", c.userToken)
	form.Set("order_id", orderID)

	var raw rawStatusResponse
	if err := c.postForm(ctx, "/check-order-status", form, &raw); err != nil {
		return nil, err
	}

	return &StatusResponse{
		Found:     raw.Status,
		Message:   raw.Message,
		TxnStatus: raw.Result.TxnStatus,
		UTR:       raw.Result.UTR,
		PayMode:   raw.Result.PayMode,
		Amount:    raw.Result.Amount,
	}, nil
}

func (c *HTTPClient) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
