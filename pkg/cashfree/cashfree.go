// Package cashfree wraps the Cashfree payment gateway's order endpoints.
// The client is stateless: every call is parameterized by the resolved
// credentials for the active mode, and errors are returned, never panicked,
// so the checkout orchestrator keeps a uniform control flow.
package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"chronoshop/internal/logger"
)

// Documented API hosts per mode.
const (
	SandboxBaseURL = "https://sandbox.cashfree.com/pg"
	LiveBaseURL    = "https://api.cashfree.com/pg"

	// APIVersion is sent on every request via the x-api-version header.
	APIVersion = "2023-08-01"
)

// Gateway order status reported as paid.
const OrderStatusPaid = "PAID"

// BaseURLForMode maps a mode name to the gateway host.
func BaseURLForMode(mode string) string {
	if mode == "live" {
		return LiveBaseURL
	}
	return SandboxBaseURL
}

// Config holds resolved credentials for one mode.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// APIError is a non-2xx response from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cashfree: status %d: %s", e.StatusCode, e.Message)
}

// CustomerDetails identifies the paying customer on a hosted session.
type CustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// CreateOrderRequest is the POST /orders payload.
type CreateOrderRequest struct {
	OrderAmount     float64         `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	OrderID         string          `json:"order_id"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	OrderMeta       OrderMeta       `json:"order_meta"`
}

// OrderMeta carries the hosted-checkout return URL. The {order_id} template
// is substituted by the gateway on redirect.
type OrderMeta struct {
	ReturnURL string `json:"return_url"`
}

// CreateOrderResponse is the success payload of POST /orders.
type CreateOrderResponse struct {
	PaymentSessionID string `json:"payment_session_id"`
	OrderID          string `json:"order_id"`
}

// OrderStatus is the GET /orders/{id} payload, reduced to the fields the
// orchestrator consumes.
type OrderStatus struct {
	OrderID     string  `json:"order_id"`
	OrderStatus string  `json:"order_status"`
	OrderAmount float64 `json:"order_amount"`
}

// Paid reports whether the gateway considers the order settled.
func (s *OrderStatus) Paid() bool {
	return s.OrderStatus == OrderStatusPaid
}

// Client is a thin HTTP client for the gateway order endpoints.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a gateway client for one resolved mode.
func NewClient(cfg Config, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateOrder creates a hosted payment session for an order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	url := fmt.Sprintf("%s/orders", c.config.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Get().Error("Cashfree create order request failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("cashfree request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		logger.Get().Error("Cashfree create order rejected",
			zap.String("order_id", req.OrderID),
			zap.Int("status_code", apiErr.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	var result CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetOrder fetches the authoritative status of a gateway order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderStatus, error) {
	url := fmt.Sprintf("%s/orders/%s", c.config.BaseURL, orderID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cashfree request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var status OrderStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-client-id", c.config.ClientID)
	req.Header.Set("x-client-secret", c.config.ClientSecret)
	req.Header.Set("x-api-version", APIVersion)
	req.Header.Set("Content-Type", "application/json")
}

func decodeError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		payload.Message = "API Error"
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
}
