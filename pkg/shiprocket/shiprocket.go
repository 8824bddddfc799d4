// Package shiprocket wraps the Shiprocket logistics API: bearer-token
// acquisition with a persistent cache, and ad-hoc shipment creation with a
// single forced re-login retry on authentication failure.
package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"chronoshop/internal/logger"
)

const (
	// tokenValidity is how long a freshly issued token is trusted. The
	// provider issues ~10-day tokens; one day of margin absorbs clock skew
	// and early revocation.
	tokenValidity = 9 * 24 * time.Hour

	// expiryBuffer forces a refresh shortly before the recorded expiry so
	// in-flight requests never ride a token that lapses mid-call.
	expiryBuffer = 5 * time.Minute
)

// TokenStore persists the cached bearer token across processes. The provider
// login endpoint remains the source of truth; the store is only a cache.
type TokenStore interface {
	// Get returns the cached token and its expiry. An absent token is
	// reported as empty values with a nil error.
	Get(ctx context.Context) (token string, expiry time.Time, err error)

	// Save replaces the cached token.
	Save(ctx context.Context, token string, expiry time.Time) error
}

// Credentials are the account credentials used against /auth/login.
type Credentials struct {
	Email    string
	Password string
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shiprocket: status %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the provider rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Client talks to the Shiprocket external API.
type Client struct {
	baseURL    string
	creds      Credentials
	tokens     TokenStore
	httpClient *http.Client

	// mu serializes token refresh so concurrent requests seeing an expired
	// token trigger a single login rather than one each.
	mu sync.Mutex
}

// NewClient creates a Shiprocket client. tokens must not be nil.
func NewClient(baseURL string, creds Credentials, tokens TokenStore, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		creds:      creds,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// login authenticates against the provider and stores the fresh token.
func (c *Client) login(ctx context.Context) (string, error) {
	if c.creds.Email == "" || c.creds.Password == "" {
		return "", fmt.Errorf("shiprocket credentials are not configured")
	}

	body, err := json.Marshal(map[string]string{
		"email":    c.creds.Email,
		"password": c.creds.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login request: %w", err)
	}

	logger.Get().Info("Authenticating with Shiprocket")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("shiprocket login failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeError(resp)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if result.Token == "" {
		return "", fmt.Errorf("shiprocket login returned an empty token")
	}

	expiry := time.Now().Add(tokenValidity)
	if err := c.tokens.Save(ctx, result.Token, expiry); err != nil {
		// A failed cache write is not fatal: the token is still usable for
		// this operation, the next one just logs in again.
		logger.Get().Warn("Failed to persist Shiprocket token", zap.Error(err))
	}
	return result.Token, nil
}

// getToken returns a valid bearer token, reusing the cached one while it has
// more than expiryBuffer of life left.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, expiry, err := c.tokens.Get(ctx)
	if err != nil {
		logger.Get().Warn("Failed to read cached Shiprocket token", zap.Error(err))
	}
	if token != "" && time.Until(expiry) > expiryBuffer {
		return token, nil
	}
	return c.login(ctx)
}

// forceLogin discards the cached token and logs in again.
func (c *Client) forceLogin(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

// CreateOrder submits an ad-hoc shipment. On a 401 the client performs
// exactly one forced re-login and one retry; a second rejection (or any
// other provider error) is propagated to the caller.
func (c *Client) CreateOrder(ctx context.Context, req ShipmentRequest) (*ShipmentResponse, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.submitOrder(ctx, req, token)
	if err == nil {
		return resp, nil
	}

	apiErr, ok := err.(*APIError)
	if !ok || !apiErr.Unauthorized() {
		return nil, err
	}

	logger.Get().Warn("Shiprocket token rejected, refreshing and retrying once",
		zap.String("order_id", req.OrderID),
	)
	token, err = c.forceLogin(ctx)
	if err != nil {
		return nil, err
	}
	return c.submitOrder(ctx, req, token)
}

func (c *Client) submitOrder(ctx context.Context, req ShipmentRequest, token string) (*ShipmentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal shipment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/create/ad-hoc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("shiprocket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var result ShipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode shipment response: %w", err)
	}
	return &result, nil
}

func decodeError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Message == "" {
		payload.Message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Message}
}
