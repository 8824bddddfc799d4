package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const tokenKey = "shiprocket_token"

// TokenStore keeps the Shiprocket bearer token in a Cache, expiring the
// entry alongside the token itself. It satisfies shiprocket.TokenStore.
type TokenStore struct {
	cache Cache
}

// NewTokenStore creates a cache-backed token store.
func NewTokenStore(c Cache) *TokenStore {
	return &TokenStore{cache: c}
}

type cachedToken struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// Get returns the cached token, or empty values when absent or expired.
func (s *TokenStore) Get(ctx context.Context) (string, time.Time, error) {
	raw, err := s.cache.Get(ctx, tokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, err
	}

	var entry cachedToken
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", time.Time{}, fmt.Errorf("corrupt cached token: %w", err)
	}
	return entry.Token, entry.Expiry, nil
}

// Save stores the token with a TTL matching its expiry.
func (s *TokenStore) Save(ctx context.Context, token string, expiry time.Time) error {
	raw, err := json.Marshal(cachedToken{Token: token, Expiry: expiry})
	if err != nil {
		return err
	}
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return fmt.Errorf("refusing to cache an already expired token")
	}
	return s.cache.Set(ctx, tokenKey, raw, ttl)
}
