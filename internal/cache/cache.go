package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache is the port implemented by cache providers. Its only consumer today
// is the Shiprocket bearer-token store; keep it narrow.
type Cache interface {
	// Get retrieves a value by key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Ping checks reachability.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
