package cache

import (
	"context"
	"time"
)

// Store is a durable key/value backend holding JSON documents with a TTL.
//
// Implementations report absent or expired keys with [ErrCacheMiss] and any
// other failure as an ordinary error; the [Handler] decides how failures
// affect callers.
type Store interface {
	// Get returns the JSON document stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores data under key. A ttl of zero or less stores it without expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// TTL returns the remaining lifetime of key, or [NoExpiry] for persistent keys.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backend's resources.
	Close() error
}
