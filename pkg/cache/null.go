package cache

import (
	"context"
	"time"
)

// NullStore is a no-op store that never keeps anything.
// Useful for --no-cache runs or when caching should be disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Get always returns a cache miss.
func (s *NullStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrCacheMiss
}

// Set does nothing.
func (s *NullStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// TTL always returns a cache miss.
func (s *NullStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, ErrCacheMiss
}

// Delete reports that nothing was deleted.
func (s *NullStore) Delete(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// Exists always reports false.
func (s *NullStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

var _ Store = (*NullStore)(nil)
