package cache

import (
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned by a Store when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("cache store closed")
)

// NoExpiry is the TTL reported for keys stored without an expiration.
const NoExpiry time.Duration = -1
