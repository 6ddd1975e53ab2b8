// Package observability provides hooks for cache, HTTP and data-quality events.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Services receive a [Hooks] value at
// construction time and emit events through it; nothing is registered globally.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Inject custom implementations when services are built
//
// [LogHooks] forwards every event to a charmbracelet logger and [Counters]
// keeps in-memory totals that the server reports on its health endpoint.
// [Multi] fans events out to several implementations.
//
// # Usage
//
//	counters := &observability.Counters{}
//	hooks := observability.Multi(observability.NewLogHooks(logger), counters)
//	handler := cache.NewHandler(store, cache.WithHooks(hooks.Cache))
//
// Libraries call hooks to emit events:
//
//	h.Anomaly.OnAnomaly(ctx, observability.Anomaly{Kind: observability.AnomalyInvalidSemver, ...})
package observability

import (
	"context"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the two-tier cache handler.
type CacheHooks interface {
	// OnCacheHit records a hit. Tier is "memory" or "durable".
	OnCacheHit(ctx context.Context, tier, key string)

	// OnCacheMiss records a miss in both tiers.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a write of size bytes.
	OnCacheSet(ctx context.Context, key string, size int)

	// OnCacheError records a durable store failure that was swallowed.
	OnCacheError(ctx context.Context, op, key string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from upstream HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Anomaly Hooks
// =============================================================================

// AnomalyKind classifies release data that was dropped during merging.
type AnomalyKind string

const (
	AnomalyEmptyTag      AnomalyKind = "empty_tag"
	AnomalyInvalidSemver AnomalyKind = "invalid_semver"
)

// Anomaly describes a single malformed upstream record.
type Anomaly struct {
	Kind      AnomalyKind
	Repo      string // owner/name
	ReleaseID int64
	Tag       string
	Version   string
}

// AnomalyHooks receives reports about malformed upstream data.
type AnomalyHooks interface {
	OnAnomaly(ctx context.Context, a Anomaly)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)                 {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)             {}
func (NoopCacheHooks) OnCacheError(context.Context, string, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopAnomalyHooks is a no-op implementation of AnomalyHooks.
type NoopAnomalyHooks struct{}

func (NoopAnomalyHooks) OnAnomaly(context.Context, Anomaly) {}

// =============================================================================
// Bundle
// =============================================================================

// Hooks bundles the hook categories handed to services at construction.
type Hooks struct {
	Cache   CacheHooks
	HTTP    HTTPHooks
	Anomaly AnomalyHooks
}

// Noop returns a bundle whose hooks discard every event.
func Noop() Hooks {
	return Hooks{
		Cache:   NoopCacheHooks{},
		HTTP:    NoopHTTPHooks{},
		Anomaly: NoopAnomalyHooks{},
	}
}

// WithDefaults fills nil categories with no-op implementations.
func (h Hooks) WithDefaults() Hooks {
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	if h.Anomaly == nil {
		h.Anomaly = NoopAnomalyHooks{}
	}
	return h
}
