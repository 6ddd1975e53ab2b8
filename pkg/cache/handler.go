package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasehub/pkg/observability"
)

// Mode selects how the Handler uses its durable store.
type Mode int

const (
	// ModeDevelopment keeps everything in the in-process mirror and never
	// contacts the durable store.
	ModeDevelopment Mode = iota

	// ModeProduction treats the durable store as the source of truth and
	// the mirror as a best-effort read-through copy.
	ModeProduction
)

func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "development"
}

// DriftTolerance is how far a mirrored expiry may differ from the durable
// store's before the mirror entry is considered stale.
const DriftTolerance = time.Second

// SweepInterval is the minimum time between scans that drop expired mirror
// entries. Scans run on writes.
const SweepInterval = time.Minute

// Handler is a two-tier cache: an in-process mirror in front of a durable
// [Store]. Values are JSON-encoded.
//
// Durable store failures never reach callers: reads degrade to misses and
// writes degrade to mirror-only entries, which are then served on their
// local expiry alone.
type Handler struct {
	store  Store
	mode   Mode
	now    func() time.Time
	hooks  observability.CacheHooks
	logger *log.Logger

	mu        sync.RWMutex
	mirror    map[string]entry
	lastSweep time.Time
}

type entry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
	durable   bool      // the durable store acknowledged this write
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Option configures a Handler.
type Option func(*Handler)

// WithMode sets the cache mode. The default is ModeDevelopment.
func WithMode(m Mode) Option { return func(h *Handler) { h.mode = m } }

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(h *Handler) { h.now = now } }

// WithHooks sets the event hooks.
func WithHooks(hooks observability.CacheHooks) Option {
	return func(h *Handler) {
		if hooks != nil {
			h.hooks = hooks
		}
	}
}

// WithLogger sets the logger used for swallowed errors.
func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a Handler over store. A nil store is replaced by a
// NullStore.
func NewHandler(store Store, opts ...Option) *Handler {
	if store == nil {
		store = NewNullStore()
	}
	h := &Handler{
		store:  store,
		mode:   ModeDevelopment,
		now:    time.Now,
		hooks:  observability.NoopCacheHooks{},
		logger: log.Default(),
		mirror: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mode returns the handler's mode.
func (h *Handler) Mode() Mode { return h.mode }

// Get decodes the value cached under key into v and reports whether it was found.
func (h *Handler) Get(ctx context.Context, key string, v any) bool {
	data, ok := h.GetRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		h.logger.Warn("discarding undecodable cache entry", "key", key, "err", err)
		h.evict(key)
		return false
	}
	return true
}

// GetRaw returns the JSON cached under key.
func (h *Handler) GetRaw(ctx context.Context, key string) ([]byte, bool) {
	now := h.now()

	if e, ok := h.lookup(key); ok {
		if h.fresh(ctx, key, e, now) {
			h.hooks.OnCacheHit(ctx, "memory", key)
			return e.data, true
		}
		h.evict(key)
	}

	if h.mode == ModeDevelopment {
		h.hooks.OnCacheMiss(ctx, key)
		return nil, false
	}

	data, err := h.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			h.storeError(ctx, "get", key, err)
		}
		h.hooks.OnCacheMiss(ctx, key)
		return nil, false
	}

	ttl, err := h.store.TTL(ctx, key)
	switch {
	case err == nil:
		h.remember(now, key, data, expiry(now, ttl), true)
	case !errors.Is(err, ErrCacheMiss):
		h.storeError(ctx, "ttl", key, err)
	}
	h.hooks.OnCacheHit(ctx, "durable", key)
	return data, true
}

// fresh decides whether a mirror entry may be served. Entries backed by the
// durable store must agree with its TTL within DriftTolerance.
func (h *Handler) fresh(ctx context.Context, key string, e entry, now time.Time) bool {
	if e.expired(now) {
		return false
	}
	if h.mode == ModeDevelopment || !e.durable {
		return true
	}
	ttl, err := h.store.TTL(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			h.storeError(ctx, "ttl", key, err)
		}
		return false
	}
	if ttl == NoExpiry {
		return e.expiresAt.IsZero()
	}
	if e.expiresAt.IsZero() {
		return false
	}
	drift := e.expiresAt.Sub(now.Add(ttl))
	return drift >= -DriftTolerance && drift <= DriftTolerance
}

// Set caches v under key for ttl. A ttl of zero or less never expires.
func (h *Handler) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("cannot encode cache value", "key", key, "err", err)
		return
	}
	h.SetRaw(ctx, key, data, ttl)
}

// SetRaw caches already-encoded JSON under key.
func (h *Handler) SetRaw(ctx context.Context, key string, data []byte, ttl time.Duration) {
	now := h.now()
	durable := false
	if h.mode == ModeProduction {
		if err := h.store.Set(ctx, key, data, ttl); err != nil {
			h.storeError(ctx, "set", key, err)
		} else {
			durable = true
		}
	}
	h.remember(now, key, data, expiry(now, ttl), durable)
	h.hooks.OnCacheSet(ctx, key, len(data))
}

// Delete removes key from both tiers. In production mode it reports the
// durable store's answer; in development mode whether the mirror held key.
func (h *Handler) Delete(ctx context.Context, key string) bool {
	inMirror := h.evict(key)
	if h.mode == ModeDevelopment {
		return inMirror
	}
	deleted, err := h.store.Delete(ctx, key)
	if err != nil {
		h.storeError(ctx, "delete", key, err)
		return false
	}
	return deleted
}

// Exists reports whether key is cached without decoding it.
func (h *Handler) Exists(ctx context.Context, key string) bool {
	if h.mode == ModeProduction {
		ok, err := h.store.Exists(ctx, key)
		if err == nil {
			return ok
		}
		h.storeError(ctx, "exists", key, err)
	}
	e, ok := h.lookup(key)
	return ok && !e.expired(h.now())
}

// Cached fills v from the cache or by calling fetch, storing the result for
// ttl. With refresh set, the cache is bypassed for the read. Errors from
// fetch are returned unchanged and nothing is cached.
func (h *Handler) Cached(ctx context.Context, key string, ttl time.Duration, refresh bool, v any, fetch func() error) error {
	if !refresh && h.Get(ctx, key, v) {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	h.Set(ctx, key, v, ttl)
	return nil
}

// Close closes the durable store.
func (h *Handler) Close() error {
	return h.store.Close()
}

func (h *Handler) lookup(key string) (entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.mirror[key]
	return e, ok
}

func (h *Handler) remember(now time.Time, key string, data []byte, expiresAt time.Time, durable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if now.Sub(h.lastSweep) >= SweepInterval {
		for k, e := range h.mirror {
			if e.expired(now) {
				delete(h.mirror, k)
			}
		}
		h.lastSweep = now
	}
	h.mirror[key] = entry{data: data, expiresAt: expiresAt, durable: durable}
}

func (h *Handler) evict(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.mirror[key]
	delete(h.mirror, key)
	return ok
}

func (h *Handler) storeError(ctx context.Context, op, key string, err error) {
	h.logger.Warn("durable cache unavailable", "op", op, "key", key, "err", err)
	h.hooks.OnCacheError(ctx, op, key, err)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
