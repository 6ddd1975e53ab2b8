package observability

import (
	"context"
	"time"
)

// Multi combines several bundles; each event is delivered to all of them in order.
func Multi(bundles ...Hooks) Hooks {
	var m multi
	for _, b := range bundles {
		b = b.WithDefaults()
		m.cache = append(m.cache, b.Cache)
		m.http = append(m.http, b.HTTP)
		m.anomaly = append(m.anomaly, b.Anomaly)
	}
	return Hooks{Cache: m, HTTP: m, Anomaly: m}
}

type multi struct {
	cache   []CacheHooks
	http    []HTTPHooks
	anomaly []AnomalyHooks
}

func (m multi) OnCacheHit(ctx context.Context, tier, key string) {
	for _, h := range m.cache {
		h.OnCacheHit(ctx, tier, key)
	}
}

func (m multi) OnCacheMiss(ctx context.Context, key string) {
	for _, h := range m.cache {
		h.OnCacheMiss(ctx, key)
	}
}

func (m multi) OnCacheSet(ctx context.Context, key string, size int) {
	for _, h := range m.cache {
		h.OnCacheSet(ctx, key, size)
	}
}

func (m multi) OnCacheError(ctx context.Context, op, key string, err error) {
	for _, h := range m.cache {
		h.OnCacheError(ctx, op, key, err)
	}
}

func (m multi) OnRequest(ctx context.Context, method, host, path string) {
	for _, h := range m.http {
		h.OnRequest(ctx, method, host, path)
	}
}

func (m multi) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	for _, h := range m.http {
		h.OnResponse(ctx, method, host, path, status, d)
	}
}

func (m multi) OnError(ctx context.Context, method, host, path string, err error) {
	for _, h := range m.http {
		h.OnError(ctx, method, host, path, err)
	}
}

func (m multi) OnAnomaly(ctx context.Context, a Anomaly) {
	for _, h := range m.anomaly {
		h.OnAnomaly(ctx, a)
	}
}
