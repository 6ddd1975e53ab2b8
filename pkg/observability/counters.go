package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// Counters keeps running totals of hook events. The zero value is ready to use.
type Counters struct {
	memoryHits  atomic.Int64
	durableHits atomic.Int64
	misses      atomic.Int64
	sets        atomic.Int64
	cacheErrors atomic.Int64
	requests    atomic.Int64
	httpErrors  atomic.Int64
	anomalies   atomic.Int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	MemoryHits  int64 `json:"memory_hits"`
	DurableHits int64 `json:"durable_hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	CacheErrors int64 `json:"cache_errors"`
	Requests    int64 `json:"upstream_requests"`
	HTTPErrors  int64 `json:"upstream_errors"`
	Anomalies   int64 `json:"anomalies"`
}

func (c *Counters) OnCacheHit(_ context.Context, tier, _ string) {
	if tier == "memory" {
		c.memoryHits.Add(1)
		return
	}
	c.durableHits.Add(1)
}

func (c *Counters) OnCacheMiss(context.Context, string)                 { c.misses.Add(1) }
func (c *Counters) OnCacheSet(context.Context, string, int)             { c.sets.Add(1) }
func (c *Counters) OnCacheError(context.Context, string, string, error) { c.cacheErrors.Add(1) }
func (c *Counters) OnRequest(context.Context, string, string, string)   { c.requests.Add(1) }
func (c *Counters) OnResponse(context.Context, string, string, string, int, time.Duration) {
}
func (c *Counters) OnError(context.Context, string, string, string, error) { c.httpErrors.Add(1) }
func (c *Counters) OnAnomaly(context.Context, Anomaly)                     { c.anomalies.Add(1) }

// Snapshot returns the current totals.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		MemoryHits:  c.memoryHits.Load(),
		DurableHits: c.durableHits.Load(),
		Misses:      c.misses.Load(),
		Sets:        c.sets.Load(),
		CacheErrors: c.cacheErrors.Load(),
		Requests:    c.requests.Load(),
		HTTPErrors:  c.httpErrors.Load(),
		Anomalies:   c.anomalies.Load(),
	}
}

// Bundle returns c as every hook category.
func (c *Counters) Bundle() Hooks {
	return Hooks{Cache: c, HTTP: c, Anomaly: c}
}
