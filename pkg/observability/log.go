package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every event to a structured logger. Cache traffic and HTTP
// round trips are logged at debug level; failures and anomalies at warn.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks logging to logger, or to log.Default() when nil.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnCacheHit(_ context.Context, tier, key string) {
	h.logger.Debug("cache hit", "tier", tier, "key", key)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, key string) {
	h.logger.Debug("cache miss", "key", key)
}

func (h *LogHooks) OnCacheSet(_ context.Context, key string, size int) {
	h.logger.Debug("cache set", "key", key, "bytes", size)
}

func (h *LogHooks) OnCacheError(_ context.Context, op, key string, err error) {
	h.logger.Warn("durable cache error", "op", op, "key", key, "err", err)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("upstream request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("upstream response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("upstream error", "method", method, "host", host, "path", path, "err", err)
}

func (h *LogHooks) OnAnomaly(_ context.Context, a Anomaly) {
	h.logger.Warn("dropped release", "kind", a.Kind, "repo", a.Repo, "id", a.ReleaseID, "tag", a.Tag, "version", a.Version)
}

// Bundle returns h as every hook category.
func (h *LogHooks) Bundle() Hooks {
	return Hooks{Cache: h, HTTP: h, Anomaly: h}
}
