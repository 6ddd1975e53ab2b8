// Package refresh re-fetches the releases of every registered repository
// and folds the results into the discovered package set.
//
// A run is triggered by the cron endpoint or by the in-process loop
// started with [Refresher.Run].
package refresh

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/registry"
)

// ReleaseRefresher force-fetches releases past the cache.
type ReleaseRefresher interface {
	RefreshReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error)
}

// RepositoryUpdater replaces the discovered packages of a repository.
type RepositoryUpdater interface {
	UpdateRepository(ctx context.Context, owner, name string, releases []github.Release) error
}

// Report summarizes one run.
type Report struct {
	RunID     string            `json:"runId"`
	Started   time.Time         `json:"started"`
	Duration  time.Duration     `json:"duration"`
	Refreshed []string          `json:"refreshed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// Refresher runs refreshes over a registry.
type Refresher struct {
	registry    *registry.Registry
	source      ReleaseRefresher
	updater     RepositoryUpdater
	logger      *log.Logger
	concurrency int
	jitter      float64
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithConcurrency bounds parallel repository refreshes.
func WithConcurrency(n int) Option {
	return func(r *Refresher) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithJitter spreads loop ticks by up to the given fraction of the
// interval. Zero disables jitter.
func WithJitter(fraction float64) Option {
	return func(r *Refresher) {
		if fraction >= 0 && fraction < 1 {
			r.jitter = fraction
		}
	}
}

// New creates a Refresher.
func New(reg *registry.Registry, source ReleaseRefresher, updater RepositoryUpdater, opts ...Option) *Refresher {
	r := &Refresher{
		registry:    reg,
		source:      source,
		updater:     updater,
		logger:      log.Default(),
		concurrency: 4,
		jitter:      0.1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RefreshAll refreshes every unique repository of the registry. Failures
// are recorded per repository; the run itself only fails when ctx ends.
func (r *Refresher) RefreshAll(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Started: time.Now()}
	logger := r.logger.With("run", rep.RunID)
	logger.Info("refresh started", "repositories", len(r.registry.Unique()))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)
	for _, ref := range r.registry.Unique() {
		g.Go(func() error {
			err := r.refreshOne(ctx, ref)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("refresh failed", "repo", ref, "err", err)
				if rep.Failed == nil {
					rep.Failed = make(map[string]string)
				}
				rep.Failed[ref.String()] = err.Error()
				return nil
			}
			rep.Refreshed = append(rep.Refreshed, ref.String())
			return nil
		})
	}
	g.Wait()
	sort.Strings(rep.Refreshed)
	rep.Duration = time.Since(rep.Started)

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	logger.Info("refresh done", "refreshed", len(rep.Refreshed), "failed", len(rep.Failed),
		"took", rep.Duration.Round(time.Millisecond))
	return rep, nil
}

func (r *Refresher) refreshOne(ctx context.Context, ref registry.RepoRef) error {
	entries := r.registry.Find(ref.Owner, ref.Name)
	if len(entries) == 0 {
		return nil
	}
	releases, err := r.source.RefreshReleases(ctx, entries[0])
	if err != nil {
		return err
	}
	return r.updater.UpdateRepository(ctx, ref.Owner, ref.Name, releases)
}

// Run refreshes every interval, with jitter, until ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	r.logger.Info("refresh loop started", "interval", interval)
	for {
		timer := time.NewTimer(r.nextDelay(interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("refresh loop stopped")
			return
		case <-timer.C:
			if _, err := r.RefreshAll(ctx); err != nil {
				r.logger.Debug("refresh interrupted", "err", err)
			}
		}
	}
}

func (r *Refresher) nextDelay(interval time.Duration) time.Duration {
	if r.jitter == 0 {
		return interval
	}
	spread := float64(interval) * r.jitter
	return interval + time.Duration((rand.Float64()*2-1)*spread)
}
