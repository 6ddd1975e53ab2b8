// Package app builds the releasehub services from a configuration.
//
// Every service is constructed once here and handed its dependencies
// explicitly; nothing is registered globally. The server, the refresh job
// and the CLI all start from [New].
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasehub/internal/config"
	"github.com/matzehuels/releasehub/pkg/cache"
	"github.com/matzehuels/releasehub/pkg/discovery"
	"github.com/matzehuels/releasehub/pkg/integrations"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/integrations/npm"
	"github.com/matzehuels/releasehub/pkg/merge"
	"github.com/matzehuels/releasehub/pkg/observability"
	"github.com/matzehuels/releasehub/pkg/registry"
	"github.com/matzehuels/releasehub/pkg/releases"
	"github.com/matzehuels/releasehub/pkg/tracker"
)

// AppName names the cache directory and the user agent.
const AppName = "releasehub"

// App holds the wired services.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Counters   *observability.Counters
	Cache      *cache.Handler
	Registry   *registry.Registry
	Source     *releases.Source
	Discoverer *discovery.Discoverer
	Merge      *merge.Engine
	Tracker    *tracker.Tracker
}

// Option overrides a dependency, mainly for tests.
type Option func(*deps)

type deps struct {
	store       cache.Store
	github      releases.GitHubAPI
	discussions releases.DiscussionAPI
	packages    releases.PackageRegistry
	registry    *registry.Registry
}

// WithStore replaces the configured durable store.
func WithStore(s cache.Store) Option { return func(d *deps) { d.store = s } }

// WithGitHub replaces the REST client.
func WithGitHub(gh releases.GitHubAPI) Option { return func(d *deps) { d.github = gh } }

// WithDiscussions replaces the GraphQL client.
func WithDiscussions(api releases.DiscussionAPI) Option {
	return func(d *deps) { d.discussions = api }
}

// WithPackageRegistry replaces the npm client.
func WithPackageRegistry(r releases.PackageRegistry) Option {
	return func(d *deps) { d.packages = r }
}

// WithRegistry replaces the repository registry.
func WithRegistry(r *registry.Registry) Option { return func(d *deps) { d.registry = r } }

// New wires the services described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}
	var d deps
	for _, opt := range opts {
		opt(&d)
	}

	counters := &observability.Counters{}
	hooks := observability.Multi(observability.NewLogHooks(logger).Bundle(), counters.Bundle())

	reg := d.registry
	if reg == nil {
		var err error
		if reg, err = loadRegistry(cfg.Registry.File); err != nil {
			return nil, err
		}
	}

	mode := cache.ModeProduction
	if cfg.Server.Dev {
		mode = cache.ModeDevelopment
	}
	store := d.store
	if store == nil && mode == cache.ModeProduction {
		var err error
		if store, err = OpenStore(ctx, cfg.Cache); err != nil {
			return nil, err
		}
	}
	handler := cache.NewHandler(store,
		cache.WithMode(mode),
		cache.WithHooks(hooks.Cache),
		cache.WithLogger(logger),
	)

	clientOpts := []integrations.ClientOption{integrations.WithHooks(hooks.HTTP)}
	gh := d.github
	if gh == nil {
		gh = github.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL, clientOpts...)
	}
	gql := d.discussions
	if gql == nil && cfg.GitHub.Token != "" {
		gql = github.NewGraphQLClient(ctx, cfg.GitHub.Token, cfg.GitHub.GraphQLURL, logger)
	}
	pkgs := d.packages
	if pkgs == nil && !cfg.NPM.Disabled {
		pkgs = npm.NewClient(cfg.NPM.RegistryURL, clientOpts...)
	}

	sourceOpts := []releases.Option{
		releases.WithLogger(logger),
		releases.WithConcurrency(cfg.Server.Concurrency),
	}
	if gql != nil {
		sourceOpts = append(sourceOpts, releases.WithDiscussions(gql))
	}
	if pkgs != nil {
		sourceOpts = append(sourceOpts, releases.WithPackageRegistry(pkgs))
	}
	if cfg.Cache.Scope != "" {
		sourceOpts = append(sourceOpts, releases.WithKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Scope)))
	}
	source := releases.NewSource(handler, gh, sourceOpts...)

	disc := discovery.New(reg, source,
		discovery.WithLogger(logger),
		discovery.WithConcurrency(cfg.Server.Concurrency),
	)
	engine := merge.NewEngine(source,
		merge.WithAnomalyHooks(hooks.Anomaly),
		merge.WithLogger(logger),
		merge.WithConcurrency(cfg.Server.Concurrency),
	)

	logger.Debug("services ready", "cache", mode, "repositories", reg.Len(), "discussions", gql != nil)
	return &App{
		Config:     cfg,
		Logger:     logger,
		Counters:   counters,
		Cache:      handler,
		Registry:   reg,
		Source:     source,
		Discoverer: disc,
		Merge:      engine,
		Tracker:    tracker.New(source, tracker.WithLogger(logger)),
	}, nil
}

// Close releases the durable store.
func (a *App) Close() error {
	return a.Cache.Close()
}

func loadRegistry(file string) (*registry.Registry, error) {
	if file == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(file)
}

// OpenStore connects the durable store selected by cfg.
func OpenStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return cache.NewRedisStore(ctx, cfg.RedisURL)
	case config.BackendMongo:
		return cache.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	case config.BackendFile:
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = CacheDir(); err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
		}
		return cache.NewFileStore(dir)
	case config.BackendMemory:
		return cache.NewMemoryStore(nil), nil
	case config.BackendNull:
		return cache.NewNullStore(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// CacheDir returns the XDG cache directory (~/.cache/releasehub/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
