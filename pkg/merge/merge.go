package merge

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releasehub/pkg/discovery"
	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/observability"
	"github.com/matzehuels/releasehub/pkg/registry"
)

// ReleaseSource provides the releases of a registry entry.
type ReleaseSource interface {
	GetReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error)
}

// Release is a release annotated with the package identity extracted from
// its tag.
type Release struct {
	CleanName    string `json:"cleanName"`
	CleanVersion string `json:"cleanVersion"`
	github.Release
}

// ReleasesRepo is the authoritative home of a package.
type ReleasesRepo struct {
	Repository registry.Repository `json:"repository"`
	Package    discovery.Package   `json:"package"`
}

// PackageReleases is the merged history of one package.
type PackageReleases struct {
	ReleasesRepo ReleasesRepo `json:"releasesRepo"`
	Releases     []Release    `json:"releases"`
	// Unavailable lists "owner/name" of contributing repositories whose
	// releases could not be fetched.
	Unavailable []string `json:"unavailable,omitempty"`
}

// Engine merges releases across repositories.
type Engine struct {
	source      ReleaseSource
	hooks       observability.AnomalyHooks
	logger      *log.Logger
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnomalyHooks receives dropped releases.
func WithAnomalyHooks(h observability.AnomalyHooks) Option {
	return func(e *Engine) {
		if h != nil {
			e.hooks = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConcurrency bounds parallel fetches.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an Engine reading releases from source.
func NewEngine(source ReleaseSource, opts ...Option) *Engine {
	e := &Engine{
		source:      source,
		hooks:       observability.NoopAnomalyHooks{},
		logger:      log.Default(),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type contribution struct {
	repo     registry.Repository
	pkg      discovery.Package
	releases []versioned
	err      error
}

type versioned struct {
	name    string
	version *semver.Version
	raw     string
	release github.Release
}

// PackageReleases merges the releases of name across the discovered
// repositories publishing it. An unknown name yields a PACKAGE_NOT_FOUND
// error.
func (e *Engine) PackageReleases(ctx context.Context, name string, discovered []discovery.DiscoveredPackage) (*PackageReleases, error) {
	var contribs []*contribution
	for _, dp := range discovered {
		for _, p := range dp.Packages {
			if strings.EqualFold(p.Name, name) {
				contribs = append(contribs, &contribution{repo: dp.Repository, pkg: p})
				break
			}
		}
	}
	if len(contribs) == 0 {
		return nil, apperrors.New(apperrors.ErrCodePackageNotFound, "unknown package %q", name)
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, c := range contribs {
		g.Go(func() error {
			releases, err := e.source.GetReleases(ctx, c.repo)
			if err != nil {
				c.err = err
				return nil
			}
			c.releases = e.qualify(ctx, c.repo, name, releases)
			return nil
		})
	}
	g.Wait()

	out := &PackageReleases{Releases: []Release{}}
	var (
		errs   []error
		seen   = make(map[string]bool)
		newest *semver.Version
		found  bool
	)
	for _, c := range contribs {
		if c.err != nil {
			e.logger.Warn("repository unavailable", "package", name, "repo", c.repo.FullName(), "err", c.err)
			out.Unavailable = append(out.Unavailable, c.repo.FullName())
			errs = append(errs, c.err)
			continue
		}
		for _, v := range c.releases {
			if seen[v.raw] {
				continue
			}
			seen[v.raw] = true
			out.Releases = append(out.Releases, Release{CleanName: v.name, CleanVersion: v.raw, Release: v.release})
			if newest == nil || v.version.GreaterThan(newest) {
				newest = v.version
				out.ReleasesRepo = ReleasesRepo{Repository: c.repo, Package: c.pkg}
				found = true
			}
		}
	}

	if len(errs) == len(contribs) {
		return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, errors.Join(errs...), "releases of %q unavailable", name)
	}
	if !found {
		if len(errs) > 0 {
			return nil, apperrors.Wrap(apperrors.ErrCodeNetwork, errors.Join(errs...), "releases of %q unavailable", name)
		}
		return nil, apperrors.New(apperrors.ErrCodePackageNotFound, "package %q has no valid releases", name)
	}

	SortByTimestamp(out.Releases)
	return out, nil
}

// qualify drops anomalous and foreign releases and sorts the rest by
// version, highest first.
func (e *Engine) qualify(ctx context.Context, repo registry.Repository, name string, releases []github.Release) []versioned {
	var out []versioned
	for _, r := range releases {
		if r.TagName == "" {
			e.hooks.OnAnomaly(ctx, observability.Anomaly{
				Kind: observability.AnomalyEmptyTag, Repo: repo.FullName(), ReleaseID: r.ID,
			})
			continue
		}
		pkgName, version := repo.Strategy.ExtractMetadata(r.TagName)
		v, err := semver.StrictNewVersion(version)
		if err != nil {
			e.hooks.OnAnomaly(ctx, observability.Anomaly{
				Kind: observability.AnomalyInvalidSemver, Repo: repo.FullName(), ReleaseID: r.ID, Tag: r.TagName, Version: version,
			})
			continue
		}
		if !strings.EqualFold(pkgName, name) || !repo.Strategy.FilterRelease(r) {
			continue
		}
		out = append(out, versioned{name: pkgName, version: v, raw: version, release: r})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].version.GreaterThan(out[j].version) })
	return out
}

// AllPackagesReleases merges every discovered package and returns all
// releases, newest first. Packages whose releases are unavailable are
// skipped.
func (e *Engine) AllPackagesReleases(ctx context.Context, discovered []discovery.DiscoveredPackage) ([]Release, error) {
	names := discovery.UniqueNames(discovered)
	results := make([]*PackageReleases, len(names))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, name := range names {
		g.Go(func() error {
			pr, err := e.PackageReleases(ctx, name, discovered)
			switch {
			case apperrors.Is(err, apperrors.ErrCodePackageNotFound):
			case err != nil:
				e.logger.Warn("package skipped", "package", name, "err", err)
			default:
				results[i] = pr
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all := []Release{}
	for _, pr := range results {
		if pr != nil {
			all = append(all, pr.Releases...)
		}
	}
	SortByTimestamp(all)
	return all, nil
}

// SortByTimestamp orders releases newest first by published date, falling
// back to creation date.
func SortByTimestamp(releases []Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Timestamp().After(releases[j].Timestamp())
	})
}
