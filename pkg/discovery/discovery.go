package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/integrations/npm"
	"github.com/matzehuels/releasehub/pkg/registry"
)

// ReleaseSource is the part of releases.Source used for discovery.
type ReleaseSource interface {
	GetReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error)
	GetDescriptions(ctx context.Context, owner, name string) (map[string]string, error)
	GetDeprecation(ctx context.Context, pkg string) (*npm.Deprecation, error)
}

// Package is one logical package published from a repository.
type Package struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Deprecated         bool   `json:"deprecated,omitempty"`
	DeprecationMessage string `json:"deprecation_message,omitempty"`
}

// DiscoveredPackage lists the packages of one registry entry.
type DiscoveredPackage struct {
	Repository registry.Repository `json:"repository"`
	Packages   []Package           `json:"packages"`
}

// Has reports whether the entry publishes name, ignoring case.
func (d DiscoveredPackage) Has(name string) bool {
	for _, p := range d.Packages {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// CategorizedEntry is a package together with the repository publishing it.
type CategorizedEntry struct {
	Repository registry.Repository `json:"repository"`
	Package    Package             `json:"package"`
}

// CategorizedPackage groups packages by repository category.
type CategorizedPackage struct {
	Category registry.Category  `json:"category"`
	Packages []CategorizedEntry `json:"packages"`
}

// Discoverer derives the logical packages of every registry entry from its
// release tags. Results are memoized until invalidated.
type Discoverer struct {
	registry    *registry.Registry
	source      ReleaseSource
	logger      *log.Logger
	concurrency int
	memo        *Memo[[]DiscoveredPackage]
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithConcurrency bounds how many repositories are discovered at once.
func WithConcurrency(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New creates a Discoverer over the entries of reg.
func New(reg *registry.Registry, source ReleaseSource, opts ...Option) *Discoverer {
	d := &Discoverer{
		registry:    reg,
		source:      source,
		logger:      log.Default(),
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.memo = NewMemo(d.discover)
	return d
}

// DiscoverAll runs a full discovery and replaces the memoized result.
func (d *Discoverer) DiscoverAll(ctx context.Context) error {
	found, err := d.discover(ctx)
	if err != nil {
		return err
	}
	d.memo.Set(found)
	return nil
}

// GetOrDiscover returns the memoized discovery, running it on first use.
func (d *Discoverer) GetOrDiscover(ctx context.Context) ([]DiscoveredPackage, error) {
	return d.memo.Get(ctx)
}

// GetOrDiscoverCategorized returns the discovery grouped by category, in
// registry order.
func (d *Discoverer) GetOrDiscoverCategorized(ctx context.Context) ([]CategorizedPackage, error) {
	found, err := d.GetOrDiscover(ctx)
	if err != nil {
		return nil, err
	}
	return Categorize(found), nil
}

// Invalidate forgets the memoized discovery.
func (d *Discoverer) Invalidate() { d.memo.Reset() }

// FindRepository returns the first entry publishing packageName.
func (d *Discoverer) FindRepository(ctx context.Context, packageName string) (registry.Repository, bool, error) {
	found, err := d.GetOrDiscover(ctx)
	if err != nil {
		return registry.Repository{}, false, err
	}
	for _, dp := range found {
		if dp.Has(packageName) {
			return dp.Repository, true, nil
		}
	}
	return registry.Repository{}, false, nil
}

// PackageNames returns the distinct package names in discovery order.
func (d *Discoverer) PackageNames(ctx context.Context) ([]string, error) {
	found, err := d.GetOrDiscover(ctx)
	if err != nil {
		return nil, err
	}
	return UniqueNames(found), nil
}

// UpdateRepository recomputes the packages of every entry for owner/name
// from releases and replaces those entries wholesale. Nothing happens when
// no discovery has run yet.
func (d *Discoverer) UpdateRepository(ctx context.Context, owner, name string, releases []github.Release) error {
	entries := d.registry.Find(owner, name)
	if len(entries) == 0 {
		return fmt.Errorf("repository %s/%s is not in the registry", owner, name)
	}

	updated := make([]DiscoveredPackage, len(entries))
	for i, repo := range entries {
		updated[i] = DiscoveredPackage{Repository: repo, Packages: d.describe(ctx, repo, packageNames(repo, releases))}
	}

	d.memo.Update(func(current []DiscoveredPackage) []DiscoveredPackage {
		next := make([]DiscoveredPackage, len(current))
		copy(next, current)
		for i := range next {
			for _, u := range updated {
				if next[i].Repository.Same(u.Repository) {
					next[i] = u
				}
			}
		}
		return next
	})
	return nil
}

func (d *Discoverer) discover(ctx context.Context) ([]DiscoveredPackage, error) {
	repos := d.registry.All()
	out := make([]DiscoveredPackage, len(repos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			releases, err := d.source.GetReleases(ctx, repo)
			if err != nil {
				return fmt.Errorf("discover %s: %w", repo.FullName(), err)
			}
			out[i] = DiscoveredPackage{Repository: repo, Packages: d.describe(ctx, repo, packageNames(repo, releases))}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Info("packages discovered", "repositories", len(out), "packages", len(UniqueNames(out)))
	return out, nil
}

// packageNames maps filtered release tags to distinct, non-empty package
// names in order of first appearance.
func packageNames(repo registry.Repository, releases []github.Release) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range releases {
		if !repo.Strategy.FilterRelease(r) {
			continue
		}
		name, _ := repo.Strategy.ExtractMetadata(r.TagName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// describe attaches descriptions and deprecation state. Lookup failures
// leave the description empty and the package not deprecated.
func (d *Discoverer) describe(ctx context.Context, repo registry.Repository, names []string) []Package {
	descriptions, err := d.source.GetDescriptions(ctx, repo.Owner, repo.Name)
	if err != nil {
		d.logger.Warn("descriptions unavailable", "repo", repo.FullName(), "err", err)
	}

	pkgs := make([]Package, 0, len(names))
	for _, name := range names {
		p := Package{Name: name}
		for _, path := range repo.PackageJSONPaths(name) {
			if desc, ok := descriptions[path]; ok {
				p.Description = desc
				break
			}
		}

		dep, err := d.source.GetDeprecation(ctx, name)
		switch {
		case err != nil:
			d.logger.Debug("deprecation lookup failed", "package", name, "err", err)
		case dep.Deprecated:
			p.Deprecated = true
			p.DeprecationMessage = dep.Message
			p.Description = ""
		}
		pkgs = append(pkgs, p)
	}
	return pkgs
}

// Categorize groups discovered packages by category, keeping the order in
// which categories and packages first appear.
func Categorize(found []DiscoveredPackage) []CategorizedPackage {
	index := make(map[string]int)
	var out []CategorizedPackage
	for _, dp := range found {
		i, ok := index[dp.Repository.Category.Slug]
		if !ok {
			i = len(out)
			index[dp.Repository.Category.Slug] = i
			out = append(out, CategorizedPackage{Category: dp.Repository.Category, Packages: []CategorizedEntry{}})
		}
		for _, p := range dp.Packages {
			out[i].Packages = append(out[i].Packages, CategorizedEntry{Repository: dp.Repository, Package: p})
		}
	}
	return out
}

// UniqueNames returns the distinct package names in order of appearance.
func UniqueNames(found []DiscoveredPackage) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, dp := range found {
		for _, p := range dp.Packages {
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	return names
}
