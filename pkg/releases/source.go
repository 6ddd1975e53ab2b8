package releases

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasehub/pkg/cache"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/integrations/npm"
	"github.com/matzehuels/releasehub/pkg/registry"
)

// Cache lifetimes per namespace.
const (
	ReleasesTTL     = 15 * time.Minute
	DescriptionsTTL = 10 * 24 * time.Hour
	MembersTTL      = 2 * 24 * time.Hour
	ItemsTTL        = 2 * time.Hour
	DeprecationTTL  = 2 * 24 * time.Hour
)

// DefaultConcurrency bounds parallel upstream calls within one operation.
const DefaultConcurrency = 8

// GitHubAPI is the GitHub REST surface used by Source.
type GitHubAPI interface {
	ListReleases(ctx context.Context, owner, repo string) ([]github.Release, error)
	ListTags(ctx context.Context, owner, repo string) ([]github.Tag, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	GetCommit(ctx context.Context, owner, repo, ref string) (*github.Commit, error)
	GetTree(ctx context.Context, owner, repo, ref string) (*github.Tree, error)
	ListOrgMembers(ctx context.Context, org string) ([]github.Author, error)
	ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error)
	ListPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, error)
	GetPull(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)
	ListIssueComments(ctx context.Context, owner, repo string, number int) ([]github.Comment, error)
}

// DiscussionAPI is the GitHub GraphQL surface used by Source.
type DiscussionAPI interface {
	ListDiscussions(ctx context.Context, owner, repo string) ([]github.Discussion, error)
	GetDiscussion(ctx context.Context, owner, repo string, number int) (*github.Discussion, []github.Comment, error)
	IssueLinkedPulls(ctx context.Context, owner, repo string, number int) ([]github.LinkedItem, error)
	PullLinkedIssues(ctx context.Context, owner, repo string, number int) ([]github.LinkedItem, error)
}

// PackageRegistry looks up package deprecation.
type PackageRegistry interface {
	GetDeprecation(ctx context.Context, pkg string) (*npm.Deprecation, error)
}

// Source reads release history and related data through the cache.
type Source struct {
	cache       *cache.Handler
	gh          GitHubAPI
	gql         DiscussionAPI
	packages    PackageRegistry
	keys        cache.Keyer
	logger      *log.Logger
	concurrency int
}

// Option configures a Source.
type Option func(*Source)

// WithDiscussions enables discussions and linked items.
func WithDiscussions(api DiscussionAPI) Option { return func(s *Source) { s.gql = api } }

// WithPackageRegistry enables deprecation lookups.
func WithPackageRegistry(r PackageRegistry) Option { return func(s *Source) { s.packages = r } }

// WithKeyer sets the cache key builder.
func WithKeyer(k cache.Keyer) Option {
	return func(s *Source) {
		if k != nil {
			s.keys = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConcurrency bounds parallel upstream calls.
func WithConcurrency(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewSource creates a Source reading from gh through c.
func NewSource(c *cache.Handler, gh GitHubAPI, opts ...Option) *Source {
	s := &Source{
		cache:       c,
		gh:          gh,
		keys:        cache.NewDefaultKeyer(),
		logger:      log.Default(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the key builder in use.
func (s *Source) Keys() cache.Keyer { return s.keys }

func (s *Source) releasesKey(owner, name string) string {
	return s.keys.RepoKey(owner, name, cache.KindReleases)
}

// GetReleases returns the releases of repo, newest first as reported
// upstream.
func (s *Source) GetReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error) {
	key := s.releasesKey(repo.Owner, repo.Name)

	var releases []github.Release
	if s.cache.Get(ctx, key, &releases) {
		s.logger.Debug("releases cache hit", "key", key)
		return releases, nil
	}
	s.logger.Debug("releases cache miss", "key", key)

	releases, err := s.fetchReleases(ctx, repo)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, releases, ReleasesTTL)
	return releases, nil
}

// RefreshReleases fetches repo upstream regardless of the cache, merges the
// result into the cached list by release id (fetched entries win), stores
// it and returns the merged list sorted newest first.
func (s *Source) RefreshReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error) {
	fresh, err := s.fetchReleases(ctx, repo)
	if err != nil {
		return nil, err
	}

	key := s.releasesKey(repo.Owner, repo.Name)
	var existing []github.Release
	s.cache.Get(ctx, key, &existing)

	merged := mergeByID(existing, fresh)
	s.cache.Set(ctx, key, merged, ReleasesTTL)
	s.logger.Info("releases refreshed", "repo", repo.FullName(), "fetched", len(fresh), "total", len(merged))
	return merged, nil
}

// InvalidateReleases drops the cached releases of owner/name and reports
// whether an entry was removed.
func (s *Source) InvalidateReleases(ctx context.Context, owner, name string) bool {
	key := s.releasesKey(owner, name)
	deleted := s.cache.Delete(ctx, key)
	s.logger.Info("releases invalidated", "key", key, "deleted", deleted)
	return deleted
}

// HasReleases reports whether releases of owner/name are cached.
func (s *Source) HasReleases(ctx context.Context, owner, name string) bool {
	return s.cache.Exists(ctx, s.releasesKey(owner, name))
}

func (s *Source) fetchReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error) {
	if repo.ChangesMode == registry.ModeChangelog {
		return s.changelogReleases(ctx, repo)
	}
	releases, err := s.gh.ListReleases(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, err
	}
	if releases == nil {
		releases = []github.Release{}
	}
	return releases, nil
}

func mergeByID(existing, fresh []github.Release) []github.Release {
	byID := make(map[int64]int, len(existing)+len(fresh))
	out := make([]github.Release, 0, len(existing)+len(fresh))
	for _, list := range [][]github.Release{existing, fresh} {
		for _, r := range list {
			if i, ok := byID[r.ID]; ok {
				out[i] = r
				continue
			}
			byID[r.ID] = len(out)
			out = append(out, r)
		}
	}
	SortByTimestamp(out)
	return out
}

// SortByTimestamp orders releases newest first by published date, falling
// back to creation date.
func SortByTimestamp(releases []github.Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Timestamp().After(releases[j].Timestamp())
	})
}
