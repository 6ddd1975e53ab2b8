// Package releasestest provides in-memory upstream fakes for tests of
// packages built on releases.Source.
package releasestest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/releasehub/pkg/integrations"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/integrations/npm"
)

// GitHub is an in-memory GitHubAPI and DiscussionAPI. Maps are keyed by
// "owner/repo"; items and files by "owner/repo#N" and "owner/repo:path".
// Missing entries answer with integrations.ErrNotFound.
type GitHub struct {
	mu sync.Mutex

	Releases    map[string][]github.Release
	Tags        map[string][]github.Tag
	Files       map[string]string
	Commits     map[string]*github.Commit // by sha
	Trees       map[string]*github.Tree
	Members     map[string][]github.Author
	Issues      map[string]*github.Issue
	Pulls       map[string]*github.PullRequest
	Comments    map[string][]github.Comment
	Discussions map[string]*github.Discussion
	Linked      map[string][]github.LinkedItem

	// Fail makes every call for the given "owner/repo" (or org) fail.
	Fail map[string]error

	calls map[string]int
}

// NewGitHub returns an empty fake.
func NewGitHub() *GitHub {
	return &GitHub{
		Releases:    make(map[string][]github.Release),
		Tags:        make(map[string][]github.Tag),
		Files:       make(map[string]string),
		Commits:     make(map[string]*github.Commit),
		Trees:       make(map[string]*github.Tree),
		Members:     make(map[string][]github.Author),
		Issues:      make(map[string]*github.Issue),
		Pulls:       make(map[string]*github.PullRequest),
		Comments:    make(map[string][]github.Comment),
		Discussions: make(map[string]*github.Discussion),
		Linked:      make(map[string][]github.LinkedItem),
		Fail:        make(map[string]error),
		calls:       make(map[string]int),
	}
}

// Calls returns how often method was invoked.
func (g *GitHub) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// SetReleases replaces the releases of owner/repo.
func (g *GitHub) SetReleases(owner, repo string, releases ...github.Release) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Releases[owner+"/"+repo] = releases
}

func (g *GitHub) enter(method, scope string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[method]++
	return g.Fail[scope]
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", integrations.ErrNotFound, what)
}

func repoKey(owner, repo string) string { return owner + "/" + repo }

func itemKey(owner, repo string, n int) string { return fmt.Sprintf("%s/%s#%d", owner, repo, n) }

func (g *GitHub) ListReleases(_ context.Context, owner, repo string) ([]github.Release, error) {
	k := repoKey(owner, repo)
	if err := g.enter("ListReleases", k); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.Releases[k]
	if !ok {
		return nil, notFound(k)
	}
	return append([]github.Release(nil), r...), nil
}

func (g *GitHub) ListTags(_ context.Context, owner, repo string) ([]github.Tag, error) {
	k := repoKey(owner, repo)
	if err := g.enter("ListTags", k); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.Tags[k]
	if !ok {
		return nil, notFound(k)
	}
	return t, nil
}

func (g *GitHub) GetFileContent(_ context.Context, owner, repo, path, ref string) (string, error) {
	k := repoKey(owner, repo)
	if err := g.enter("GetFileContent", k); err != nil {
		return "", err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if ref != "" {
		if text, ok := g.Files[k+":"+path+"@"+ref]; ok {
			return text, nil
		}
	}
	text, ok := g.Files[k+":"+path]
	if !ok {
		return "", notFound(k + ":" + path)
	}
	return text, nil
}

func (g *GitHub) GetCommit(_ context.Context, owner, repo, ref string) (*github.Commit, error) {
	if err := g.enter("GetCommit", repoKey(owner, repo)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.Commits[ref]
	if !ok {
		return nil, notFound("commit " + ref)
	}
	return c, nil
}

func (g *GitHub) GetTree(_ context.Context, owner, repo, _ string) (*github.Tree, error) {
	k := repoKey(owner, repo)
	if err := g.enter("GetTree", k); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.Trees[k]
	if !ok {
		return nil, notFound(k)
	}
	return t, nil
}

func (g *GitHub) ListOrgMembers(_ context.Context, org string) ([]github.Author, error) {
	if err := g.enter("ListOrgMembers", org); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.Members[org]
	if !ok {
		return nil, notFound(org)
	}
	return m, nil
}

func (g *GitHub) ListIssues(_ context.Context, owner, repo string) ([]github.Issue, error) {
	k := repoKey(owner, repo)
	if err := g.enter("ListIssues", k); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []github.Issue
	for key, i := range g.Issues {
		if len(key) > len(k) && key[:len(k)+1] == k+"#" {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (g *GitHub) ListPulls(_ context.Context, owner, repo string) ([]github.PullRequest, error) {
	k := repoKey(owner, repo)
	if err := g.enter("ListPulls", k); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []github.PullRequest
	for key, p := range g.Pulls {
		if len(key) > len(k) && key[:len(k)+1] == k+"#" {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (g *GitHub) GetIssue(_ context.Context, owner, repo string, n int) (*github.Issue, error) {
	if err := g.enter("GetIssue", repoKey(owner, repo)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	k := itemKey(owner, repo, n)
	if i, ok := g.Issues[k]; ok {
		return i, nil
	}
	if p, ok := g.Pulls[k]; ok {
		return &github.Issue{
			Number:      p.Number,
			Title:       p.Title,
			PullRequest: &github.PullRef{HTMLURL: p.HTMLURL, MergedAt: p.MergedAt},
		}, nil
	}
	return nil, notFound(k)
}

func (g *GitHub) GetPull(_ context.Context, owner, repo string, n int) (*github.PullRequest, error) {
	if err := g.enter("GetPull", repoKey(owner, repo)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	k := itemKey(owner, repo, n)
	p, ok := g.Pulls[k]
	if !ok {
		return nil, notFound(k)
	}
	return p, nil
}

func (g *GitHub) ListIssueComments(_ context.Context, owner, repo string, n int) ([]github.Comment, error) {
	if err := g.enter("ListIssueComments", repoKey(owner, repo)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]github.Comment{}, g.Comments[itemKey(owner, repo, n)]...), nil
}

func (g *GitHub) ListDiscussions(_ context.Context, owner, repo string) ([]github.Discussion, error) {
	k := repoKey(owner, repo)
	if err := g.enter("ListDiscussions", k); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []github.Discussion
	for key, d := range g.Discussions {
		if len(key) > len(k) && key[:len(k)+1] == k+"#" {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (g *GitHub) GetDiscussion(_ context.Context, owner, repo string, n int) (*github.Discussion, []github.Comment, error) {
	if err := g.enter("GetDiscussion", repoKey(owner, repo)); err != nil {
		return nil, nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	k := itemKey(owner, repo, n)
	d, ok := g.Discussions[k]
	if !ok {
		return nil, nil, notFound(k)
	}
	return d, append([]github.Comment{}, g.Comments[k]...), nil
}

func (g *GitHub) IssueLinkedPulls(_ context.Context, owner, repo string, n int) ([]github.LinkedItem, error) {
	if err := g.enter("IssueLinkedPulls", repoKey(owner, repo)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]github.LinkedItem{}, g.Linked[itemKey(owner, repo, n)]...), nil
}

func (g *GitHub) PullLinkedIssues(_ context.Context, owner, repo string, n int) ([]github.LinkedItem, error) {
	if err := g.enter("PullLinkedIssues", repoKey(owner, repo)); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]github.LinkedItem{}, g.Linked[itemKey(owner, repo, n)]...), nil
}

// Registry is an in-memory PackageRegistry.
type Registry struct {
	mu         sync.Mutex
	Deprecated map[string]string // package → message
	calls      int
}

// NewRegistry returns a registry where the named packages are deprecated.
func NewRegistry(deprecated map[string]string) *Registry {
	if deprecated == nil {
		deprecated = make(map[string]string)
	}
	return &Registry{Deprecated: deprecated}
}

// Calls returns how many lookups were made.
func (r *Registry) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *Registry) GetDeprecation(_ context.Context, pkg string) (*npm.Deprecation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	msg, ok := r.Deprecated[pkg]
	return &npm.Deprecation{Deprecated: ok, Message: msg}, nil
}

// Release builds a release published at the given day offset from a fixed
// base date, so later offsets are newer.
func Release(id int64, tag string, day int) github.Release {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	return github.Release{ID: id, TagName: tag, Name: tag, CreatedAt: at, PublishedAt: &at}
}
