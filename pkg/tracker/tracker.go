package tracker

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
)

// MemberAssociation is the author association GitHub reports for
// organization members.
const MemberAssociation = "MEMBER"

// ClosingKeywords are the words GitHub recognizes for linking a pull
// request to the issue it closes.
var ClosingKeywords = []string{
	"close", "closes", "closed",
	"fix", "fixes", "fixed",
	"resolve", "resolves", "resolved",
}

var crossRepoRefs = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(ClosingKeywords))
	for i, k := range ClosingKeywords {
		out[i] = regexp.MustCompile(k + ` [A-Za-z0-9_-]+/[A-Za-z0-9_-]+#[0-9]+`)
	}
	return out
}()

// Source provides the cached repository listings.
type Source interface {
	GetOrgMembers(ctx context.Context, owner string) []github.Author
	ListIssues(ctx context.Context, owner, name string) ([]github.Issue, error)
	ListPulls(ctx context.Context, owner, name string) ([]github.PullRequest, error)
	ListDiscussions(ctx context.Context, owner, name string) ([]github.Discussion, error)
}

// Board is the member work of one repository.
type Board struct {
	Owner       string               `json:"owner"`
	Repo        string               `json:"repo"`
	Pulls       []github.PullRequest `json:"prs"`
	Issues      []github.Issue       `json:"issues"`
	Discussions []github.Discussion  `json:"discussions"`
}

// Tracker assembles boards.
type Tracker struct {
	source Source
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides the current time used for the discussion window.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Tracker.
func New(source Source, opts ...Option) *Tracker {
	t := &Tracker{source: source, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Board loads the board of owner/name.
func (t *Tracker) Board(ctx context.Context, owner, name string) (*Board, error) {
	members := t.source.GetOrgMembers(ctx, owner)
	if len(members) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "organization %s not found or empty", owner)
	}
	logins := make(map[string]bool, len(members))
	for _, m := range members {
		logins[m.Login] = true
	}

	var (
		pulls       []github.PullRequest
		issues      []github.Issue
		discussions []github.Discussion
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pulls, err = t.source.ListPulls(ctx, owner, name)
		return err
	})
	g.Go(func() (err error) {
		issues, err = t.source.ListIssues(ctx, owner, name)
		return err
	})
	g.Go(func() error {
		var err error
		discussions, err = t.source.ListDiscussions(ctx, owner, name)
		if apperrors.Is(err, apperrors.ErrCodeUnsupported) {
			t.logger.Debug("discussions skipped", "repo", owner+"/"+name, "err", err)
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Board{
		Owner:       owner,
		Repo:        name,
		Pulls:       []github.PullRequest{},
		Issues:      []github.Issue{},
		Discussions: []github.Discussion{},
	}
	for _, p := range pulls {
		if p.User != nil && logins[p.User.Login] && !ReferencesIssue(p.Body) {
			b.Pulls = append(b.Pulls, p)
		}
	}
	for _, i := range issues {
		if !i.IsPullRequest() && i.AuthorAssociation == MemberAssociation {
			b.Issues = append(b.Issues, i)
		}
	}
	since := t.now().Year() - 1
	for _, d := range discussions {
		if d.AuthorAssociation == MemberAssociation && d.UpdatedAt.Year() >= since {
			b.Discussions = append(b.Discussions, d)
		}
	}

	sort.SliceStable(b.Pulls, func(i, j int) bool { return b.Pulls[i].UpdatedAt.After(b.Pulls[j].UpdatedAt) })
	sort.SliceStable(b.Issues, func(i, j int) bool { return b.Issues[i].UpdatedAt.After(b.Issues[j].UpdatedAt) })
	sort.SliceStable(b.Discussions, func(i, j int) bool {
		return b.Discussions[i].UpdatedAt.After(b.Discussions[j].UpdatedAt)
	})
	return b, nil
}

// ReferencesIssue reports whether a pull request body links an issue with
// a closing keyword. Matching is case-insensitive.
func ReferencesIssue(body string) bool {
	if body == "" {
		return false
	}
	lower := strings.ToLower(body)
	for i, k := range ClosingKeywords {
		if strings.Contains(lower, k+" #") ||
			strings.Contains(lower, k+" https://github.com") ||
			crossRepoRefs[i].MatchString(lower) {
			return true
		}
	}
	return false
}
