package releases

import (
	"context"
	"errors"
	"strconv"

	"github.com/matzehuels/releasehub/pkg/cache"
	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
)

// ItemKind is the type of a single tracker item.
type ItemKind string

const (
	ItemIssue      ItemKind = "issue"
	ItemPull       ItemKind = "pr"
	ItemDiscussion ItemKind = "discussion"
)

// ParseItemKind maps a path segment to an ItemKind. Plural and long forms
// are accepted.
func ParseItemKind(s string) (ItemKind, bool) {
	switch s {
	case "issue", "issues":
		return ItemIssue, true
	case "pr", "prs", "pull", "pulls":
		return ItemPull, true
	case "discussion", "discussions":
		return ItemDiscussion, true
	}
	return "", false
}

// ItemDetails aggregates an issue, pull request or discussion with its
// comments and the items linked to it.
type ItemDetails struct {
	Kind       ItemKind            `json:"kind"`
	Issue      *github.Issue       `json:"issue,omitempty"`
	Pull       *github.PullRequest `json:"pull,omitempty"`
	Discussion *github.Discussion  `json:"discussion,omitempty"`
	Comments   []github.Comment    `json:"comments"`
	Linked     []github.LinkedItem `json:"linked"`
}

func (s *Source) itemKey(owner, name string, kind ItemKind, number int) string {
	return s.keys.RepoKey(owner, name, string(kind), strconv.Itoa(number))
}

// GetItemDetails returns the item of the given kind.
func (s *Source) GetItemDetails(ctx context.Context, owner, name string, kind ItemKind, number int) (*ItemDetails, error) {
	return s.itemDetails(ctx, owner, name, kind, number, nil)
}

// itemDetails is GetItemDetails with an issue the caller already fetched.
func (s *Source) itemDetails(ctx context.Context, owner, name string, kind ItemKind, number int, issue *github.Issue) (*ItemDetails, error) {
	var out ItemDetails
	err := s.cache.Cached(ctx, s.itemKey(owner, name, kind, number), ItemsTTL, false, &out, func() error {
		d, err := s.fetchItem(ctx, owner, name, kind, number, issue)
		if err != nil {
			return err
		}
		out = *d
		return nil
	})
	if err != nil {
		return nil, itemError(err, owner, name, number)
	}
	return &out, nil
}

// FindItem returns item number of owner/name whatever its kind: cached
// entries first, then the issues API (which also serves pull requests),
// then discussions when a GraphQL client is configured.
func (s *Source) FindItem(ctx context.Context, owner, name string, number int) (*ItemDetails, error) {
	for _, kind := range []ItemKind{ItemIssue, ItemPull, ItemDiscussion} {
		var d ItemDetails
		if s.cache.Get(ctx, s.itemKey(owner, name, kind, number), &d) {
			return &d, nil
		}
	}

	issue, err := s.gh.GetIssue(ctx, owner, name, number)
	switch {
	case err == nil:
		kind := ItemIssue
		if issue.IsPullRequest() {
			kind = ItemPull
		}
		return s.itemDetails(ctx, owner, name, kind, number, issue)
	case !errors.Is(err, integrations.ErrNotFound), s.gql == nil:
		return nil, itemError(err, owner, name, number)
	}
	return s.GetItemDetails(ctx, owner, name, ItemDiscussion, number)
}

func (s *Source) fetchItem(ctx context.Context, owner, name string, kind ItemKind, number int, issue *github.Issue) (*ItemDetails, error) {
	d := &ItemDetails{Kind: kind, Linked: []github.LinkedItem{}}
	var err error

	switch kind {
	case ItemIssue:
		if d.Issue = issue; d.Issue == nil {
			if d.Issue, err = s.gh.GetIssue(ctx, owner, name, number); err != nil {
				return nil, err
			}
		}
		if d.Issue.IsPullRequest() {
			return nil, apperrors.New(apperrors.ErrCodeItemNotFound, "%s/%s#%d is a pull request", owner, name, number)
		}
		if s.gql != nil {
			if d.Linked, err = s.gql.IssueLinkedPulls(ctx, owner, name, number); err != nil {
				return nil, err
			}
		}
	case ItemPull:
		if d.Pull, err = s.gh.GetPull(ctx, owner, name, number); err != nil {
			return nil, err
		}
		if s.gql != nil {
			if d.Linked, err = s.gql.PullLinkedIssues(ctx, owner, name, number); err != nil {
				return nil, err
			}
		}
	case ItemDiscussion:
		if s.gql == nil {
			return nil, apperrors.New(apperrors.ErrCodeUnsupported, "discussions require a GitHub token")
		}
		if d.Discussion, d.Comments, err = s.gql.GetDiscussion(ctx, owner, name, number); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidItem, "unknown item kind %q", kind)
	}

	if d.Comments, err = s.gh.ListIssueComments(ctx, owner, name, number); err != nil {
		return nil, err
	}
	return d, nil
}

func itemError(err error, owner, name string, number int) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrCodeItemNotFound, err, "item %s/%s#%d not found", owner, name, number)
	}
	return err
}

// ListIssues returns the recently updated issues of a repository, without
// pull requests.
func (s *Source) ListIssues(ctx context.Context, owner, name string) ([]github.Issue, error) {
	var out []github.Issue
	err := s.cache.Cached(ctx, s.keys.RepoKey(owner, name, cache.KindIssues), ItemsTTL, false, &out, func() error {
		all, err := s.gh.ListIssues(ctx, owner, name)
		if err != nil {
			return err
		}
		out = make([]github.Issue, 0, len(all))
		for _, i := range all {
			if !i.IsPullRequest() {
				out = append(out, i)
			}
		}
		return nil
	})
	return out, err
}

// ListPulls returns the recently updated pull requests of a repository.
func (s *Source) ListPulls(ctx context.Context, owner, name string) ([]github.PullRequest, error) {
	var out []github.PullRequest
	err := s.cache.Cached(ctx, s.keys.RepoKey(owner, name, cache.KindPulls), ItemsTTL, false, &out, func() error {
		var err error
		out, err = s.gh.ListPulls(ctx, owner, name)
		return err
	})
	return out, err
}

// ListDiscussions returns the recently updated discussions of a repository.
func (s *Source) ListDiscussions(ctx context.Context, owner, name string) ([]github.Discussion, error) {
	if s.gql == nil {
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "discussions require a GitHub token")
	}
	var out []github.Discussion
	err := s.cache.Cached(ctx, s.keys.RepoKey(owner, name, cache.KindDiscussions), ItemsTTL, false, &out, func() error {
		var err error
		out, err = s.gql.ListDiscussions(ctx, owner, name)
		return err
	})
	return out, err
}
