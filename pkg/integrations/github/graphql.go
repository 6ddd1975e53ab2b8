package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/machinebox/graphql"
	"golang.org/x/oauth2"

	"github.com/matzehuels/releasehub/pkg/integrations"
)

// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
const DefaultGraphQLURL = "https://api.github.com/graphql"

// GraphQLClient reads the parts of GitHub that the REST API does not
// expose: discussions and cross-linked issues and pull requests.
type GraphQLClient struct {
	client *graphql.Client
}

// NewGraphQLClient creates a GraphQL client authenticated with a static
// token. An HTTP client stored in ctx under oauth2.HTTPClient is used as the
// base transport. A nil logger disables request logging.
func NewGraphQLClient(ctx context.Context, token, endpoint string, logger *log.Logger) *GraphQLClient {
	if endpoint == "" {
		endpoint = DefaultGraphQLURL
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = 10 * time.Second

	client := graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))
	if logger != nil {
		client.Log = func(s string) { logger.Debug(s) }
	}
	return &GraphQLClient{client: client}
}

func (c *GraphQLClient) run(ctx context.Context, query string, vars map[string]any, result any) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	req.Header.Set("Cache-Control", "no-cache")
	if err := c.client.Run(ctx, req, result); err != nil {
		if strings.Contains(err.Error(), "Could not resolve") {
			return fmt.Errorf("%w: %v", integrations.ErrNotFound, err)
		}
		return fmt.Errorf("%w: %v", integrations.ErrNetwork, err)
	}
	return nil
}

type gqlActor struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	URL       string `json:"url"`
}

func (a *gqlActor) toAuthor() *Author {
	if a == nil {
		return nil
	}
	return &Author{Login: a.Login, AvatarURL: a.AvatarURL, HTMLURL: a.URL}
}

type gqlDiscussion struct {
	Number            int                `json:"number"`
	Title             string             `json:"title"`
	Body              string             `json:"body"`
	URL               string             `json:"url"`
	AuthorAssociation string             `json:"authorAssociation"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Author            *gqlActor          `json:"author"`
	Category          DiscussionCategory `json:"category"`
	Comments          struct {
		TotalCount int          `json:"totalCount"`
		Nodes      []gqlComment `json:"nodes"`
	} `json:"comments"`
}

func (d gqlDiscussion) toDiscussion() Discussion {
	return Discussion{
		Number:            d.Number,
		Title:             d.Title,
		Body:              d.Body,
		HTMLURL:           d.URL,
		User:              d.Author.toAuthor(),
		AuthorAssociation: d.AuthorAssociation,
		Category:          d.Category,
		Comments:          d.Comments.TotalCount,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type gqlComment struct {
	DatabaseID        int64     `json:"databaseId"`
	Body              string    `json:"body"`
	URL               string    `json:"url"`
	AuthorAssociation string    `json:"authorAssociation"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Author            *gqlActor `json:"author"`
}

type gqlLinked struct {
	Number     int       `json:"number"`
	Title      string    `json:"title"`
	State      string    `json:"state"`
	URL        string    `json:"url"`
	Author     *gqlActor `json:"author"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

func toLinked(nodes []gqlLinked) []LinkedItem {
	items := make([]LinkedItem, 0, len(nodes))
	for _, n := range nodes {
		item := LinkedItem{
			Number:     n.Number,
			Title:      n.Title,
			State:      strings.ToLower(n.State),
			HTMLURL:    n.URL,
			Repository: n.Repository.NameWithOwner,
		}
		if n.Author != nil {
			item.Author = n.Author.Login
		}
		items = append(items, item)
	}
	return items
}

const discussionFields = `
	number
	title
	body
	url
	authorAssociation
	createdAt
	updatedAt
	author { login avatarUrl url }
	category { name emoji }
`

var listDiscussionsQuery = `query($owner: String!, $name: String!, $first: Int!) {
  repository(owner: $owner, name: $name) {
    discussions(first: $first, orderBy: {field: UPDATED_AT, direction: DESC}) {
      nodes {` + discussionFields + `
        comments { totalCount }
      }
    }
  }
}`

var getDiscussionQuery = `query($owner: String!, $name: String!, $number: Int!, $first: Int!) {
  repository(owner: $owner, name: $name) {
    discussion(number: $number) {` + discussionFields + `
      comments(first: $first) {
        totalCount
        nodes {
          databaseId
          body
          url
          authorAssociation
          createdAt
          updatedAt
          author { login avatarUrl url }
        }
      }
    }
  }
}`

const linkedFields = `
        number
        title
        state
        url
        author { login }
        repository { nameWithOwner }
`

var issueLinkedPullsQuery = `query($owner: String!, $name: String!, $number: Int!, $first: Int!) {
  repository(owner: $owner, name: $name) {
    issue(number: $number) {
      closedByPullRequestsReferences(first: $first, includeClosedPrs: true) {
        nodes {` + linkedFields + `}
      }
    }
  }
}`

var pullLinkedIssuesQuery = `query($owner: String!, $name: String!, $number: Int!, $first: Int!) {
  repository(owner: $owner, name: $name) {
    pullRequest(number: $number) {
      closingIssuesReferences(first: $first) {
        nodes {` + linkedFields + `}
      }
    }
  }
}`

// ListDiscussions returns the most recently updated discussions of a
// repository.
func (c *GraphQLClient) ListDiscussions(ctx context.Context, owner, repo string) ([]Discussion, error) {
	var result struct {
		Repository *struct {
			Discussions struct {
				Nodes []gqlDiscussion `json:"nodes"`
			} `json:"discussions"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": repo, "first": PerPage}
	if err := c.run(ctx, listDiscussionsQuery, vars, &result); err != nil {
		return nil, fmt.Errorf("list discussions %s/%s: %w", owner, repo, err)
	}
	if result.Repository == nil {
		return nil, fmt.Errorf("%w: github repo %s/%s", integrations.ErrNotFound, owner, repo)
	}

	out := make([]Discussion, 0, len(result.Repository.Discussions.Nodes))
	for _, d := range result.Repository.Discussions.Nodes {
		out = append(out, d.toDiscussion())
	}
	return out, nil
}

// GetDiscussion returns a discussion together with its comments.
func (c *GraphQLClient) GetDiscussion(ctx context.Context, owner, repo string, number int) (*Discussion, []Comment, error) {
	var result struct {
		Repository *struct {
			Discussion *gqlDiscussion `json:"discussion"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": repo, "number": number, "first": PerPage}
	if err := c.run(ctx, getDiscussionQuery, vars, &result); err != nil {
		return nil, nil, fmt.Errorf("get discussion %s/%s#%d: %w", owner, repo, number, err)
	}
	if result.Repository == nil || result.Repository.Discussion == nil {
		return nil, nil, fmt.Errorf("%w: github discussion %s/%s#%d", integrations.ErrNotFound, owner, repo, number)
	}

	d := result.Repository.Discussion
	discussion := d.toDiscussion()
	comments := make([]Comment, 0, len(d.Comments.Nodes))
	for _, n := range d.Comments.Nodes {
		comments = append(comments, Comment{
			ID:                n.DatabaseID,
			Body:              n.Body,
			User:              n.Author.toAuthor(),
			AuthorAssociation: n.AuthorAssociation,
			HTMLURL:           n.URL,
			CreatedAt:         n.CreatedAt,
			UpdatedAt:         n.UpdatedAt,
		})
	}
	return &discussion, comments, nil
}

// IssueLinkedPulls returns the pull requests that close an issue.
func (c *GraphQLClient) IssueLinkedPulls(ctx context.Context, owner, repo string, number int) ([]LinkedItem, error) {
	var result struct {
		Repository *struct {
			Issue *struct {
				Refs struct {
					Nodes []gqlLinked `json:"nodes"`
				} `json:"closedByPullRequestsReferences"`
			} `json:"issue"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": repo, "number": number, "first": PerPage}
	if err := c.run(ctx, issueLinkedPullsQuery, vars, &result); err != nil {
		return nil, fmt.Errorf("linked pulls %s/%s#%d: %w", owner, repo, number, err)
	}
	if result.Repository == nil || result.Repository.Issue == nil {
		return []LinkedItem{}, nil
	}
	return toLinked(result.Repository.Issue.Refs.Nodes), nil
}

// PullLinkedIssues returns the issues a pull request closes.
func (c *GraphQLClient) PullLinkedIssues(ctx context.Context, owner, repo string, number int) ([]LinkedItem, error) {
	var result struct {
		Repository *struct {
			PullRequest *struct {
				Refs struct {
					Nodes []gqlLinked `json:"nodes"`
				} `json:"closingIssuesReferences"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}
	vars := map[string]any{"owner": owner, "name": repo, "number": number, "first": PerPage}
	if err := c.run(ctx, pullLinkedIssuesQuery, vars, &result); err != nil {
		return nil, fmt.Errorf("linked issues %s/%s#%d: %w", owner, repo, number, err)
	}
	if result.Repository == nil || result.Repository.PullRequest == nil {
		return []LinkedItem{}, nil
	}
	return toLinked(result.Repository.PullRequest.Refs.Nodes), nil
}
