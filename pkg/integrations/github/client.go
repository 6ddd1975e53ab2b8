package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/matzehuels/releasehub/pkg/integrations"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// PerPage is the page size used for every list endpoint. Only the first
// page is read.
const PerPage = 100

// Client provides access to the GitHub REST API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client. Pass an empty token for
// unauthenticated requests (lower rate limits) and an empty baseURL for the
// public API.
func NewClient(token, baseURL string, opts ...integrations.ClientOption) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (c *Client) repoURL(owner, repo, format string, args ...any) string {
	return fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo) + fmt.Sprintf(format, args...)
}

// escapePath escapes each segment of a slash-separated repository path.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return err
}

// ListReleases returns the latest releases of a repository.
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]Release, error) {
	var data []Release
	if err := c.Get(ctx, c.repoURL(owner, repo, "/releases?per_page=%d", PerPage), &data); err != nil {
		return nil, notFound(err, "github repo %s/%s", owner, repo)
	}
	return data, nil
}

// ListTags returns the latest tags of a repository.
func (c *Client) ListTags(ctx context.Context, owner, repo string) ([]Tag, error) {
	var data []Tag
	if err := c.Get(ctx, c.repoURL(owner, repo, "/tags?per_page=%d", PerPage), &data); err != nil {
		return nil, notFound(err, "github repo %s/%s", owner, repo)
	}
	return data, nil
}

// GetFileContent returns the decoded content of path at ref. An empty ref
// reads the default branch.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	u := c.repoURL(owner, repo, "/contents/%s", escapePath(strings.TrimPrefix(path, "/")))
	if ref != "" {
		u += "?ref=" + url.QueryEscape(ref)
	}

	var data apiContentResponse
	if err := c.Get(ctx, u, &data); err != nil {
		return "", notFound(err, "github file %s/%s/%s", owner, repo, path)
	}
	if data.Type != "" && data.Type != "file" {
		return "", fmt.Errorf("github path %s/%s/%s is a %s", owner, repo, path, data.Type)
	}
	if data.Encoding != "base64" {
		return data.Content, nil
	}

	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(data.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode content: %w", err)
	}
	return string(content), nil
}

// GetCommit returns a single commit.
func (c *Client) GetCommit(ctx context.Context, owner, repo, ref string) (*Commit, error) {
	var data Commit
	if err := c.Get(ctx, c.repoURL(owner, repo, "/commits/%s", url.PathEscape(ref)), &data); err != nil {
		return nil, notFound(err, "github commit %s/%s@%s", owner, repo, ref)
	}
	return &data, nil
}

// GetTree returns the recursive tree at ref. An empty ref reads HEAD.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (*Tree, error) {
	if ref == "" {
		ref = "HEAD"
	}
	var data Tree
	if err := c.Get(ctx, c.repoURL(owner, repo, "/git/trees/%s?recursive=1", url.PathEscape(ref)), &data); err != nil {
		return nil, notFound(err, "github tree %s/%s@%s", owner, repo, ref)
	}
	return &data, nil
}

// ListOrgMembers returns the public members of an organization.
func (c *Client) ListOrgMembers(ctx context.Context, org string) ([]Author, error) {
	var data []Author
	u := fmt.Sprintf("%s/orgs/%s/members?per_page=%d", c.baseURL, org, PerPage)
	if err := c.Get(ctx, u, &data); err != nil {
		return nil, notFound(err, "github org %s", org)
	}
	return data, nil
}

// ListIssues returns the most recently updated issues of a repository,
// including pull requests.
func (c *Client) ListIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	var data []Issue
	if err := c.Get(ctx, c.repoURL(owner, repo, "/issues?state=all&sort=updated&per_page=%d", PerPage), &data); err != nil {
		return nil, notFound(err, "github repo %s/%s", owner, repo)
	}
	return data, nil
}

// ListPulls returns the most recently updated pull requests of a repository.
func (c *Client) ListPulls(ctx context.Context, owner, repo string) ([]PullRequest, error) {
	var data []PullRequest
	if err := c.Get(ctx, c.repoURL(owner, repo, "/pulls?state=all&sort=updated&direction=desc&per_page=%d", PerPage), &data); err != nil {
		return nil, notFound(err, "github repo %s/%s", owner, repo)
	}
	return data, nil
}

// GetIssue returns an issue or pull request by number.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	var data Issue
	if err := c.Get(ctx, c.repoURL(owner, repo, "/issues/%d", number), &data); err != nil {
		return nil, notFound(err, "github issue %s/%s#%d", owner, repo, number)
	}
	return &data, nil
}

// GetPull returns a pull request by number.
func (c *Client) GetPull(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var data PullRequest
	if err := c.Get(ctx, c.repoURL(owner, repo, "/pulls/%d", number), &data); err != nil {
		return nil, notFound(err, "github pull %s/%s#%d", owner, repo, number)
	}
	return &data, nil
}

// ListIssueComments returns the comments of an issue or pull request.
func (c *Client) ListIssueComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	var data []Comment
	if err := c.Get(ctx, c.repoURL(owner, repo, "/issues/%d/comments?per_page=%d", number, PerPage), &data); err != nil {
		return nil, notFound(err, "github issue %s/%s#%d", owner, repo, number)
	}
	return data, nil
}
