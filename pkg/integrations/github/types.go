package github

import "time"

// Author is the account attached to releases, commits, issues and comments.
type Author struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
	Type      string `json:"type,omitempty"`
}

// Release mirrors the GitHub release resource. Releases synthesized from
// changelogs use the same shape with PublishedAt left nil.
type Release struct {
	ID          int64      `json:"id"`
	TagName     string     `json:"tag_name"`
	Name        string     `json:"name"`
	Body        string     `json:"body"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at"`
	HTMLURL     string     `json:"html_url"`
	Author      *Author    `json:"author,omitempty"`
}

// Timestamp returns PublishedAt when set, else CreatedAt.
func (r Release) Timestamp() time.Time {
	if r.PublishedAt != nil {
		return *r.PublishedAt
	}
	return r.CreatedAt
}

// Tag is an entry of the list-tags endpoint.
type Tag struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
		URL string `json:"url"`
	} `json:"commit"`
}

// CommitIdentity is the git-level author or committer of a commit.
type CommitIdentity struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// Commit is the single-commit resource.
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Author    CommitIdentity `json:"author"`
		Committer CommitIdentity `json:"committer"`
		Message   string         `json:"message"`
	} `json:"commit"`
	Author    *Author `json:"author"`
	Committer *Author `json:"committer"`
}

// TreeEntry is a file or directory of a git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	SHA  string `json:"sha"`
}

// Tree is a (possibly recursive) git tree listing.
type Tree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Label is an issue or pull request label.
type Label struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Issue is the issue resource. Pull requests are issues too; for them
// PullRequest is set.
type Issue struct {
	ID                int64      `json:"id"`
	Number            int        `json:"number"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	State             string     `json:"state"`
	HTMLURL           string     `json:"html_url"`
	User              *Author    `json:"user"`
	AuthorAssociation string     `json:"author_association"`
	Labels            []Label    `json:"labels"`
	Comments          int        `json:"comments"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ClosedAt          *time.Time `json:"closed_at"`
	PullRequest       *PullRef   `json:"pull_request,omitempty"`
}

// PullRef marks an issue as a pull request.
type PullRef struct {
	HTMLURL  string     `json:"html_url"`
	MergedAt *time.Time `json:"merged_at"`
}

// IsPullRequest reports whether the issue is a pull request.
func (i Issue) IsPullRequest() bool { return i.PullRequest != nil }

// BranchRef is the head or base of a pull request.
type BranchRef struct {
	Label string `json:"label"`
	Ref   string `json:"ref"`
	SHA   string `json:"sha"`
}

// PullRequest is the pull request resource.
type PullRequest struct {
	ID                int64      `json:"id"`
	Number            int        `json:"number"`
	Title             string     `json:"title"`
	Body              string     `json:"body"`
	State             string     `json:"state"`
	HTMLURL           string     `json:"html_url"`
	User              *Author    `json:"user"`
	AuthorAssociation string     `json:"author_association"`
	Labels            []Label    `json:"labels"`
	Draft             bool       `json:"draft"`
	Merged            bool       `json:"merged"`
	MergedAt          *time.Time `json:"merged_at"`
	MergeCommitSHA    string     `json:"merge_commit_sha"`
	Head              BranchRef  `json:"head"`
	Base              BranchRef  `json:"base"`
	Commits           int        `json:"commits"`
	Additions         int        `json:"additions"`
	Deletions         int        `json:"deletions"`
	ChangedFiles      int        `json:"changed_files"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ClosedAt          *time.Time `json:"closed_at"`
}

// Comment is an issue, pull request or discussion comment.
type Comment struct {
	ID                int64     `json:"id"`
	Body              string    `json:"body"`
	User              *Author   `json:"user"`
	AuthorAssociation string    `json:"author_association"`
	HTMLURL           string    `json:"html_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DiscussionCategory is the category a discussion was filed under.
type DiscussionCategory struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Discussion is a repository discussion, read through the GraphQL API.
type Discussion struct {
	Number            int                `json:"number"`
	Title             string             `json:"title"`
	Body              string             `json:"body"`
	HTMLURL           string             `json:"html_url"`
	User              *Author            `json:"user"`
	AuthorAssociation string             `json:"author_association"`
	Category          DiscussionCategory `json:"category"`
	Comments          int                `json:"comments"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// LinkedItem is an issue or pull request referenced as closing another one.
type LinkedItem struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	State      string `json:"state"`
	HTMLURL    string `json:"html_url"`
	Repository string `json:"repository"` // owner/name
	Author     string `json:"author"`
}

// apiContentResponse is the contents endpoint response for a file.
type apiContentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int    `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}
