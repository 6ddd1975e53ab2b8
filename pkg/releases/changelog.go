package releases

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releasehub/pkg/changelog"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/registry"
)

// MissingEntryBody is the body of a synthesized release whose version has
// no changelog entry.
const MissingEntryBody = "No changelog entry found for this version."

// SynthesizedID returns the id of the release synthesized for tag.
func SynthesizedID(owner, repo, tag string) int64 {
	return int64(xxhash.Sum64String(owner+"/"+repo+"@"+tag) & math.MaxInt64)
}

func (s *Source) changelogReleases(ctx context.Context, repo registry.Repository) ([]github.Release, error) {
	tags, err := s.gh.ListTags(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, err
	}

	text, err := s.gh.GetFileContent(ctx, repo.Owner, repo.Name, repo.ChangelogPath, repo.ChangelogRef)
	if err != nil {
		return nil, fmt.Errorf("changelog %s: %w", repo.FullName(), err)
	}
	cl := changelog.Parse(repo.Strategy.RewriteChangelog(text))
	s.logger.Debug("changelog parsed", "repo", repo.FullName(), "versions", cl.VersionCount(), "tags", len(tags))

	releases := make([]github.Release, len(tags))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, tag := range tags {
		g.Go(func() error {
			commit, err := s.gh.GetCommit(ctx, repo.Owner, repo.Name, tag.Commit.SHA)
			if err != nil {
				return fmt.Errorf("tag %s: %w", tag.Name, err)
			}
			releases[i] = synthesize(repo, tag, commit, cl)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return releases, nil
}

func synthesize(repo registry.Repository, tag github.Tag, commit *github.Commit, cl *changelog.Changelog) github.Release {
	_, version := repo.Strategy.ExtractMetadata(tag.Name)

	body := MissingEntryBody
	if entry, ok := cl.Find(version); ok {
		body = entry.Body
	}

	release := github.Release{
		ID:         SynthesizedID(repo.Owner, repo.Name, tag.Name),
		TagName:    tag.Name,
		Name:       tag.Name,
		Body:       body,
		Prerelease: strings.Contains(tag.Name, "-"),
		CreatedAt:  commit.Commit.Author.Date,
		HTMLURL:    fmt.Sprintf("https://github.com/%s/%s/tree/%s", repo.Owner, repo.Name, tag.Name),
	}
	if release.CreatedAt.IsZero() {
		release.CreatedAt = commit.Commit.Committer.Date
	}
	if commit.Author != nil {
		author := *commit.Author
		release.Author = &author
	} else if name := commit.Commit.Author.Name; name != "" {
		release.Author = &github.Author{Login: name}
	}
	return release
}
