package releases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/releasehub/pkg/cache"
	apperrors "github.com/matzehuels/releasehub/pkg/errors"
	"github.com/matzehuels/releasehub/pkg/integrations"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/registry"
	"github.com/matzehuels/releasehub/pkg/releases/releasestest"
)

func repoWith(t *testing.T, name string, rule registry.Rule, mode registry.ChangesMode) registry.Repository {
	t.Helper()
	s, err := rule.Compile(name)
	if err != nil {
		t.Fatal(err)
	}
	g, err := registry.New([]registry.Repository{{
		Owner:       "sveltejs",
		Name:        name,
		Category:    registry.Category{Slug: "others", Name: "Other"},
		ChangesMode: mode,
		Strategy:    s,
	}})
	if err != nil {
		t.Fatal(err)
	}
	return g.All()[0]
}

func prodSource(gh *releasestest.GitHub, opts ...Option) (*Source, *cache.MemoryStore) {
	store := cache.NewMemoryStore(time.Now)
	h := cache.NewHandler(store, cache.WithMode(cache.ModeProduction))
	return NewSource(h, gh, opts...), store
}

func TestGetReleases_CachesUpstream(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.SetReleases("sveltejs", "svelte",
		releasestest.Release(2, "svelte@5.1.0", 2),
		releasestest.Release(1, "svelte@5.0.0", 1),
	)
	repo := repoWith(t, "svelte", registry.Rule{TagFormat: registry.TagLastAt}, registry.ModeReleases)
	src, _ := prodSource(gh)
	ctx := context.Background()

	for range 3 {
		got, err := src.GetReleases(ctx, repo)
		if err != nil {
			t.Fatalf("GetReleases: %v", err)
		}
		if len(got) != 2 || got[0].TagName != "svelte@5.1.0" {
			t.Fatalf("releases = %+v", got)
		}
	}
	if n := gh.Calls("ListReleases"); n != 1 {
		t.Errorf("ListReleases called %d times, want 1", n)
	}
	if !src.HasReleases(ctx, "sveltejs", "svelte") {
		t.Error("HasReleases should report the cached entry")
	}
}

func TestGetReleases_WebhookInvalidationRefetches(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.SetReleases("sveltejs", "kit", releasestest.Release(1, "@sveltejs/kit@2.0.0", 1))
	repo := repoWith(t, "kit", registry.Rule{TagFormat: registry.TagLastAt}, registry.ModeReleases)
	src, store := prodSource(gh)
	ctx := context.Background()

	if _, err := src.GetReleases(ctx, repo); err != nil {
		t.Fatal(err)
	}
	gh.SetReleases("sveltejs", "kit",
		releasestest.Release(2, "@sveltejs/kit@2.1.0", 2),
		releasestest.Release(1, "@sveltejs/kit@2.0.0", 1),
	)

	if !src.InvalidateReleases(ctx, "sveltejs", "kit") {
		t.Error("InvalidateReleases should report a deletion")
	}
	if ok, _ := store.Exists(ctx, "repo:sveltejs/kit:releases"); ok {
		t.Error("durable entry should be gone")
	}

	got, err := src.GetReleases(ctx, repo)
	if err != nil {
		t.Fatal(err)
	}
	if n := gh.Calls("ListReleases"); n != 2 {
		t.Errorf("ListReleases called %d times, want 2", n)
	}
	if len(got) != 2 {
		t.Errorf("got %d releases after invalidation, want 2", len(got))
	}
}

func TestGetReleases_FailurePropagatesAndIsNotCached(t *testing.T) {
	gh := releasestest.NewGitHub()
	boom := errors.New("boom")
	gh.Fail["sveltejs/cli"] = boom
	repo := repoWith(t, "cli", registry.Rule{TagFormat: registry.TagLastAt}, registry.ModeReleases)
	src, store := prodSource(gh)
	ctx := context.Background()

	if _, err := src.GetReleases(ctx, repo); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if ok, _ := store.Exists(ctx, "repo:sveltejs/cli:releases"); ok {
		t.Error("failed fetch must not be cached")
	}
}

func TestGetReleases_ChangelogMode(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.Tags["sveltejs/svelte-preprocess"] = []github.Tag{
		tag("v2.0.0", "c2"),
		tag("v2.1.0-next.0", "c3"),
		tag("v1.0.0", "c1"),
	}
	commitDate := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	gh.Commits["c2"] = commit(commitDate, "rich")
	gh.Commits["c3"] = commit(commitDate.Add(time.Hour), "")
	gh.Commits["c1"] = commit(commitDate.AddDate(-1, 0, 0), "ben")
	gh.Files["sveltejs/svelte-preprocess:CHANGELOG.md"] = "# Changelog\n\n" +
		"# [2.0.0] - 2024-01-15\n\n### Added\n- new thing\n\n" +
		"## [1.0.0] - 2023-01-15\n\n- initial\n"

	repo := repoWith(t, "svelte-preprocess", registry.Rule{
		TagFormat: registry.TagRepoName,
		Replace:   []registry.Replacement{{Pattern: `^# \[`, With: "## ["}},
	}, registry.ModeChangelog)
	src, _ := prodSource(gh)

	got, err := src.GetReleases(context.Background(), repo)
	if err != nil {
		t.Fatalf("GetReleases: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d releases, want 3", len(got))
	}

	v2 := got[0]
	if v2.TagName != "v2.0.0" {
		t.Fatalf("tag order not preserved: %q", v2.TagName)
	}
	if _, version := repo.Strategy.ExtractMetadata(v2.TagName); version != "2.0.0" {
		t.Errorf("version = %q", version)
	}
	if !v2.CreatedAt.Equal(commitDate) || v2.PublishedAt != nil {
		t.Errorf("dates = %v / %v", v2.CreatedAt, v2.PublishedAt)
	}
	if v2.Body != "### Added\n- new thing" {
		t.Errorf("body = %q", v2.Body)
	}
	if v2.Author == nil || v2.Author.Login != "rich" {
		t.Errorf("author = %+v", v2.Author)
	}
	if v2.Prerelease {
		t.Error("v2.0.0 is not a prerelease")
	}
	if v2.ID != SynthesizedID("sveltejs", "svelte-preprocess", "v2.0.0") || v2.ID < 0 {
		t.Errorf("id = %d", v2.ID)
	}
	if v2.HTMLURL != "https://github.com/sveltejs/svelte-preprocess/tree/v2.0.0" {
		t.Errorf("html_url = %q", v2.HTMLURL)
	}

	next := got[1]
	if !next.Prerelease || next.Body != MissingEntryBody {
		t.Errorf("prerelease = %v body = %q", next.Prerelease, next.Body)
	}
	if got[2].Body != "- initial" {
		t.Errorf("v1 body = %q", got[2].Body)
	}
}

func TestSynthesizedID_Distinct(t *testing.T) {
	seen := make(map[int64]string)
	for _, repo := range []string{"a", "b", "prettier-plugin-svelte", "rollup-plugin-svelte"} {
		for _, tag := range []string{"v1.0.0", "v1.0.1", "v2.0.0", "1.0.0"} {
			id := SynthesizedID("sveltejs", repo, tag)
			key := repo + "@" + tag
			if prev, dup := seen[id]; dup {
				t.Fatalf("id collision between %s and %s", prev, key)
			}
			if id < 0 {
				t.Fatalf("negative id for %s", key)
			}
			seen[id] = key
		}
	}
}

func TestRefreshReleases_MergesByID(t *testing.T) {
	gh := releasestest.NewGitHub()
	old := releasestest.Release(1, "svelte@4.0.0", 1)
	gh.SetReleases("sveltejs", "svelte", old)
	repo := repoWith(t, "svelte", registry.Rule{TagFormat: registry.TagLastAt}, registry.ModeReleases)
	src, _ := prodSource(gh)
	ctx := context.Background()

	if _, err := src.GetReleases(ctx, repo); err != nil {
		t.Fatal(err)
	}

	edited := releasestest.Release(1, "svelte@4.0.0", 1)
	edited.Body = "edited"
	gh.SetReleases("sveltejs", "svelte", releasestest.Release(2, "svelte@5.0.0", 5), edited)

	merged, err := src.RefreshReleases(ctx, repo)
	if err != nil {
		t.Fatalf("RefreshReleases: %v", err)
	}
	if len(merged) != 2 || merged[0].ID != 2 || merged[1].Body != "edited" {
		t.Errorf("merged = %+v", merged)
	}

	cached, err := src.GetReleases(ctx, repo)
	if err != nil || len(cached) != 2 {
		t.Errorf("cached after refresh = %+v, %v", cached, err)
	}
	if n := gh.Calls("ListReleases"); n != 2 {
		t.Errorf("ListReleases called %d times, want 2", n)
	}
}

func TestGetDescriptions(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.Trees["sveltejs/kit"] = &github.Tree{Tree: []github.TreeEntry{
		{Path: "package.json", Type: "blob"},
		{Path: "packages/kit/package.json", Type: "blob"},
		{Path: "packages/kit/test/apps/basics/package.json", Type: "blob"},
		{Path: "packages/adapter-node/__tests__/package.json", Type: "blob"},
		{Path: "packages/kit", Type: "tree"},
		{Path: "packages/kit/README.md", Type: "blob"},
	}}
	gh.Files["sveltejs/kit:package.json"] = `{"name":"kit-monorepo"}`
	gh.Files["sveltejs/kit:packages/kit/package.json"] = `{"name":"@sveltejs/kit","description":"The fastest way to build Svelte apps"}`

	src, _ := prodSource(gh)
	ctx := context.Background()

	got, err := src.GetDescriptions(ctx, "sveltejs", "kit")
	if err != nil {
		t.Fatalf("GetDescriptions: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d manifests, want 2: %v", len(got), got)
	}
	if got["packages/kit/package.json"] != "The fastest way to build Svelte apps" || got["package.json"] != "" {
		t.Errorf("descriptions = %v", got)
	}

	if _, err := src.GetDescriptions(ctx, "sveltejs", "kit"); err != nil {
		t.Fatal(err)
	}
	if n := gh.Calls("GetTree"); n != 1 {
		t.Errorf("GetTree called %d times, want 1", n)
	}
}

func TestGetOrgMembers_FailureNotCached(t *testing.T) {
	gh := releasestest.NewGitHub()
	src, _ := prodSource(gh)
	ctx := context.Background()

	if got := src.GetOrgMembers(ctx, "sveltejs"); got == nil || len(got) != 0 {
		t.Fatalf("members = %#v, want empty", got)
	}
	gh.Members["sveltejs"] = []github.Author{{Login: "rich"}}
	if got := src.GetOrgMembers(ctx, "sveltejs"); len(got) != 1 {
		t.Fatalf("members after recovery = %v", got)
	}
	src.GetOrgMembers(ctx, "sveltejs")
	if n := gh.Calls("ListOrgMembers"); n != 2 {
		t.Errorf("ListOrgMembers called %d times, want 2", n)
	}
}

func TestGetDeprecation_CachesOnlyLivePackages(t *testing.T) {
	gh := releasestest.NewGitHub()
	reg := releasestest.NewRegistry(map[string]string{"svelte-hmr": "merged into vite-plugin-svelte"})
	src, _ := prodSource(gh, WithPackageRegistry(reg))
	ctx := context.Background()

	for range 2 {
		dep, err := src.GetDeprecation(ctx, "svelte")
		if err != nil || dep.Deprecated {
			t.Fatalf("svelte: %+v, %v", dep, err)
		}
	}
	if reg.Calls() != 1 {
		t.Errorf("live package looked up %d times, want 1", reg.Calls())
	}

	for range 2 {
		dep, err := src.GetDeprecation(ctx, "svelte-hmr")
		if err != nil || !dep.Deprecated || dep.Message == "" {
			t.Fatalf("svelte-hmr: %+v, %v", dep, err)
		}
	}
	if reg.Calls() != 3 {
		t.Errorf("total lookups = %d, want 3", reg.Calls())
	}
}

func TestGetDeprecation_NoRegistry(t *testing.T) {
	src, _ := prodSource(releasestest.NewGitHub())
	dep, err := src.GetDeprecation(context.Background(), "svelte")
	if err != nil || dep.Deprecated {
		t.Errorf("dep = %+v, err = %v", dep, err)
	}
}

func TestFindItem(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.Issues["sveltejs/kit#1"] = &github.Issue{Number: 1, Title: "bug"}
	gh.Pulls["sveltejs/kit#2"] = &github.PullRequest{Number: 2, Title: "fix: bug", Merged: true}
	gh.Discussions["sveltejs/kit#3"] = &github.Discussion{Number: 3, Title: "RFC"}
	gh.Comments["sveltejs/kit#1"] = []github.Comment{{ID: 10, Body: "same here"}}
	gh.Linked["sveltejs/kit#1"] = []github.LinkedItem{{Number: 2, Repository: "sveltejs/kit"}}
	gh.Linked["sveltejs/kit#2"] = []github.LinkedItem{{Number: 1, Repository: "sveltejs/kit"}}

	src, _ := prodSource(gh, WithDiscussions(gh))
	ctx := context.Background()

	tests := []struct {
		number int
		kind   ItemKind
	}{
		{1, ItemIssue},
		{2, ItemPull},
		{3, ItemDiscussion},
	}
	for _, tt := range tests {
		d, err := src.FindItem(ctx, "sveltejs", "kit", tt.number)
		if err != nil {
			t.Fatalf("FindItem(%d): %v", tt.number, err)
		}
		if d.Kind != tt.kind {
			t.Errorf("FindItem(%d).Kind = %q, want %q", tt.number, d.Kind, tt.kind)
		}
	}

	issue, _ := src.FindItem(ctx, "sveltejs", "kit", 1)
	if len(issue.Comments) != 1 || len(issue.Linked) != 1 || issue.Linked[0].Number != 2 {
		t.Errorf("issue details = %+v", issue)
	}

	before := gh.Calls("GetIssue")
	if _, err := src.FindItem(ctx, "sveltejs", "kit", 2); err != nil {
		t.Fatal(err)
	}
	if gh.Calls("GetIssue") != before {
		t.Error("cached item should not hit the issues API")
	}

	_, err := src.FindItem(ctx, "sveltejs", "kit", 99)
	if !apperrors.Is(err, apperrors.ErrCodeItemNotFound) {
		t.Errorf("FindItem(99) err = %v, want ITEM_NOT_FOUND", err)
	}
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FindItem(99) should wrap ErrNotFound")
	}
}

func TestFindItem_MissingWithoutDiscussions(t *testing.T) {
	src, _ := prodSource(releasestest.NewGitHub())

	_, err := src.FindItem(context.Background(), "sveltejs", "kit", 424242)
	if !apperrors.Is(err, apperrors.ErrCodeItemNotFound) {
		t.Fatalf("err = %v, want ITEM_NOT_FOUND", err)
	}
	if got := apperrors.HTTPStatus(err); got != 404 {
		t.Errorf("HTTPStatus = %d, want 404", got)
	}
}

func TestFindItem_FetchesIssueOnce(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.Issues["sveltejs/kit#7"] = &github.Issue{Number: 7, Title: "crash on build"}
	src, _ := prodSource(gh)

	d, err := src.FindItem(context.Background(), "sveltejs", "kit", 7)
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != ItemIssue || d.Issue == nil || d.Issue.Title != "crash on build" {
		t.Errorf("FindItem(7) = %+v", d)
	}
	if n := gh.Calls("GetIssue"); n != 1 {
		t.Errorf("GetIssue calls = %d, want 1", n)
	}
}

func TestGetItemDetails_WrongKind(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.Pulls["o/r#2"] = &github.PullRequest{Number: 2}
	src, _ := prodSource(gh)

	_, err := src.GetItemDetails(context.Background(), "o", "r", ItemIssue, 2)
	if !apperrors.Is(err, apperrors.ErrCodeItemNotFound) {
		t.Errorf("err = %v, want ITEM_NOT_FOUND", err)
	}
}

func TestListItems(t *testing.T) {
	gh := releasestest.NewGitHub()
	gh.Issues["o/r#1"] = &github.Issue{Number: 1}
	gh.Issues["o/r#2"] = &github.Issue{Number: 2, PullRequest: &github.PullRef{}}
	gh.Pulls["o/r#2"] = &github.PullRequest{Number: 2}
	gh.Discussions["o/r#3"] = &github.Discussion{Number: 3}
	ctx := context.Background()

	src, _ := prodSource(gh)
	issues, err := src.ListIssues(ctx, "o", "r")
	if err != nil || len(issues) != 1 || issues[0].Number != 1 {
		t.Errorf("ListIssues = %+v, %v", issues, err)
	}
	pulls, err := src.ListPulls(ctx, "o", "r")
	if err != nil || len(pulls) != 1 {
		t.Errorf("ListPulls = %+v, %v", pulls, err)
	}
	if _, err := src.ListDiscussions(ctx, "o", "r"); !apperrors.Is(err, apperrors.ErrCodeUnsupported) {
		t.Errorf("ListDiscussions without GraphQL err = %v", err)
	}

	src, _ = prodSource(gh, WithDiscussions(gh))
	discussions, err := src.ListDiscussions(ctx, "o", "r")
	if err != nil || len(discussions) != 1 {
		t.Errorf("ListDiscussions = %+v, %v", discussions, err)
	}
}

func TestParseItemKind(t *testing.T) {
	for in, want := range map[string]ItemKind{
		"issue": ItemIssue, "issues": ItemIssue,
		"pr": ItemPull, "pulls": ItemPull,
		"discussions": ItemDiscussion,
	} {
		if got, ok := ParseItemKind(in); !ok || got != want {
			t.Errorf("ParseItemKind(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseItemKind("commit"); ok {
		t.Error("commit is not an item kind")
	}
}

func tag(name, sha string) github.Tag {
	var t github.Tag
	t.Name = name
	t.Commit.SHA = sha
	return t
}

func commit(at time.Time, login string) *github.Commit {
	c := &github.Commit{SHA: "x"}
	c.Commit.Author = github.CommitIdentity{Name: "Author", Date: at}
	if login != "" {
		c.Author = &github.Author{Login: login}
	}
	return c
}
