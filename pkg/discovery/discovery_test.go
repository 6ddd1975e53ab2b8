package discovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/releasehub/pkg/cache"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/registry"
	"github.com/matzehuels/releasehub/pkg/releases"
	"github.com/matzehuels/releasehub/pkg/releases/releasestest"
)

const testRegistry = `
owner = "sveltejs"

[directories]
sv = "cli"

[[category]]
slug = "kit"
name = "SvelteKit"

  [[category.repository]]
  name = "kit"
  tag_format = "last-at"
  filter = { include = "/kit@" }

[[category]]
slug = "others"
name = "Other"

  [[category.repository]]
  name = "kit"
  tag_format = "last-at"
  filter = { exclude = "/kit@" }

  [[category.repository]]
  name = "cli"
  tag_format = "last-at"
`

func setup(t *testing.T) (*Discoverer, *releasestest.GitHub, *releasestest.Registry) {
	t.Helper()
	reg, err := registry.Load(strings.NewReader(testRegistry))
	if err != nil {
		t.Fatal(err)
	}
	gh := releasestest.NewGitHub()
	gh.SetReleases("sveltejs", "kit",
		releasestest.Release(4, "@sveltejs/kit@2.1.0", 4),
		releasestest.Release(3, "@sveltejs/adapter-node@5.0.0", 3),
		releasestest.Release(2, "@sveltejs/kit@2.0.0", 2),
		releasestest.Release(1, "@sveltejs/adapter-static@3.0.0", 1),
	)
	gh.SetReleases("sveltejs", "cli",
		releasestest.Release(11, "sv@0.6.0", 2),
		releasestest.Release(10, "sv@0.5.0", 1),
		releasestest.Release(12, "untagged", 0),
	)
	gh.Trees["sveltejs/kit"] = &github.Tree{Tree: []github.TreeEntry{
		{Path: "packages/kit/package.json", Type: "blob"},
		{Path: "packages/adapter-node/package.json", Type: "blob"},
		{Path: "packages/adapter-static/package.json", Type: "blob"},
	}}
	gh.Files["sveltejs/kit:packages/kit/package.json"] = `{"description":"SvelteKit"}`
	gh.Files["sveltejs/kit:packages/adapter-node/package.json"] = `{"description":"Adapter for Node"}`
	gh.Files["sveltejs/kit:packages/adapter-static/package.json"] = `{"description":"Static adapter"}`
	gh.Trees["sveltejs/cli"] = &github.Tree{Tree: []github.TreeEntry{
		{Path: "packages/cli/package.json", Type: "blob"},
	}}
	gh.Files["sveltejs/cli:packages/cli/package.json"] = `{"description":"The Svelte CLI"}`

	npm := releasestest.NewRegistry(map[string]string{"@sveltejs/adapter-static": "use adapter-auto"})
	h := cache.NewHandler(nil)
	src := releases.NewSource(h, gh, releases.WithPackageRegistry(npm))
	return New(reg, src), gh, npm
}

func TestDiscoverer_GetOrDiscover(t *testing.T) {
	d, gh, _ := setup(t)
	ctx := context.Background()

	found, err := d.GetOrDiscover(ctx)
	if err != nil {
		t.Fatalf("GetOrDiscover: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("got %d entries, want 3", len(found))
	}

	names := func(dp DiscoveredPackage) string {
		var out []string
		for _, p := range dp.Packages {
			out = append(out, p.Name)
		}
		return strings.Join(out, ",")
	}
	if got := names(found[0]); got != "@sveltejs/kit" {
		t.Errorf("kit entry = %s", got)
	}
	if got := names(found[1]); got != "@sveltejs/adapter-node,@sveltejs/adapter-static" {
		t.Errorf("others/kit entry = %s", got)
	}
	if got := names(found[2]); got != "sv" {
		t.Errorf("cli entry = %s (untagged releases must be dropped)", got)
	}

	if desc := found[0].Packages[0].Description; desc != "SvelteKit" {
		t.Errorf("kit description = %q", desc)
	}
	if desc := found[2].Packages[0].Description; desc != "The Svelte CLI" {
		t.Errorf("sv description = %q (directory override)", desc)
	}
	static := found[1].Packages[1]
	if !static.Deprecated || static.Description != "" || static.DeprecationMessage != "use adapter-auto" {
		t.Errorf("deprecated package = %+v", static)
	}

	calls := gh.Calls("ListReleases")
	if _, err := d.GetOrDiscover(ctx); err != nil {
		t.Fatal(err)
	}
	if gh.Calls("ListReleases") != calls {
		t.Error("second GetOrDiscover should be memoized")
	}
}

func TestDiscoverer_Categorized(t *testing.T) {
	d, _, _ := setup(t)

	cats, err := d.GetOrDiscoverCategorized(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0].Category.Slug != "kit" || cats[1].Category.Slug != "others" {
		t.Fatalf("categories = %+v", cats)
	}
	if n := len(cats[1].Packages); n != 3 {
		t.Errorf("others has %d packages, want 3", n)
	}
	if cats[1].Packages[2].Package.Name != "sv" || cats[1].Packages[2].Repository.Name != "cli" {
		t.Errorf("last others entry = %+v", cats[1].Packages[2])
	}
}

func TestDiscoverer_FailureNotMemoized(t *testing.T) {
	d, gh, _ := setup(t)
	ctx := context.Background()

	gh.Fail["sveltejs/cli"] = errors.New("rate limited")
	if _, err := d.GetOrDiscover(ctx); err == nil {
		t.Fatal("expected discovery error")
	}

	delete(gh.Fail, "sveltejs/cli")
	found, err := d.GetOrDiscover(ctx)
	if err != nil || len(found) != 3 {
		t.Fatalf("retry = %d entries, %v", len(found), err)
	}
}

func TestDiscoverer_FindRepositoryAndNames(t *testing.T) {
	d, _, _ := setup(t)
	ctx := context.Background()

	repo, ok, err := d.FindRepository(ctx, "@SvelteJS/Adapter-Node")
	if err != nil || !ok {
		t.Fatalf("FindRepository = %v, %v", ok, err)
	}
	if repo.Name != "kit" || repo.Category.Slug != "others" {
		t.Errorf("repo = %+v", repo)
	}
	if _, ok, _ := d.FindRepository(ctx, "left-pad"); ok {
		t.Error("unknown package should not resolve")
	}

	names, err := d.PackageNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := "@sveltejs/kit,@sveltejs/adapter-node,@sveltejs/adapter-static,sv"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("PackageNames = %s, want %s", got, want)
	}
}

func TestDiscoverer_UpdateRepository(t *testing.T) {
	d, _, _ := setup(t)
	ctx := context.Background()

	if err := d.UpdateRepository(ctx, "sveltejs", "cli", nil); err != nil {
		t.Fatalf("UpdateRepository before discovery: %v", err)
	}
	if _, ok := d.memo.Peek(); ok {
		t.Fatal("update must not create a discovery")
	}

	if _, err := d.GetOrDiscover(ctx); err != nil {
		t.Fatal(err)
	}
	err := d.UpdateRepository(ctx, "sveltejs", "kit", []github.Release{
		releasestest.Release(5, "@sveltejs/kit@3.0.0", 5),
		releasestest.Release(6, "@sveltejs/adapter-vercel@5.0.0", 6),
	})
	if err != nil {
		t.Fatal(err)
	}

	found, _ := d.GetOrDiscover(ctx)
	if len(found[1].Packages) != 1 || found[1].Packages[0].Name != "@sveltejs/adapter-vercel" {
		t.Errorf("others/kit after update = %+v", found[1].Packages)
	}
	if len(found[0].Packages) != 1 || found[0].Packages[0].Name != "@sveltejs/kit" {
		t.Errorf("kit after update = %+v", found[0].Packages)
	}
	if found[2].Packages[0].Name != "sv" {
		t.Error("unrelated entries must be kept")
	}

	if err := d.UpdateRepository(ctx, "sveltejs", "nope", nil); err == nil {
		t.Error("unknown repository should fail")
	}
}

func TestDiscoverer_EmptyResultIsMemoized(t *testing.T) {
	reg, err := registry.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	d := New(reg, nil)
	d.memo = NewMemo(func(ctx context.Context) ([]DiscoveredPackage, error) {
		calls++
		return []DiscoveredPackage{}, nil
	})

	for range 3 {
		found, err := d.GetOrDiscover(context.Background())
		if err != nil || len(found) != 0 {
			t.Fatalf("found = %v, %v", found, err)
		}
	}
	if calls != 1 {
		t.Errorf("empty discovery computed %d times, want 1", calls)
	}

	d.Invalidate()
	d.GetOrDiscover(context.Background())
	if calls != 2 {
		t.Errorf("after Invalidate computed %d times, want 2", calls)
	}
}
