package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/releasehub/pkg/integrations/github"
)

func TestRule_ExtractMetadata(t *testing.T) {
	tests := []struct {
		format      TagFormat
		repo        string
		tag         string
		wantName    string
		wantVersion string
	}{
		{TagLastAt, "kit", "@sveltejs/kit@2.5.0", "@sveltejs/kit", "2.5.0"},
		{TagLastAt, "svelte", "svelte@5.0.0-next.1", "svelte", "5.0.0-next.1"},
		{TagLastAt, "svelte", "v3.0.0", "", "v3.0.0"},
		{TagLastHyphen, "language-tools", "svelte-check-4.1.0", "svelte-check", "4.1.0"},
		{TagLastHyphen, "language-tools", "nohyphen", "", "nohyphen"},
		{TagRepoName, "eslint-config", "v7.0.0", "eslint-config", "7.0.0"},
		{TagRepoName, "svelte-devtools", "2.0.0", "svelte-devtools", "2.0.0"},
		{TagAtOrRepoName, "eslint-plugin-svelte", "eslint-plugin-svelte@3.0.0", "eslint-plugin-svelte", "3.0.0"},
		{TagAtOrRepoName, "eslint-plugin-svelte", "v2.46.0", "eslint-plugin-svelte", "2.46.0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+tt.tag, func(t *testing.T) {
			s, err := Rule{TagFormat: tt.format}.Compile(tt.repo)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			name, version := s.ExtractMetadata(tt.tag)
			if name != tt.wantName || version != tt.wantVersion {
				t.Errorf("ExtractMetadata(%q) = (%q, %q), want (%q, %q)", tt.tag, name, version, tt.wantName, tt.wantVersion)
			}
		})
	}
}

func TestRule_Compile_Errors(t *testing.T) {
	if _, err := (Rule{}).Compile("x"); err == nil {
		t.Error("missing tag_format should fail")
	}
	if _, err := (Rule{TagFormat: "first-dot"}).Compile("x"); err == nil {
		t.Error("unknown tag_format should fail")
	}
	bad := Rule{TagFormat: TagRepoName, Replace: []Replacement{{Pattern: "("}}}
	if _, err := bad.Compile("x"); err == nil {
		t.Error("invalid replace pattern should fail")
	}
}

func TestRule_FilterRelease(t *testing.T) {
	include, _ := Rule{TagFormat: TagLastAt, Filter: Filter{Include: "/kit@"}}.Compile("kit")
	exclude, _ := Rule{TagFormat: TagLastAt, Filter: Filter{Exclude: "/kit@"}}.Compile("kit")

	kit := github.Release{TagName: "@sveltejs/kit@2.0.0"}
	adapter := github.Release{TagName: "@sveltejs/adapter-node@5.0.0"}

	if !include.FilterRelease(kit) || include.FilterRelease(adapter) {
		t.Error("include filter should keep only kit tags")
	}
	if exclude.FilterRelease(kit) || !exclude.FilterRelease(adapter) {
		t.Error("exclude filter should drop kit tags")
	}
}

func TestRule_RewriteChangelog(t *testing.T) {
	s, err := Rule{
		TagFormat: TagRepoName,
		Replace:   []Replacement{{Pattern: `^# \[`, With: "## ["}},
	}.Compile("svelte-preprocess")
	if err != nil {
		t.Fatal(err)
	}
	in := "# Changelog\n# [6.0.0](link) (2024-06-01)\ntext # [not a heading\n# [5.1.0](link)\n"
	want := "# Changelog\n## [6.0.0](link) (2024-06-01)\ntext # [not a heading\n## [5.1.0](link)\n"
	if got := s.RewriteChangelog(in); got != want {
		t.Errorf("RewriteChangelog() =\n%q\nwant\n%q", got, want)
	}
}

func TestDefault(t *testing.T) {
	g := Default()

	if g.Len() != 14 {
		t.Errorf("Len() = %d, want 14", g.Len())
	}
	cats := g.Categories()
	if len(cats) != 3 || cats[0].Slug != "svelte" || cats[1].Slug != "kit" || cats[2].Slug != "others" {
		t.Errorf("Categories() = %+v", cats)
	}
	if n := len(g.Unique()); n != 13 {
		t.Errorf("Unique() = %d repos, want 13", n)
	}
	if kits := g.Find("sveltejs", "kit"); len(kits) != 2 {
		t.Errorf("Find(kit) = %d entries, want 2", len(kits))
	}

	for _, r := range g.All() {
		if r.Strategy == nil {
			t.Errorf("%s has no strategy", r.FullName())
		}
		if r.Owner != DefaultOwner {
			t.Errorf("%s owner = %q", r.FullName(), r.Owner)
		}
		if r.ChangelogPath != DefaultChangelogPath {
			t.Errorf("%s changelog path = %q", r.FullName(), r.ChangelogPath)
		}
	}

	preprocess := g.Find("sveltejs", "svelte-preprocess")[0]
	if preprocess.ChangesMode != ModeChangelog {
		t.Errorf("svelte-preprocess mode = %q", preprocess.ChangesMode)
	}
	if got := preprocess.Strategy.RewriteChangelog("# [1.0.0]"); got != "## [1.0.0]" {
		t.Errorf("svelte-preprocess rewrite = %q", got)
	}
	if got := g.Find("sveltejs", "svelte")[0].ChangesMode; got != ModeReleases {
		t.Errorf("svelte mode = %q", got)
	}
}

func TestRepository_PackageJSONPaths(t *testing.T) {
	r := Repository{Directories: map[string]string{"sv": "cli"}}

	tests := []struct {
		pkg  string
		want []string
	}{
		{"sv", []string{"packages/cli/package.json", "package.json"}},
		{"@sveltejs/kit", []string{"packages/@sveltejs/kit/package.json", "packages/kit/package.json", "package.json"}},
		{"svelte", []string{"packages/svelte/package.json", "package.json"}},
	}
	for _, tt := range tests {
		got := r.PackageJSONPaths(tt.pkg)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("PackageJSONPaths(%q) = %v, want %v", tt.pkg, got, tt.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	data := `
owner = "acme"

[[category]]
slug = "tools"
name = "Tools"

  [[category.repository]]
  name = "cli"
  owner = "other"
  tag_format = "repo-name"
  changes_mode = "changelog"
  changelog_path = "docs/CHANGES.md"
  changelog_ref = "main"

  [[category.repository]]
  name = "lib"
  tag_format = "last-at"
`
	path := filepath.Join(t.TempDir(), "registry.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	all := g.All()
	if len(all) != 2 {
		t.Fatalf("got %d repos, want 2", len(all))
	}
	cli, lib := all[0], all[1]
	if cli.FullName() != "other/cli" || cli.ChangelogPath != "docs/CHANGES.md" || cli.ChangelogRef != "main" {
		t.Errorf("cli = %+v", cli)
	}
	if lib.FullName() != "acme/lib" || lib.ChangesMode != ModeReleases {
		t.Errorf("lib = %+v", lib)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := map[string]string{
		"no tag format": "[[category]]\nslug=\"a\"\n[[category.repository]]\nname=\"x\"\n",
		"no name":       "[[category]]\nslug=\"a\"\n[[category.repository]]\ntag_format=\"last-at\"\n",
		"no slug":       "[[category]]\nname=\"A\"\n",
		"bad mode":      "[[category]]\nslug=\"a\"\n[[category.repository]]\nname=\"x\"\ntag_format=\"last-at\"\nchanges_mode=\"tags\"\n",
		"bad toml":      "[[category",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_RequiresStrategy(t *testing.T) {
	if _, err := New([]Repository{{Name: "x"}}); err == nil {
		t.Error("repository without strategy should be rejected")
	}
}
