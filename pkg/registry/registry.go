package registry

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultOwner is the owner of repositories that do not name one.
const DefaultOwner = "sveltejs"

// DefaultChangelogPath is the changelog file read in changelog mode.
const DefaultChangelogPath = "CHANGELOG.md"

// ChangesMode selects where a repository's release history comes from.
type ChangesMode string

const (
	// ModeReleases reads native GitHub releases.
	ModeReleases ChangesMode = "releases"
	// ModeChangelog synthesizes releases from tags and a changelog file.
	ModeChangelog ChangesMode = "changelog"
)

// Category groups repositories for display.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Repository is one tracked upstream repository. The same physical
// repository may appear more than once with different filters.
type Repository struct {
	Owner         string            `json:"owner"`
	Name          string            `json:"name"`
	Category      Category          `json:"category"`
	ChangesMode   ChangesMode       `json:"changes_mode"`
	ChangelogPath string            `json:"changelog_path,omitempty"`
	ChangelogRef  string            `json:"changelog_ref,omitempty"`
	Directories   map[string]string `json:"-"`
	Strategy      Strategy          `json:"-"`
}

// FullName returns "owner/name".
func (r Repository) FullName() string { return r.Owner + "/" + r.Name }

// Same reports whether r and other are the same registry entry.
func (r Repository) Same(other Repository) bool {
	return r.Owner == other.Owner && r.Name == other.Name && r.Category.Slug == other.Category.Slug
}

// PackageDir returns the directory under packages/ holding pkg. Scoped
// names keep their scope; callers also try the basename.
func (r Repository) PackageDir(pkg string) string {
	if dir, ok := r.Directories[pkg]; ok {
		return dir
	}
	return pkg
}

// PackageJSONPaths lists the manifest paths consulted for the description
// of pkg, most specific first.
func (r Repository) PackageJSONPaths(pkg string) []string {
	dir := r.PackageDir(pkg)
	paths := []string{"packages/" + dir + "/package.json"}
	if base := path.Base(dir); base != dir {
		paths = append(paths, "packages/"+base+"/package.json")
	}
	return append(paths, "package.json")
}

// RepoRef identifies a physical repository.
type RepoRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r RepoRef) String() string { return r.Owner + "/" + r.Name }

// Registry is the ordered set of tracked repositories.
type Registry struct {
	repos []Repository
}

// New creates a registry from already-built repositories. Every repository
// must carry a strategy.
func New(repos []Repository) (*Registry, error) {
	for i, r := range repos {
		if r.Strategy == nil {
			return nil, fmt.Errorf("repository %s: no strategy", r.FullName())
		}
		if r.Owner == "" {
			repos[i].Owner = DefaultOwner
		}
		if r.ChangesMode == "" {
			repos[i].ChangesMode = ModeReleases
		}
		if r.ChangelogPath == "" {
			repos[i].ChangelogPath = DefaultChangelogPath
		}
	}
	return &Registry{repos: repos}, nil
}

// All returns the repositories in registry order.
func (g *Registry) All() []Repository {
	out := make([]Repository, len(g.repos))
	copy(out, g.repos)
	return out
}

// Len returns the number of entries.
func (g *Registry) Len() int { return len(g.repos) }

// Find returns every entry for owner/name, in registry order.
func (g *Registry) Find(owner, name string) []Repository {
	var out []Repository
	for _, r := range g.repos {
		if strings.EqualFold(r.Owner, owner) && strings.EqualFold(r.Name, name) {
			out = append(out, r)
		}
	}
	return out
}

// Contains reports whether owner/name is tracked.
func (g *Registry) Contains(owner, name string) bool {
	return len(g.Find(owner, name)) > 0
}

// Unique returns the distinct physical repositories in first-seen order.
func (g *Registry) Unique() []RepoRef {
	seen := make(map[string]bool)
	var out []RepoRef
	for _, r := range g.repos {
		ref := RepoRef{Owner: r.Owner, Name: r.Name}
		if seen[ref.String()] {
			continue
		}
		seen[ref.String()] = true
		out = append(out, ref)
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (g *Registry) Categories() []Category {
	seen := make(map[string]bool)
	var out []Category
	for _, r := range g.repos {
		if seen[r.Category.Slug] {
			continue
		}
		seen[r.Category.Slug] = true
		out = append(out, r.Category)
	}
	return out
}

//go:embed default.toml
var defaultTOML string

// Default returns the built-in registry.
func Default() *Registry {
	g, err := Load(strings.NewReader(defaultTOML))
	if err != nil {
		panic(fmt.Sprintf("registry: embedded default: %v", err))
	}
	return g
}

type file struct {
	Owner       string            `toml:"owner"`
	Directories map[string]string `toml:"directories"`
	Categories  []struct {
		Slug         string      `toml:"slug"`
		Name         string      `toml:"name"`
		Repositories []fileEntry `toml:"repository"`
	} `toml:"category"`
}

type fileEntry struct {
	Owner         string      `toml:"owner"`
	Name          string      `toml:"name"`
	ChangesMode   ChangesMode `toml:"changes_mode"`
	ChangelogPath string      `toml:"changelog_path"`
	ChangelogRef  string      `toml:"changelog_ref"`
	Rule
}

// Load parses a registry from TOML.
func Load(r io.Reader) (*Registry, error) {
	var f file
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if f.Owner == "" {
		f.Owner = DefaultOwner
	}

	var repos []Repository
	for _, c := range f.Categories {
		if c.Slug == "" {
			return nil, fmt.Errorf("category %q: missing slug", c.Name)
		}
		for _, e := range c.Repositories {
			if e.Name == "" {
				return nil, fmt.Errorf("category %s: repository without name", c.Slug)
			}
			switch e.ChangesMode {
			case "", ModeReleases, ModeChangelog:
			default:
				return nil, fmt.Errorf("repository %s: unknown changes_mode %q", e.Name, e.ChangesMode)
			}
			strategy, err := e.Rule.Compile(e.Name)
			if err != nil {
				return nil, err
			}
			owner := e.Owner
			if owner == "" {
				owner = f.Owner
			}
			repos = append(repos, Repository{
				Owner:         owner,
				Name:          e.Name,
				Category:      Category{Slug: c.Slug, Name: c.Name},
				ChangesMode:   e.ChangesMode,
				ChangelogPath: e.ChangelogPath,
				ChangelogRef:  e.ChangelogRef,
				Directories:   f.Directories,
				Strategy:      strategy,
			})
		}
	}
	return New(repos)
}

// LoadFile parses a registry from a TOML file.
func LoadFile(filename string) (*Registry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
