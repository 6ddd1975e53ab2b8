package releases

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/releasehub/pkg/cache"
	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/integrations/npm"
)

var testDirs = map[string]bool{
	"test":         true,
	"tests":        true,
	"__tests__":    true,
	"fixtures":     true,
	"node_modules": true,
}

func isTestPath(p string) bool {
	for _, seg := range strings.Split(path.Dir(p), "/") {
		if testDirs[seg] {
			return true
		}
	}
	return false
}

// GetDescriptions returns the "description" of every package.json in the
// repository outside test directories, keyed by file path.
func (s *Source) GetDescriptions(ctx context.Context, owner, name string) (map[string]string, error) {
	var out map[string]string
	err := s.cache.Cached(ctx, s.keys.RepoKey(owner, name, cache.KindDescriptions), DescriptionsTTL, false, &out, func() error {
		descriptions, err := s.fetchDescriptions(ctx, owner, name)
		out = descriptions
		return err
	})
	return out, err
}

func (s *Source) fetchDescriptions(ctx context.Context, owner, name string) (map[string]string, error) {
	tree, err := s.gh.GetTree(ctx, owner, name, "")
	if err != nil {
		return nil, err
	}
	if tree.Truncated {
		s.logger.Warn("tree truncated", "repo", owner+"/"+name)
	}

	var (
		mu  sync.Mutex
		out = make(map[string]string)
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, e := range tree.Tree {
		if e.Type != "blob" || path.Base(e.Path) != "package.json" || isTestPath(e.Path) {
			continue
		}
		g.Go(func() error {
			text, err := s.gh.GetFileContent(ctx, owner, name, e.Path, "")
			if err != nil {
				return fmt.Errorf("%s: %w", e.Path, err)
			}
			var manifest struct {
				Description string `json:"description"`
			}
			if err := json.Unmarshal([]byte(text), &manifest); err != nil {
				s.logger.Debug("invalid package.json", "repo", owner+"/"+name, "path", e.Path, "err", err)
			}
			mu.Lock()
			out[e.Path] = manifest.Description
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrgMembers returns the public members of owner. Lookup failures yield
// an empty list which is not cached.
func (s *Source) GetOrgMembers(ctx context.Context, owner string) []github.Author {
	key := s.keys.OwnerKey(owner, "members")

	var members []github.Author
	if s.cache.Get(ctx, key, &members) {
		return members
	}
	members, err := s.gh.ListOrgMembers(ctx, owner)
	if err != nil {
		s.logger.Warn("org members unavailable", "owner", owner, "err", err)
		return []github.Author{}
	}
	s.cache.Set(ctx, key, members, MembersTTL)
	return members
}

// GetDeprecation returns the deprecation state of pkg. Only packages that
// are not deprecated are cached, so a deprecation is picked up, or lifted,
// on the next lookup. Without a package registry nothing is deprecated.
func (s *Source) GetDeprecation(ctx context.Context, pkg string) (*npm.Deprecation, error) {
	if s.packages == nil {
		return &npm.Deprecation{}, nil
	}
	key := s.keys.PackageKey(pkg, "deprecation")

	var dep npm.Deprecation
	if s.cache.Get(ctx, key, &dep) {
		return &dep, nil
	}
	got, err := s.packages.GetDeprecation(ctx, pkg)
	if err != nil {
		return nil, err
	}
	if !got.Deprecated {
		s.cache.Set(ctx, key, got, DeprecationTTL)
	}
	return got, nil
}
