package app

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasehub/internal/config"
	"github.com/matzehuels/releasehub/pkg/cache"
	"github.com/matzehuels/releasehub/pkg/registry"
	"github.com/matzehuels/releasehub/pkg/releases/releasestest"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	s, err := registry.Rule{TagFormat: registry.TagLastAt}.Compile("kit")
	if err != nil {
		t.Fatal(err)
	}
	reg, err := registry.New([]registry.Repository{{Owner: "sveltejs", Name: "kit", Strategy: s}})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestNew_DevMode(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Dev = true

	gh := releasestest.NewGitHub()
	gh.SetReleases("sveltejs", "kit",
		releasestest.Release(1, "@sveltejs/kit@2.0.0", 1),
		releasestest.Release(2, "@sveltejs/adapter-node@5.0.0", 2),
	)

	a, err := New(context.Background(), cfg, log.New(io.Discard),
		WithGitHub(gh),
		WithRegistry(testRegistry(t)),
		WithPackageRegistry(releasestest.NewRegistry(nil)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Cache.Mode() != cache.ModeDevelopment {
		t.Errorf("mode = %v, want development", a.Cache.Mode())
	}

	names, err := a.Discoverer.PackageNames(context.Background())
	if err != nil {
		t.Fatalf("PackageNames: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v", names)
	}

	found, err := a.Discoverer.GetOrDiscover(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	pr, err := a.Merge.PackageReleases(context.Background(), "@sveltejs/kit", found)
	if err != nil {
		t.Fatalf("PackageReleases: %v", err)
	}
	if len(pr.Releases) != 1 {
		t.Errorf("releases = %+v", pr.Releases)
	}
	if got := a.Counters.Snapshot().Sets; got == 0 {
		t.Error("cache hooks not wired to counters")
	}
}

func TestNew_ProductionUsesInjectedStore(t *testing.T) {
	cfg := config.Default()
	store := cache.NewMemoryStore(nil)
	gh := releasestest.NewGitHub()
	gh.SetReleases("sveltejs", "kit", releasestest.Release(1, "@sveltejs/kit@2.0.0", 1))

	a, err := New(context.Background(), cfg, nil, WithStore(store), WithGitHub(gh), WithRegistry(testRegistry(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.Source.GetReleases(context.Background(), a.Registry.All()[0]); err != nil {
		t.Fatal(err)
	}
	key := a.Source.Keys().RepoKey("sveltejs", "kit", cache.KindReleases)
	if ok, _ := store.Exists(context.Background(), key); !ok {
		t.Errorf("%s not written to the durable store", key)
	}
}

func TestNew_BadRegistryFile(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Dev = true
	cfg.Registry.File = "/nonexistent/registry.toml"
	if _, err := New(context.Background(), cfg, nil, WithGitHub(releasestest.NewGitHub())); err == nil {
		t.Error("expected error for missing registry file")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		cfg     config.CacheConfig
		wantErr bool
	}{
		{config.CacheConfig{Backend: config.BackendFile, Dir: t.TempDir()}, false},
		{config.CacheConfig{Backend: config.BackendMemory}, false},
		{config.CacheConfig{Backend: config.BackendNull}, false},
		{config.CacheConfig{Backend: "memcached"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Backend, func(t *testing.T) {
			s, err := OpenStore(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				s.Close()
			}
		})
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/xdg/releasehub" {
		t.Errorf("CacheDir() = %q", dir)
	}
}
