package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/releasehub/internal/config"
	"github.com/matzehuels/releasehub/pkg/changelog"
)

func TestRootCommandStructure(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()

	if root.Use != "releasehub" {
		t.Errorf("root.Use = %q, want releasehub", root.Use)
	}

	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	sort.Strings(got)
	want := []string{"browse", "cache", "changelog", "completion", "discover", "refresh", "releases", "serve", "tracker"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("subcommands = %v, want %v", got, want)
	}

	for _, flag := range []string{"config", "dev", "cache", "no-cache"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	unsetCacheEnv(t)

	tests := []struct {
		name        string
		flags       globalFlags
		server      bool
		wantBackend string
		wantDev     bool
	}{
		{name: "serve keeps default backend", server: true, wantBackend: config.BackendRedis},
		{name: "commands default to file", wantBackend: config.BackendFile},
		{name: "explicit backend", flags: globalFlags{cache: config.BackendMemory}, wantBackend: config.BackendMemory},
		{name: "no cache wins", flags: globalFlags{cache: config.BackendMemory, noCache: true}, wantBackend: config.BackendNull},
		{name: "dev", flags: globalFlags{dev: true}, server: true, wantBackend: config.BackendRedis, wantDev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(io.Discard, log.InfoLevel)
			c.flags = tt.flags

			cfg, err := c.loadConfig(tt.server)
			if err != nil {
				t.Fatalf("loadConfig: %v", err)
			}
			if cfg.Cache.Backend != tt.wantBackend {
				t.Errorf("backend = %q, want %q", cfg.Cache.Backend, tt.wantBackend)
			}
			if cfg.Server.Dev != tt.wantDev {
				t.Errorf("dev = %v, want %v", cfg.Server.Dev, tt.wantDev)
			}
		})
	}
}

func TestLoadConfigFileKeepsBackend(t *testing.T) {
	unsetCacheEnv(t)
	path := filepath.Join(t.TempDir(), "releasehub.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"memory\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	c.flags.configPath = path
	cfg, err := c.loadConfig(false)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Backend != config.BackendMemory {
		t.Errorf("backend = %q, want memory", cfg.Cache.Backend)
	}
}

// unsetCacheEnv clears the variables that select a backend or mode for the
// duration of the test.
func unsetCacheEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RELEASEHUB_CACHE", "RELEASEHUB_DEV"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.flags.cache = "floppy"
	if _, err := c.loadConfig(false); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

const sampleChangelog = `# @sveltejs/kit

## 2.5.1

### Patch Changes

- fix: handle trailing slashes

## 2.5.0 (2024-03-01)

### Minor Changes

- feat: add reroute hook
- feat: support streaming

### Patch Changes

- fix: typo
`

func TestChangelogParseOutput(t *testing.T) {
	parsed := changelog.Parse(sampleChangelog)

	var buf bytes.Buffer
	if err := runChangelogParse(&buf, parsed, "", false); err != nil {
		t.Fatalf("runChangelogParse: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"@sveltejs/kit", "2.5.1", "2.5.0", "2024-03-01", "3 items", "2 versions"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestChangelogParseVersion(t *testing.T) {
	parsed := changelog.Parse(sampleChangelog)

	var buf bytes.Buffer
	if err := runChangelogParse(&buf, parsed, "2.5.0", false); err != nil {
		t.Fatalf("runChangelogParse: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "feat: add reroute hook") || strings.Contains(out, "trailing slashes") {
		t.Errorf("unexpected entry output:\n%s", out)
	}
	if strings.Index(out, "Minor Changes") > strings.Index(out, "Patch Changes") {
		t.Errorf("sections not sorted:\n%s", out)
	}

	if err := runChangelogParse(&buf, parsed, "9.9.9", false); err == nil {
		t.Error("expected error for unknown version")
	}
}

func TestChangelogParseJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := runChangelogParse(&buf, changelog.Parse(sampleChangelog), "2.5.1", true); err != nil {
		t.Fatalf("runChangelogParse: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": "2.5.1"`) {
		t.Errorf("JSON output missing version:\n%s", buf.String())
	}
}

func TestReadInputStdin(t *testing.T) {
	got, err := readInput(strings.NewReader("## 1.0.0"), "-")
	if err != nil || got != "## 1.0.0" {
		t.Errorf("readInput(-) = %q, %v", got, err)
	}
	if _, err := readInput(nil, filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		noun string
		want string
	}{
		{1, "package", "1 package"},
		{2, "package", "2 packages"},
		{0, "release", "0 releases"},
		{3, "repository", "3 repositories"},
		{1, "repository", "1 repository"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, tt.noun); got != tt.want {
			t.Errorf("plural(%d, %q) = %q, want %q", tt.n, tt.noun, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate = %q, want abcd…", got)
	}
	if got := truncate("héllo wörld", 6); got != "héllo…" {
		t.Errorf("truncate multibyte = %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Time{}, "—"},
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-2 * 24 * time.Hour), "2d ago"},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "Jan 2, 2024"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.t, now); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := New(io.Discard, log.InfoLevel).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), "releasehub") {
				t.Errorf("%s script does not mention releasehub", shell)
			}
		})
	}
}
