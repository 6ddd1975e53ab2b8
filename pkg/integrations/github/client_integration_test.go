//go:build integration

package github

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestListReleases_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := NewClient(token, "")
	releases, err := c.ListReleases(ctx, "sveltejs", "svelte")
	if err != nil {
		t.Fatalf("ListReleases: %v", err)
	}
	if len(releases) == 0 {
		t.Error("expected releases for sveltejs/svelte")
	}

	content, err := c.GetFileContent(ctx, "sveltejs", "svelte", "package.json", "")
	if err != nil {
		t.Fatalf("GetFileContent: %v", err)
	}
	if content == "" {
		t.Error("package.json should not be empty")
	}
}

func TestListDiscussions_Integration(t *testing.T) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		t.Skip("GITHUB_TOKEN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := NewGraphQLClient(ctx, token, "", nil)
	if _, err := c.ListDiscussions(ctx, "sveltejs", "kit"); err != nil {
		t.Fatalf("ListDiscussions: %v", err)
	}
}
