package feed

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/releasehub/pkg/integrations/github"
	"github.com/matzehuels/releasehub/pkg/merge"
)

func releases() []merge.Release {
	published := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return []merge.Release{
		{
			CleanName:    "svelte",
			CleanVersion: "5.1.0",
			Release: github.Release{
				ID: 42, TagName: "svelte@5.1.0", Body: "### Patch Changes\n\n- fix <b>things</b>",
				HTMLURL:     "https://github.com/sveltejs/svelte/releases/tag/svelte@5.1.0",
				CreatedAt:   published.Add(-time.Hour),
				PublishedAt: &published,
				Author:      &github.Author{Login: "rich", HTMLURL: "https://github.com/rich"},
			},
		},
		{
			CleanName:    "svelte",
			CleanVersion: "5.0.0",
			Release: github.Release{
				ID: 41, TagName: "svelte@5.0.0",
				CreatedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

func TestSibling(t *testing.T) {
	tests := []struct {
		link, name, want string
	}{
		{"https://example.com/package/svelte/rss.xml", "rss.json", "https://example.com/package/svelte/rss.json"},
		{"https://example.com/rss.json?package=svelte", "atom.xml", "https://example.com/atom.xml?package=svelte"},
		{"https://example.com/feed", "rss.xml", "https://example.com/feed"},
	}
	for _, tt := range tests {
		if got := sibling(tt.link, tt.name); got != tt.want {
			t.Errorf("sibling(%q, %q) = %q, want %q", tt.link, tt.name, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	f := New("https://example.com/rss.xml?package=svelte", "svelte", releases())
	if f.Title != "svelte releases" || !strings.Contains(f.Description, "for svelte") {
		t.Errorf("title/description = %q / %q", f.Title, f.Description)
	}
	if len(f.Items) != 2 {
		t.Fatalf("items = %d", len(f.Items))
	}
	if f.Items[0].Title != "svelte@5.1.0" || f.Items[0].Description != "svelte 5.1.0 release" {
		t.Errorf("item = %+v", f.Items[0])
	}
	if !f.Updated.Equal(*releases()[0].PublishedAt) {
		t.Errorf("updated = %v", f.Updated)
	}

	all := New("https://example.com/rss.xml?package=all", "ALL", nil)
	if all.Title != "All releases" || !strings.Contains(all.Description, "all the packages") {
		t.Errorf("all feed = %q / %q", all.Title, all.Description)
	}
}

func TestRSS(t *testing.T) {
	data, err := New("https://example.com/rss.xml?package=svelte", "svelte", releases()).RSS()
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Error("missing xml header")
	}

	var doc struct {
		Version string `xml:"version,attr"`
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title       string `xml:"title"`
				GUID        string `xml:"guid"`
				Description string `xml:"description"`
				Encoded     string `xml:"encoded"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, data)
	}
	if doc.Version != "2.0" || doc.Channel.Title != "svelte releases" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Channel.Items) != 2 {
		t.Fatalf("items = %d", len(doc.Channel.Items))
	}
	first := doc.Channel.Items[0]
	if first.GUID != "42" || first.Description != "svelte 5.1.0 release" {
		t.Errorf("item = %+v", first)
	}
	if !strings.Contains(first.Encoded, "<b>things</b>") {
		t.Errorf("content = %q", first.Encoded)
	}
}

func TestJSON(t *testing.T) {
	data, err := New("https://example.com/rss.json?package=svelte", "svelte", releases()).JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var doc jsonFeed
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Version != "https://jsonfeed.org/version/1" || doc.FeedURL != "https://example.com/rss.json?package=svelte" {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("items = %d", len(doc.Items))
	}
	if doc.Items[0].DatePublished != "2026-03-02T10:00:00Z" || doc.Items[0].Author == nil || doc.Items[0].Author.Name != "rich" {
		t.Errorf("item 0 = %+v", doc.Items[0])
	}
	if doc.Items[1].DatePublished != "" || doc.Items[1].Author != nil {
		t.Errorf("item 1 = %+v", doc.Items[1])
	}
}
