package feed

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/releasehub/pkg/merge"
)

const (
	// Generator names the software producing the feeds.
	Generator = "releasehub"

	favicon  = "https://raw.githubusercontent.com/sveltejs/branding/master/svelte-logo.svg"
	category = "Technology"

	// AllPackages is the pseudo package name of the combined feed.
	AllPackages = "all"
)

var lastSegment = regexp.MustCompile(`[A-Za-z\d]+\.[A-Za-z\d]+$`)

// Feed is a release feed for one package or for every package.
type Feed struct {
	Title       string
	Description string
	Link        string
	XMLLink     string
	JSONLink    string
	AtomLink    string
	Updated     time.Time
	Items       []Item
}

// Item is one release entry.
type Item struct {
	ID          string
	Title       string
	Link        string
	Description string
	Content     string
	AuthorName  string
	AuthorLink  string
	Date        time.Time
	Published   *time.Time
}

// New builds the feed of packageName served at link.
func New(link, packageName string, releases []merge.Release) *Feed {
	subject := packageName
	if strings.EqualFold(packageName, AllPackages) {
		packageName = "All"
		subject = "all the packages"
	}
	f := &Feed{
		Title:       packageName + " releases",
		Description: fmt.Sprintf("The releases feed for %s.", subject),
		Link:        link,
		XMLLink:     sibling(link, "rss.xml"),
		JSONLink:    sibling(link, "rss.json"),
		AtomLink:    sibling(link, "atom.xml"),
		Items:       make([]Item, 0, len(releases)),
	}
	for _, r := range releases {
		it := Item{
			ID:          strconv.FormatInt(r.ID, 10),
			Title:       r.CleanName + "@" + r.CleanVersion,
			Link:        r.HTMLURL,
			Description: r.CleanName + " " + r.CleanVersion + " release",
			Content:     r.Body,
			Date:        r.Timestamp(),
			Published:   r.PublishedAt,
		}
		if r.Author != nil {
			it.AuthorName = r.Author.Login
			it.AuthorLink = r.Author.HTMLURL
		}
		if it.Date.After(f.Updated) {
			f.Updated = it.Date
		}
		f.Items = append(f.Items, it)
	}
	return f
}

func sibling(link, name string) string {
	u, q, _ := strings.Cut(link, "?")
	u = lastSegment.ReplaceAllString(u, name)
	if q != "" {
		u += "?" + q
	}
	return u
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Content string     `xml:"xmlns:content,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Docs          string    `xml:"docs"`
	Generator     string    `xml:"generator"`
	Language      string    `xml:"language"`
	Category      string    `xml:"category"`
	SelfLink      rssLink   `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type rssLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link,omitempty"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Description cdata   `xml:"description"`
	Content     *cdata  `xml:"content:encoded,omitempty"`
	Author      string  `xml:"author,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

// RSS encodes the feed as an RSS 2.0 document.
func (f *Feed) RSS() ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Content: "http://purl.org/rss/1.0/modules/content/",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:         f.Title,
			Link:          f.Link,
			Description:   f.Description,
			LastBuildDate: f.Updated.UTC().Format(time.RFC1123Z),
			Docs:          "https://validator.w3.org/feed/docs/rss2.html",
			Generator:     Generator,
			Language:      "en",
			Category:      category,
			SelfLink:      rssLink{Href: f.XMLLink, Rel: "self", Type: "application/rss+xml"},
			Items:         make([]rssItem, 0, len(f.Items)),
		},
	}
	for _, it := range f.Items {
		ri := rssItem{
			Title:       it.Title,
			Link:        it.Link,
			GUID:        rssGUID{Value: it.ID},
			PubDate:     it.Date.UTC().Format(time.RFC1123Z),
			Description: cdata{it.Description},
			Author:      it.AuthorName,
		}
		if it.Content != "" {
			ri.Content = &cdata{it.Content}
		}
		doc.Channel.Items = append(doc.Channel.Items, ri)
	}

	out, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

type jsonFeed struct {
	Version     string     `json:"version"`
	Title       string     `json:"title"`
	HomePageURL string     `json:"home_page_url"`
	FeedURL     string     `json:"feed_url"`
	Description string     `json:"description"`
	Favicon     string     `json:"favicon"`
	Items       []jsonItem `json:"items"`
}

type jsonItem struct {
	ID            string      `json:"id"`
	URL           string      `json:"url,omitempty"`
	Title         string      `json:"title"`
	Summary       string      `json:"summary"`
	ContentHTML   string      `json:"content_html,omitempty"`
	DateModified  string      `json:"date_modified"`
	DatePublished string      `json:"date_published,omitempty"`
	Author        *jsonAuthor `json:"author,omitempty"`
}

type jsonAuthor struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// JSON encodes the feed as a JSON Feed version 1 document.
func (f *Feed) JSON() ([]byte, error) {
	doc := jsonFeed{
		Version:     "https://jsonfeed.org/version/1",
		Title:       f.Title,
		HomePageURL: f.Link,
		FeedURL:     f.JSONLink,
		Description: f.Description,
		Favicon:     favicon,
		Items:       make([]jsonItem, 0, len(f.Items)),
	}
	for _, it := range f.Items {
		ji := jsonItem{
			ID:           it.ID,
			URL:          it.Link,
			Title:        it.Title,
			Summary:      it.Description,
			ContentHTML:  it.Content,
			DateModified: it.Date.UTC().Format(time.RFC3339),
		}
		if it.Published != nil {
			ji.DatePublished = it.Published.UTC().Format(time.RFC3339)
		}
		if it.AuthorName != "" || it.AuthorLink != "" {
			ji.Author = &jsonAuthor{Name: it.AuthorName, URL: it.AuthorLink}
		}
		doc.Items = append(doc.Items, ji)
	}

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode json feed: %w", err)
	}
	return out, nil
}
