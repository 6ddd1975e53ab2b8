// Package feed renders merged release histories as RSS 2.0 and JSON Feed
// documents.
//
// A [Feed] is built once from a package name, the URL it is served at and
// its releases, then encoded with [Feed.RSS] or [Feed.JSON]:
//
//	f := feed.New(requestURL, "svelte", releases)
//	data, err := f.RSS()
//
// The package name "all" switches the feed description to the
// every-package wording. Sibling feed links (rss.xml, rss.json, atom.xml)
// are derived from the request URL by replacing its last path segment.
package feed
