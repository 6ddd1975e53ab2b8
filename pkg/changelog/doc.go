// Package changelog parses Markdown changelogs into structured version entries.
//
// # Overview
//
// Many projects publish their history as a CHANGELOG.md file rather than as
// GitHub releases. [Parse] turns such a file into a [Changelog]: an optional
// document title, the free text preceding the first version, and one [Entry]
// per version heading.
//
// # Recognized Layout
//
//	# Project Changelog            <- title (first single-# heading)
//	Some introduction.             <- description
//
//	## [1.2.0] - 2024-05-01        <- entry: version "1.2.0", date "2024-05-01"
//	### Features                   <- subsection "Features"
//	- add thing                    <- list item (Parsed["_"] and Parsed["Features"])
//
//	[1.2.0]: https://example.com   <- link definitions are skipped
//
// A heading with one or two # characters that is not the title starts a new
// entry. Entries without a recognizable version token are still recorded with
// a nil Version so callers can decide what to do with them.
//
// # Lookup
//
// [Changelog.Find] locates the entry for a version string: an exact match is
// preferred, otherwise the first entry whose version contains the query.
package changelog
