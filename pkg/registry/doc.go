// Package registry describes the upstream repositories whose releases are
// aggregated.
//
// # Overview
//
// A [Registry] is an ordered list of [Repository] entries grouped into
// categories. Order matters: it breaks ties when two repositories publish
// the same package version, and it is the order categories are shown in.
//
// Each repository carries exactly one [Strategy] which maps raw tags to
// (package, version) pairs, filters releases, and rewrites changelog text
// before parsing. Strategies are compiled from declarative [Rule] values so
// the whole registry lives in a TOML file:
//
//	[[category]]
//	slug = "kit"
//	name = "SvelteKit"
//
//	  [[category.repository]]
//	  name = "kit"
//	  tag_format = "last-at"
//	  filter = { include = "/kit@" }
//
// # Tag Formats
//
//   - last-at: split at the last "@" ("@sveltejs/kit@2.0.0" → "@sveltejs/kit", "2.0.0")
//   - last-hyphen: split at the last "-" ("svelte-check-4.1.0" → "svelte-check", "4.1.0")
//   - repo-name: the repository name and the tag without a leading "v"
//   - at-or-repo-name: last-at when the tag contains "@", else repo-name
//
// A separator-based format applied to a tag without the separator yields an
// empty package name; such releases are not visible.
//
// # Default Registry
//
// [Default] returns the embedded registry of the Svelte organization.
package registry
