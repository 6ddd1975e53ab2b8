// Package releases fetches and caches release history and related GitHub
// data for registry repositories.
//
// # Overview
//
// [Source] is the read path between the upstream APIs and the cache. Every
// read goes through a [cache.Handler] under its own key namespace and TTL:
//
//	repo:{owner}/{name}:releases                 15 minutes
//	repo:{owner}/{name}:descriptions             10 days
//	repo:{owner}/{name}:{issue|pr|discussion}:N  2 hours
//	repo:{owner}/{name}:{issues|prs|discussions} 2 hours
//	owner:{owner}:members                        2 days
//	package:{name}:deprecation                   2 days
//
// # Release Modes
//
// Repositories in [registry.ModeReleases] return GitHub releases as-is.
// Repositories in [registry.ModeChangelog] have no release objects; their
// releases are synthesized from the tag list and the changelog file: each
// tag is mapped to a version by the repository strategy and paired with the
// changelog entry for that version. Synthesized ids are 63-bit xxhash sums
// of "owner/repo@tag", stable across runs.
//
// # Failures
//
// Upstream failures on a cache miss propagate to the caller and nothing is
// cached. Organization members are the exception: a failed lookup yields an
// empty list. Cache store failures never surface; see package cache.
package releases
