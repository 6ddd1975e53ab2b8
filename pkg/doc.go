// Package pkg provides the core libraries of releasehub, a release notes
// aggregator for a family of GitHub repositories.
//
// # Overview
//
// A registry lists the repositories to follow and how their release tags
// name packages. Releases are fetched from GitHub, cached, attributed to
// packages and merged per package across repositories:
//
//	[registry] (repositories + tag rules)
//	     ↓
//	[releases] (GitHub fetch through [cache])
//	     ↓
//	[discovery] (package names from tags)
//	     ↓
//	[merge] (one history per package)
//	     ↓
//	JSON API, RSS and JSON feeds
//
// # Packages
//
//   - [cache]: two-level cache with Redis, MongoDB, file and memory stores
//   - [registry]: the followed repositories and their tag rules
//   - [releases]: cached access to releases, items and package metadata
//   - [discovery]: derives packages from release tags
//   - [merge]: merges and deduplicates releases per package
//   - [tracker]: member work boards of a repository
//   - [feed]: RSS 2.0 and JSON Feed rendering
//   - [changelog]: Markdown changelog parsing
//   - [integrations]: GitHub REST and GraphQL, and npm registry clients
//   - [observability]: cache, HTTP and anomaly hooks
//   - [errors]: coded errors with HTTP status mapping
//   - [buildinfo]: version information
//
// [cache]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/cache
// [registry]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/registry
// [releases]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/releases
// [discovery]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/discovery
// [merge]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/merge
// [tracker]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/tracker
// [feed]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/feed
// [changelog]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/changelog
// [integrations]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/integrations
// [observability]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/releasehub/pkg/buildinfo
package pkg
