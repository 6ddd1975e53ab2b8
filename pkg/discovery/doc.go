// Package discovery derives the logical packages published by registry
// repositories.
//
// Every release tag that passes the repository filter is mapped through the
// repository strategy to a package name. Names are deduplicated in order of
// first appearance and decorated with the description found in the
// repository's package.json files and with the registry deprecation state.
// Deprecated packages lose their description.
//
// The discovery result is held in a [Memo]: it is computed once on first
// access and kept until [Discoverer.Invalidate], [Discoverer.DiscoverAll] or
// [Discoverer.UpdateRepository] replace it. An empty result is a valid,
// memoized result.
package discovery
