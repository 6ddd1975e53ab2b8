// Package merge combines the releases of every repository publishing a
// logical package into one deduplicated history.
//
// # Algorithm
//
// For a package name, every discovered repository entry publishing it
// (case-insensitive) contributes its releases, fetched in parallel. Within a
// repository, releases without a tag or whose version is not strict semver
// are dropped and reported as anomalies; the rest are filtered to the
// package and sorted by version, highest first.
//
// The contributions are then walked in registry order. The first release
// seen for a version wins; later releases of the same version are skipped.
// Whenever an emitted version is greater than every version emitted before
// it, its repository becomes the authoritative home of the package
// ([PackageReleases.ReleasesRepo]). The result is sorted by publication
// time, newest first.
//
// # Partial Failures
//
// A repository whose releases cannot be fetched is skipped and listed in
// [PackageReleases.Unavailable]. A NETWORK_ERROR is returned when every
// contributing repository fails, or when the failures leave no valid
// release behind.
package merge
