// Package tracker builds the maintainer work board of a repository: the
// open work of organization members that is not yet tied to an issue.
//
// A [Board] lists three things, each sorted by last update, newest first:
//
//   - pull requests authored by organization members whose body does not
//     reference an issue with a GitHub closing keyword ("fixes #12",
//     "closes owner/repo#3", "resolved https://github.com/...")
//   - issues opened by members
//   - discussions opened by members and updated since the start of the
//     previous calendar year
//
// An organization without public members yields a NOT_FOUND error.
package tracker
