// Package cache provides the two-tier cache used by every upstream read.
//
// # Overview
//
// A [Handler] keeps an in-process mirror in front of a durable [Store]:
//
//	Handler ── mirror (map, RWMutex)
//	   │
//	   └────── Store (Redis JSON, MongoDB, files, memory, null)
//
// In [ModeDevelopment] only the mirror is used. In [ModeProduction] the store
// is authoritative: a mirrored entry is served only while its expiry agrees
// with the store's TTL within [DriftTolerance], so an eviction performed by
// another process is noticed on the next read.
//
// # Failure Handling
//
// Store errors are logged, reported to [observability.CacheHooks], and
// otherwise swallowed. A failed read is a miss; a failed write still lands in
// the mirror, flagged as not durable, and is served until its local expiry.
//
// # Keys
//
// Keys are built by a [Keyer]:
//
//	repo:sveltejs/kit:releases
//	repo:sveltejs/kit:issue:1234
//	owner:sveltejs:members
//	package:svelte:deprecation
//
// [NewScopedKeyer] prefixes every key for multi-tenant deployments.
package cache
