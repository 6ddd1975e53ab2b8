// Package integrations provides the HTTP plumbing shared by upstream API clients.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [github]: GitHub REST and GraphQL APIs (releases, tags, contents, items)
//   - [npm]: npm registry (deprecation status)
//
// # Shared Infrastructure
//
// [Client] wraps an [http.Client] with default headers, status mapping and
// optional retries:
//
//	200      -> nil
//	404      -> ErrNotFound
//	429      -> *errors.RateLimitedError (also 403 with X-RateLimit-Remaining: 0)
//	401, 403 -> ErrUnauthorized
//	5xx      -> ErrNetwork (retryable)
//	other    -> ErrNetwork
//
// Clients do no caching of their own; callers wrap reads with a cache.Handler.
//
// [github]: github.com/matzehuels/releasehub/pkg/integrations/github
// [npm]: github.com/matzehuels/releasehub/pkg/integrations/npm
package integrations
