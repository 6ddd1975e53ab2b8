// Package github provides clients for the GitHub REST and GraphQL APIs.
//
// # Overview
//
// [Client] reads releases, tags, file contents, commits, trees, organization
// members, issues, pull requests and comments from the REST API
// (https://api.github.com). [GraphQLClient] covers what REST does not:
// repository discussions and the issue/pull request cross references
// (closedByPullRequestsReferences and closingIssuesReferences).
//
// # Usage
//
//	client := github.NewClient(token, "")
//	releases, err := client.ListReleases(ctx, "sveltejs", "kit")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gql := github.NewGraphQLClient(ctx, token, "", nil)
//	discussions, err := gql.ListDiscussions(ctx, "sveltejs", "kit")
//
// # Authentication
//
// A token is optional for REST but recommended: without one the client is
// limited to 60 requests/hour. The GraphQL API always requires a token.
//
// # Pagination
//
// Every list method reads a single page of [PerPage] items, newest first.
//
// # Webhooks
//
// [VerifySignature] validates the X-Hub-Signature-256 header of incoming
// webhook deliveries and [ReleaseEvent] decodes "release" events.
//
// # Errors
//
// Missing resources wrap [integrations.ErrNotFound]; check with errors.Is.
package github
