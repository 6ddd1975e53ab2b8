// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package reads the deprecation state of published packages from the
// npm registry (https://registry.npmjs.org). Deprecated packages are shown
// without a description because their source may already be gone.
//
// # Usage
//
//	client := npm.NewClient("")
//	dep, err := client.GetDeprecation(ctx, "@sveltejs/adapter-static")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if dep.Deprecated {
//	    fmt.Println("deprecated:", dep.Message)
//	}
//
// # Registry Format
//
// [Client.GetDeprecation] calls GET /{name}/latest. The "deprecated" field
// may be a boolean or a message string; both are accepted. Scoped names keep
// their "@" and have the "/" escaped.
package npm
