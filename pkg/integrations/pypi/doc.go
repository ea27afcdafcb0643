// Package pypi provides an HTTP client for the Python Package Index JSON API.
//
// The Python adapters use it to fill summaries, homepages and missing
// license evidence:
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//	meta, err := client.FetchMetadata(ctx, "requests", "2.31.0")
//
// [Client.FetchRelease] targets one release (GET /pypi/<name>/<version>/json)
// and follows PyPI's redirects for non-canonical names. Responses are cached
// under the "pypi:" namespace.
package pypi
