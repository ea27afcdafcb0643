// Package integrations provides HTTP clients for package registry APIs.
//
// Registry clients are used for optional enrichment only: a scan never
// depends on the network. Each registry has its own subpackage:
//
//   - [pypi]: Python Package Index (summaries, pip)
//   - [npm]: npm registry (npm, pnpm, yarn)
//   - [crates]: crates.io (cargo)
//   - [rubygems]: rubygems.org (bundler)
//   - [packagist]: Packagist (composer)
//
// All clients implement [MetadataFetcher] and share the [Client] type, which
// provides response caching through [cache.Cache], retries with backoff for
// 5xx and transport failures, and observability hooks.
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//	meta, err := client.FetchMetadata(ctx, "requests", "2.31.0")
//
// [pypi]: github.com/matzehuels/licensetower/pkg/integrations/pypi
// [npm]: github.com/matzehuels/licensetower/pkg/integrations/npm
// [crates]: github.com/matzehuels/licensetower/pkg/integrations/crates
// [rubygems]: github.com/matzehuels/licensetower/pkg/integrations/rubygems
// [packagist]: github.com/matzehuels/licensetower/pkg/integrations/packagist
// [cache.Cache]: github.com/matzehuels/licensetower/pkg/cache.Cache
package integrations
