// Package pkg holds the licensetower libraries.
//
// The scan engine lives under core:
//
//   - [core/license] matches license names, expressions and texts against the
//     embedded corpus
//   - [core/deps] models packages and defines the package-manager adapter
//     contract; its subpackages implement one adapter per tool
//   - [core/scan] runs the adapters of a project and resolves every package
//
// Supporting packages: [command] runs external tools, [config] loads settings
// and the environment snapshot, [cache] and [integrations] back the registry
// lookups, [io] exports reports, [api] serves scans over HTTP, and
// [observability] exposes hooks for metrics and tracing.
//
// The typical flow:
//
//	project files ─→ adapters (Detect, Prepare, CurrentPackages)
//	              ─→ license files + registry fallback
//	              ─→ Matcher.Resolve ─→ Dedup ─→ Result
//
// [core/license]: github.com/matzehuels/licensetower/pkg/core/license
// [core/deps]: github.com/matzehuels/licensetower/pkg/core/deps
// [core/scan]: github.com/matzehuels/licensetower/pkg/core/scan
// [command]: github.com/matzehuels/licensetower/pkg/command
// [config]: github.com/matzehuels/licensetower/pkg/config
// [cache]: github.com/matzehuels/licensetower/pkg/cache
// [integrations]: github.com/matzehuels/licensetower/pkg/integrations
// [io]: github.com/matzehuels/licensetower/pkg/io
// [api]: github.com/matzehuels/licensetower/pkg/api
// [observability]: github.com/matzehuels/licensetower/pkg/observability
package pkg
