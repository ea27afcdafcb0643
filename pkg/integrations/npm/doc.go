// Package npm provides an HTTP client for the npm registry.
//
// It is used as a license fallback for JavaScript packages (npm, pnpm,
// yarn) whose installed metadata carries no license. [Licenses] is shared
// with the npm adapter, which sees the same package.json license shapes.
package npm
