// Package javascript provides the npm, pnpm and yarn adapters.
//
// Only one of them applies to a project: npm steps aside when a yarn.lock
// or pnpm-lock.yaml is present.
package javascript
