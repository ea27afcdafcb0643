// Package deps defines the package model shared by every package-manager
// adapter and the contract those adapters implement.
//
// # Model
//
// A [Package] is one installed dependency as reported by a package manager:
// its name and version, declared children (by name), install location and
// the raw license [Evidence] collected from manifests. Licenses are resolved
// later by the scanner; a resolved package always carries at least one
// license, [license.Unknown] included.
//
// Packages from different adapters that share a [Key] are reconciled with
// [(*Package).Merge] under a [MergePolicy].
//
// # Adapters
//
// Each ecosystem subpackage (python, javascript, golang, dart, ruby, rust,
// php) provides constructors returning a [PackageManager]. Adapters embed
// [Base], which carries the project root, filesystem, command runner and
// logger taken from [Options], and provides the helpers every adapter
// needs: file existence checks, command execution with the standard
// failure log line, and install-path joining.
//
// The contract is:
//
//   - Detect is side-effect free and never runs commands
//   - Prepare may install dependencies; its error is reported and the scan
//     continues
//   - CurrentPackages never fails: tool errors are logged and produce an
//     empty slice
package deps
