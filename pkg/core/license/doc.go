// Package license maps raw license evidence to canonical licenses.
//
// # Corpus
//
// The corpus is a YAML file plus license templates embedded in the binary.
// Every entry has a canonical name (an SPDX identifier where one exists),
// aliases, an optional template and optional distinctive patterns. The
// corpus is loaded once by [Default] and never mutated.
//
// # Matching
//
// Names are matched with [Matcher.FindByName] and [Matcher.FindAllByName];
// the latter understands expressions such as "(MIT OR Apache-2.0)" and
// "GPL-2.0 WITH Classpath-exception-2.0". License texts are matched with
// [Matcher.FindByText], which tolerates differing copyright lines, holder
// names, bullets and layout.
//
// [Matcher.Resolve] combines all evidence for a package into a [Set] using a
// fixed precedence: declared identifiers, then license texts, then names
// found in free text. Unmatched evidence resolves to [Unknown], so a
// resolved set is never empty.
package license
