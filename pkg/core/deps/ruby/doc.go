// Package ruby provides the bundler adapter.
//
// Names, versions and the dependency tree come from Gemfile.lock, install
// locations from bundle list --paths, groups from the Gemfile and declared
// licenses from the installed gem specifications.
package ruby
