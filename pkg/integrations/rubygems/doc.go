// Package rubygems provides an HTTP client for rubygems.org, used as a
// license fallback for bundler packages whose gemspec declares none.
package rubygems
