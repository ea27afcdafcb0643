// Package crates provides an HTTP client for the crates.io registry, used
// as a license fallback for cargo packages whose manifest declares none.
package crates
