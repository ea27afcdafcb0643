// Package packagist provides an HTTP client for repo.packagist.org, used
// as a license fallback for composer packages with no installed license.
package packagist
