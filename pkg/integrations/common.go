package integrations

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or release doesn't exist in the
	// registry.
	ErrNotFound = cache.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// unexpected status codes).
	ErrNetwork = cache.ErrNetwork
)

// Metadata is what a registry reports about one release of a package.
// Every field may be empty.
type Metadata struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Summary  string   `json:"summary,omitempty"`
	Homepage string   `json:"homepage,omitempty"`
	Licenses []string `json:"licenses,omitempty"` // declared identifiers or expressions
}

// MetadataFetcher is implemented by registry clients that can describe a
// specific release. An empty version selects the latest release.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, name, version string) (*Metadata, error)
}

// NewHTTPClient creates an HTTP client with a standard timeout for registry
// requests. Redirects are followed.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizePkgName converts a package name to its canonical form:
// lowercase, underscores replaced with hyphens (PEP 503).
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical
// HTTPS form. Returns "" if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	return strings.TrimSuffix(s, ".git")
}

// PathEscape escapes a package name for use as one URL path segment.
func PathEscape(s string) string { return url.PathEscape(s) }
