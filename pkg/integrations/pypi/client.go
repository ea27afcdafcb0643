package pypi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// DefaultBaseURL is the PyPI JSON API root.
const DefaultBaseURL = "https://pypi.org/pypi"

// Release holds the metadata PyPI reports for one release of a package.
//
// Zero values: all string fields are empty and Classifiers is nil when PyPI
// omits them. Safe for concurrent reads after construction.
type Release struct {
	Name              string   `json:"name"`    // Project name as published (e.g. "Flask")
	Version           string   `json:"version"` // Release version
	Summary           string   `json:"summary"` // One-line description (may be empty)
	HomePage          string   `json:"home_page"`
	License           string   `json:"license"`            // Free-form license field (may hold full text)
	LicenseExpression string   `json:"license_expression"` // PEP 639 SPDX expression (may be empty)
	Classifiers       []string `json:"classifiers"`
}

// Client provides access to the PyPI JSON API with caching and retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client caching responses in backend for ttl.
// A nil backend disables caching.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", ttl, nil),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another index (mirrors, tests).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchRelease retrieves GET <base>/<name>/<version>/json. An empty version
// fetches the latest release. Redirects (PyPI answers non-canonical names
// with 301) are followed transparently.
//
// Returns [integrations.ErrNotFound] for unknown packages or releases and
// [integrations.ErrNetwork] for transport failures and other statuses.
// If refresh is true, the cache is bypassed.
func (c *Client) FetchRelease(ctx context.Context, name, version string, refresh bool) (*Release, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty package name", integrations.ErrNotFound)
	}
	key := integrations.NormalizePkgName(name) + "@" + version

	var rel Release
	err := c.Cached(ctx, key, refresh, &rel, func() error {
		return c.fetch(ctx, name, version, &rel)
	})
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) fetch(ctx context.Context, name, version string, rel *Release) error {
	url := fmt.Sprintf("%s/%s/json", c.baseURL, integrations.PathEscape(name))
	if version != "" {
		url = fmt.Sprintf("%s/%s/%s/json", c.baseURL, integrations.PathEscape(name), integrations.PathEscape(version))
	}

	var data apiResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s %s", err, name, version)
		}
		return err
	}
	*rel = data.Info
	return nil
}

// FetchMetadata implements [integrations.MetadataFetcher].
func (c *Client) FetchMetadata(ctx context.Context, name, version string) (*integrations.Metadata, error) {
	rel, err := c.FetchRelease(ctx, name, version, false)
	if err != nil {
		return nil, err
	}
	return &integrations.Metadata{
		Name:     rel.Name,
		Version:  rel.Version,
		Summary:  rel.Summary,
		Homepage: rel.HomePage,
		Licenses: licenseStrings(rel),
	}, nil
}

type apiResponse struct {
	Info Release `json:"info"`
}

// licenseStrings picks the license identifiers of a release: the SPDX
// expression when present, else the license classifiers (e.g.
// "License :: OSI Approved :: MIT License" -> "MIT License"), else a short
// free-form license field.
func licenseStrings(rel *Release) []string {
	if e := strings.TrimSpace(rel.LicenseExpression); e != "" {
		return []string{e}
	}

	var out []string
	for _, c := range rel.Classifiers {
		if !strings.HasPrefix(c, "License :: ") {
			continue
		}
		parts := strings.Split(c, " :: ")
		if len(parts) >= 3 {
			out = append(out, parts[len(parts)-1])
		}
	}
	if len(out) > 0 {
		return out
	}

	if l := strings.TrimSpace(rel.License); l != "" && len(l) < 100 && !strings.Contains(l, "\n") {
		return []string{l}
	}
	return nil
}
