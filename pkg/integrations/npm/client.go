package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// Client provides access to the npm registry. Safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm client caching responses in backend for ttl.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "npm:", ttl, nil),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another registry.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchMetadata retrieves GET <registry>/<name>/<version>. An empty version
// selects the "latest" dist-tag. Scoped names (@scope/pkg) are escaped.
func (c *Client) FetchMetadata(ctx context.Context, name, version string) (*integrations.Metadata, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if version == "" {
		version = "latest"
	}

	var meta integrations.Metadata
	err := c.Cached(ctx, name+"@"+version, false, &meta, func() error {
		return c.fetch(ctx, name, version, &meta)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *Client) fetch(ctx context.Context, name, version string, meta *integrations.Metadata) error {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, strings.ReplaceAll(name, "/", "%2F"), integrations.PathEscape(version))

	var data versionDoc
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s@%s", err, name, version)
		}
		return err
	}
	*meta = integrations.Metadata{
		Name:     data.Name,
		Version:  data.Version,
		Summary:  data.Description,
		Homepage: homepage(data),
		Licenses: Licenses(data.License, data.Licenses),
	}
	return nil
}

// Licenses extracts license identifiers from the package.json "license"
// field (a string or {"type": ...}) and the legacy "licenses" array.
func Licenses(license any, licenses []any) []string {
	var out []string
	if s := extractField(license, "type"); s != "" {
		out = append(out, s)
	}
	for _, l := range licenses {
		if s := extractField(l, "type"); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

type versionDoc struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	License     any    `json:"license"`
	Licenses    []any  `json:"licenses"`
	HomePage    string `json:"homepage"`
	Repository  any    `json:"repository"`
}

// homepage falls back to the repository URL, which may be a string or
// {"type": "git", "url": ...}.
func homepage(d versionDoc) string {
	if d.HomePage != "" {
		return d.HomePage
	}
	return integrations.NormalizeRepoURL(extractField(d.Repository, "url"))
}
