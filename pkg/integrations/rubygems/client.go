package rubygems

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// DefaultBaseURL is the rubygems.org API root.
const DefaultBaseURL = "https://rubygems.org/api"

// Client provides access to the RubyGems registry API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client caching responses in backend for ttl.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "rubygems:", ttl, nil),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another API root.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchMetadata retrieves the v2 version document for name@version, or the
// v1 gem document (current release) when version is empty.
func (c *Client) FetchMetadata(ctx context.Context, name, version string) (*integrations.Metadata, error) {
	name = strings.ToLower(strings.TrimSpace(name))

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
	url := fmt.Sprintf("%s/v1/gems/%s.json", c.baseURL, integrations.PathEscape(name))
	if version != "" {
		url = fmt.Sprintf("%s/v2/rubygems/%s/versions/%s.json", c.baseURL,
			integrations.PathEscape(name), integrations.PathEscape(version))
	}

	var data gemResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: gem %s", err, name)
		}
		return err
	}

	*meta = integrations.Metadata{
		Name:     data.Name,
		Version:  data.Version,
		Summary:  strings.TrimSpace(data.Info),
		Homepage: data.HomepageURI,
	}
	for _, l := range data.Licenses {
		if l = strings.TrimSpace(l); l != "" {
			meta.Licenses = append(meta.Licenses, l)
		}
	}
	return nil
}

type gemResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Info        string   `json:"info"`
	Licenses    []string `json:"licenses"`
	HomepageURI string   `json:"homepage_uri"`
}
