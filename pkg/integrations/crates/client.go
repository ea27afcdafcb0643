package crates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// DefaultBaseURL is the crates.io API root.
const DefaultBaseURL = "https://crates.io/api/v1"

const userAgent = "licensetower (https://github.com/matzehuels/licensetower)"

// Client provides access to the crates.io registry API. crates.io rejects
// requests without a User-Agent, so one is always sent.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client caching responses in backend for ttl.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	headers := map[string]string{"User-Agent": userAgent}
	return &Client{
		Client:  integrations.NewClient(backend, "crates:", ttl, headers),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another registry API root.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchMetadata retrieves the crate document and reports the license of
// the requested version, falling back to max_version when version is empty
// or not published.
func (c *Client) FetchMetadata(ctx context.Context, name, version string) (*integrations.Metadata, error) {
	name = strings.TrimSpace(name)

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
	var data crateResponse
	if err := c.Get(ctx, c.baseURL+"/crates/"+integrations.PathEscape(name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, name)
		}
		return err
	}

	want := version
	if want == "" {
		want = data.Crate.MaxVersion
	}
	picked := data.Crate.MaxVersion
	var license string
	for _, v := range data.Versions {
		if v.Num == want {
			picked, license = v.Num, v.License
			break
		}
		if v.Num == data.Crate.MaxVersion && license == "" {
			license = v.License
		}
	}

	*meta = integrations.Metadata{
		Name:     data.Crate.Name,
		Version:  picked,
		Summary:  strings.TrimSpace(data.Crate.Description),
		Homepage: data.Crate.Homepage,
	}
	if license = strings.TrimSpace(license); license != "" {
		meta.Licenses = []string{license}
	}
	return nil
}

type crateResponse struct {
	Crate struct {
		Name        string `json:"name"`
		MaxVersion  string `json:"max_version"`
		Description string `json:"description"`
		Homepage    string `json:"homepage"`
	} `json:"crate"`
	Versions []struct {
		Num     string `json:"num"`
		License string `json:"license"`
	} `json:"versions"`
}
