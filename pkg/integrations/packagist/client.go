package packagist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// DefaultBaseURL is the Packagist metadata repository.
const DefaultBaseURL = "https://repo.packagist.org"

// Client provides access to the Packagist p2 metadata API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Packagist client caching responses in backend for ttl.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "packagist:", ttl, nil),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another repository.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchMetadata retrieves /p2/<vendor>/<name>.json and reports the matching
// version, or the latest stable one when version is empty or absent.
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
	var data p2Response
	if err := c.Get(ctx, fmt.Sprintf("%s/p2/%s.json", c.baseURL, name), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: packagist package %s", err, name)
		}
		return err
	}

	versions := data.Packages[name]
	if len(versions) == 0 {
		return fmt.Errorf("%w: no versions for %s", integrations.ErrNotFound, name)
	}

	v, ok := findVersion(versions, version)
	if !ok {
		v = latestStable(versions)
	}
	*meta = integrations.Metadata{
		Name:     v.Name,
		Version:  v.Version,
		Summary:  v.Description,
		Homepage: v.Homepage,
		Licenses: v.License,
	}
	if meta.Name == "" {
		meta.Name = name
	}
	return nil
}

func findVersion(versions []p2Version, want string) (p2Version, bool) {
	if want == "" {
		return p2Version{}, false
	}
	want = strings.TrimPrefix(want, "v")
	for _, v := range versions {
		if strings.TrimPrefix(v.Version, "v") == want {
			return v, true
		}
	}
	return p2Version{}, false
}

func latestStable(versions []p2Version) p2Version {
	for _, v := range versions {
		lv := strings.ToLower(v.Version)
		if strings.Contains(lv, "dev") {
			continue
		}
		if strings.Contains(strings.TrimPrefix(lv, "v"), ".") {
			return v
		}
	}
	return versions[0]
}

type p2Response struct {
	Packages map[string][]p2Version `json:"packages"`
}

type p2Version struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     []string
}

// UnmarshalJSON accepts "license" as either a list or a single string.
func (v *p2Version) UnmarshalJSON(b []byte) error {
	var r struct {
		Name        string          `json:"name"`
		Version     string          `json:"version"`
		Description string          `json:"description"`
		Homepage    string          `json:"homepage"`
		License     json.RawMessage `json:"license"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*v = p2Version{Name: r.Name, Version: r.Version, Description: r.Description, Homepage: r.Homepage}

	if len(r.License) == 0 || string(r.License) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.License, &v.License); err != nil {
		var single string
		if json.Unmarshal(r.License, &single) == nil && single != "" {
			v.License = []string{single}
		}
	}
	return nil
}
