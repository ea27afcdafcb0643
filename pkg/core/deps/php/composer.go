// Package php provides the composer adapter.
package php

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/integrations/packagist"
)

// Composer combines composer licenses with the metadata in composer.lock.
type Composer struct {
	deps.Base
}

// NewComposer returns a composer adapter.
func NewComposer(opts deps.Options) (*Composer, error) {
	base, err := deps.NewBase("composer", opts)
	if err != nil {
		return nil, err
	}
	base.DefaultRegistry(func(backend cache.Cache, ttl time.Duration) integrations.MetadataFetcher {
		return packagist.NewClient(backend, ttl)
	})
	return &Composer{Base: base}, nil
}

func (c *Composer) Detect() bool {
	return c.Exists("composer.json") && c.Exists("composer.lock")
}

func (c *Composer) Prepare(ctx context.Context) error {
	return c.Exec(ctx, c.Command("composer", "install", "--no-scripts"))
}

func (c *Composer) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := c.Run(ctx, c.Command("composer", "licenses", "--format=json"))
	if !ok {
		return []*deps.Package{}
	}
	var report licensesReport
	if err := json.Unmarshal(deps.TrimJSON(out), &report); err != nil {
		c.LogErrors("parse composer licenses output: " + err.Error())
		return []*deps.Package{}
	}
	locked := c.readLock()

	names := make([]string, 0, len(report.Dependencies))
	for name := range report.Dependencies {
		names = append(names, name)
	}
	slices.Sort(names)

	pkgs := make([]*deps.Package, 0, len(names))
	for _, name := range names {
		entry := report.Dependencies[name]
		pkg := c.NewPackage(name, entry.Version)
		pkg.InstallPath = "vendor/" + name
		pkg.Evidence.Declared = append([]string(nil), entry.License...)

		if lp, ok := locked[name]; ok {
			pkg.Description = lp.Description
			pkg.Homepage = lp.Homepage
			for _, dep := range sortedKeys(lp.Require) {
				if !isPlatformRequirement(dep) {
					pkg.AddChild(strings.ToLower(dep))
				}
			}
			if lp.dev {
				pkg.AddGroup(deps.GroupDevelopment)
			} else {
				pkg.AddGroup(deps.GroupRuntime)
			}
		}
		pkgs = append(pkgs, pkg)
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

// readLock indexes composer.lock packages by name. A missing or broken
// lockfile only costs descriptions, children and groups.
func (c *Composer) readLock() map[string]lockPackage {
	out := make(map[string]lockPackage)
	data, err := c.ReadFile("composer.lock")
	if err != nil {
		return out
	}
	var lock composerLock
	if err := json.Unmarshal(data, &lock); err != nil {
		c.Logger.Debugf("parse composer.lock: %v", err)
		return out
	}
	for _, p := range lock.Packages {
		out[p.Name] = p
	}
	for _, p := range lock.PackagesDev {
		p.dev = true
		out[p.Name] = p
	}
	return out
}

// isPlatformRequirement reports requirements that are not packages: php
// itself, extensions, system libraries and composer's runtime APIs.
func isPlatformRequirement(name string) bool {
	n := strings.ToLower(name)
	return n == "php" || strings.HasPrefix(n, "php-") || strings.HasPrefix(n, "ext-") ||
		strings.HasPrefix(n, "lib-") || n == "composer-plugin-api" || n == "composer-runtime-api" ||
		!strings.Contains(n, "/")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

type licensesReport struct {
	Name         string `json:"name"`
	Dependencies map[string]struct {
		Version string   `json:"version"`
		License []string `json:"license"`
	} `json:"dependencies"`
}

type composerLock struct {
	Packages    []lockPackage `json:"packages"`
	PackagesDev []lockPackage `json:"packages-dev"`
}

type lockPackage struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Homepage    string            `json:"homepage"`
	Require     map[string]string `json:"require"`

	dev bool
}
