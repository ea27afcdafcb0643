package python

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/integrations/pypi"
)

func newRegistry(backend cache.Cache, ttl time.Duration) integrations.MetadataFetcher {
	return pypi.NewClient(backend, ttl)
}

func newBase(name string, opts deps.Options) (deps.Base, error) {
	b, err := deps.NewBase(name, opts)
	if err != nil {
		return b, err
	}
	b.DefaultRegistry(newRegistry)
	return b, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// enrich fills missing summaries, homepages and license evidence from PyPI.
// Values the local tool reported are kept. Lookup failures leave the package
// unchanged.
func enrich(ctx context.Context, b *deps.Base, pkgs []*deps.Package) {
	reg := b.Registry()
	if reg == nil {
		return
	}
	for _, pkg := range pkgs {
		meta, err := reg.FetchMetadata(ctx, pkg.Name, pkg.Version)
		if err != nil {
			b.Logger.Debugf("pypi lookup for %s failed: %v", pkg.Key(), err)
			continue
		}
		if pkg.Summary == "" {
			pkg.Summary = meta.Summary
		}
		if pkg.Homepage == "" {
			pkg.Homepage = meta.Homepage
		}
		if pkg.Evidence.IsEmpty() {
			pkg.Evidence.Declared = append(pkg.Evidence.Declared, meta.Licenses...)
		}
	}
}

// The Python adapters consult PyPI themselves while enumerating.
func (*Pip) EnrichesPackages() bool    { return true }
func (*Pipenv) EnrichesPackages() bool { return true }
func (*Poetry) EnrichesPackages() bool { return true }
