package javascript

import (
	"time"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/integrations/npm"
)

func newRegistry(backend cache.Cache, ttl time.Duration) integrations.MetadataFetcher {
	return npm.NewClient(backend, ttl)
}

func newBase(name string, opts deps.Options) (deps.Base, error) {
	b, err := deps.NewBase(name, opts)
	if err != nil {
		return b, err
	}
	b.DefaultRegistry(newRegistry)
	return b, nil
}

func nodeModulesPath(name string) string {
	return "node_modules/" + name
}
