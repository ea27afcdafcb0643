// Package managers lists every supported package-manager adapter.
//
// The adapter packages import pkg/core/deps, so deps cannot import them
// back. Consumers that need the full adapter list import this package.
//
//	for _, m := range managers.All {
//	    fmt.Println(m.Name)
//	}
package managers

import (
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/core/deps/dart"
	"github.com/matzehuels/licensetower/pkg/core/deps/golang"
	"github.com/matzehuels/licensetower/pkg/core/deps/javascript"
	"github.com/matzehuels/licensetower/pkg/core/deps/php"
	"github.com/matzehuels/licensetower/pkg/core/deps/python"
	"github.com/matzehuels/licensetower/pkg/core/deps/ruby"
	"github.com/matzehuels/licensetower/pkg/core/deps/rust"
)

// Entry names an adapter and its constructor.
type Entry struct {
	Name     string
	Language string
	New      func(deps.Options) (deps.PackageManager, error)
}

func entry[T deps.PackageManager](name, language string, ctor func(deps.Options) (T, error)) Entry {
	return Entry{
		Name:     name,
		Language: language,
		New: func(opts deps.Options) (deps.PackageManager, error) {
			m, err := ctor(opts)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	}
}

// All is the canonical adapter list. Scans run adapters in this order.
var All = []Entry{
	entry("pip", "python", python.NewPip),
	entry("pipenv", "python", python.NewPipenv),
	entry("poetry", "python", python.NewPoetry),
	entry("npm", "javascript", javascript.NewNPM),
	entry("pnpm", "javascript", javascript.NewPNPM),
	entry("yarn", "javascript", javascript.NewYarn),
	entry("dep", "go", golang.NewDep),
	entry("gomodules", "go", golang.NewGoModules),
	entry("pub", "dart", dart.NewPub),
	entry("bundler", "ruby", ruby.NewBundler),
	entry("cargo", "rust", rust.NewCargo),
	entry("composer", "php", php.NewComposer),
}

// Find returns the entry with the given name.
func Find(name string) (Entry, bool) {
	for _, e := range All {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the adapter names in canonical order.
func Names() []string {
	names := make([]string, len(All))
	for i, e := range All {
		names[i] = e.Name
	}
	return names
}
