package python

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// Pipenv reads Pipfile.lock.
type Pipenv struct {
	deps.Base
}

// NewPipenv returns a pipenv adapter.
func NewPipenv(opts deps.Options) (*Pipenv, error) {
	base, err := newBase("pipenv", opts)
	if err != nil {
		return nil, err
	}
	return &Pipenv{Base: base}, nil
}

func (p *Pipenv) Detect() bool {
	return p.Exists("Pipfile.lock")
}

func (p *Pipenv) Prepare(ctx context.Context) error {
	return p.Exec(ctx, p.Command("pipenv", "install", "--dev"))
}

func (p *Pipenv) CurrentPackages(ctx context.Context) []*deps.Package {
	data, err := p.ReadFile("Pipfile.lock")
	if err != nil {
		p.LogErrors(err.Error())
		return []*deps.Package{}
	}
	var lock pipfileLock
	if err := json.Unmarshal(data, &lock); err != nil {
		p.LogErrors("parse Pipfile.lock: " + err.Error())
		return []*deps.Package{}
	}

	var pkgs []*deps.Package
	add := func(section map[string]pipfileEntry, group string) {
		for _, name := range sortedKeys(section) {
			pkg := p.NewPackage(name, strings.TrimPrefix(section[name].Version, "=="))
			pkg.AddGroup(group)
			pkgs = append(pkgs, pkg)
		}
	}
	add(lock.Default, deps.GroupRuntime)
	add(lock.Develop, deps.GroupDevelopment)

	pkgs = deps.Dedup(pkgs, deps.MergeUnion)
	enrich(ctx, &p.Base, pkgs)
	return pkgs
}

type pipfileLock struct {
	Default map[string]pipfileEntry `json:"default"`
	Develop map[string]pipfileEntry `json:"develop"`
}

type pipfileEntry struct {
	Version string `json:"version"`
}
