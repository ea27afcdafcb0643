package python

import (
	"context"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// Poetry reads poetry.lock.
type Poetry struct {
	deps.Base
}

// NewPoetry returns a poetry adapter.
func NewPoetry(opts deps.Options) (*Poetry, error) {
	base, err := newBase("poetry", opts)
	if err != nil {
		return nil, err
	}
	return &Poetry{Base: base}, nil
}

func (p *Poetry) Detect() bool {
	return p.Exists("poetry.lock")
}

func (p *Poetry) Prepare(ctx context.Context) error {
	return p.Exec(ctx, p.Command("poetry", "install", "--no-root"))
}

func (p *Poetry) CurrentPackages(ctx context.Context) []*deps.Package {
	data, err := p.ReadFile("poetry.lock")
	if err != nil {
		p.LogErrors(err.Error())
		return []*deps.Package{}
	}
	var lock poetryLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		p.LogErrors("parse poetry.lock: " + err.Error())
		return []*deps.Package{}
	}

	pkgs := make([]*deps.Package, 0, len(lock.Packages))
	for _, lp := range lock.Packages {
		pkg := p.NewPackage(lp.Name, lp.Version)
		pkg.Description = lp.Description
		for _, name := range sortedKeys(lp.Dependencies) {
			pkg.AddChild(integrations.NormalizePkgName(name))
		}
		for _, g := range poetryGroups(lp) {
			pkg.AddGroup(g)
		}
		pkgs = append(pkgs, pkg)
	}

	pkgs = deps.Dedup(pkgs, deps.MergeUnion)
	enrich(ctx, &p.Base, pkgs)
	return pkgs
}

// poetryGroups maps the legacy category field and the newer groups list
// onto dependency groups.
func poetryGroups(lp poetryPackage) []string {
	var out []string
	mapGroup := func(g string) string {
		switch g {
		case "main":
			return deps.GroupRuntime
		case "dev":
			return deps.GroupDevelopment
		}
		return g
	}
	if lp.Category != "" {
		out = append(out, mapGroup(lp.Category))
	}
	for _, g := range lp.Groups {
		out = append(out, mapGroup(g))
	}
	if lp.Optional {
		out = append(out, deps.GroupOptional)
	}
	if len(out) == 0 {
		out = append(out, deps.GroupRuntime)
	}
	return out
}

type poetryLock struct {
	Packages []poetryPackage `toml:"package"`
}

type poetryPackage struct {
	Name         string         `toml:"name"`
	Version      string         `toml:"version"`
	Description  string         `toml:"description"`
	Category     string         `toml:"category"`
	Groups       []string       `toml:"groups"`
	Optional     bool           `toml:"optional"`
	Dependencies map[string]any `toml:"dependencies"`
}
