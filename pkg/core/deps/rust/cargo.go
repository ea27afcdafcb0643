// Package rust provides the cargo adapter.
package rust

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/go-git/go-billy/v5/util"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/integrations/crates"
)

// Cargo enumerates packages with cargo metadata.
type Cargo struct {
	deps.Base
}

// NewCargo returns a cargo adapter.
func NewCargo(opts deps.Options) (*Cargo, error) {
	base, err := deps.NewBase("cargo", opts)
	if err != nil {
		return nil, err
	}
	base.DefaultRegistry(func(backend cache.Cache, ttl time.Duration) integrations.MetadataFetcher {
		return crates.NewClient(backend, ttl)
	})
	return &Cargo{Base: base}, nil
}

func (c *Cargo) Detect() bool {
	return c.Exists("Cargo.toml")
}

func (c *Cargo) Prepare(ctx context.Context) error {
	return c.Exec(ctx, c.Command("cargo", "fetch"))
}

func (c *Cargo) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := c.Run(ctx, c.Command("cargo", "metadata", "--format-version=1"))
	if !ok {
		return []*deps.Package{}
	}
	var meta cargoMetadata
	if err := json.Unmarshal(deps.TrimJSON(out), &meta); err != nil {
		c.LogErrors("parse cargo metadata: " + err.Error())
		return []*deps.Package{}
	}

	members := make(map[string]bool, len(meta.WorkspaceMembers))
	for _, id := range meta.WorkspaceMembers {
		members[id] = true
	}
	byID := make(map[string]cargoPackage, len(meta.Packages))
	for _, p := range meta.Packages {
		byID[p.ID] = p
	}
	nodes := make(map[string]cargoNode, len(meta.Resolve.Nodes))
	for _, n := range meta.Resolve.Nodes {
		nodes[n.ID] = n
	}
	runtime := runtimeClosure(meta.WorkspaceMembers, nodes)

	pkgs := make([]*deps.Package, 0, len(meta.Packages))
	for _, p := range meta.Packages {
		if members[p.ID] {
			continue
		}
		pkg := c.NewPackage(p.Name, p.Version)
		pkg.Description = p.Description
		pkg.Homepage = p.Homepage
		if pkg.Homepage == "" {
			pkg.Homepage = p.Repository
		}
		if p.ManifestPath != "" {
			pkg.InstallPath = path.Dir(p.ManifestPath)
		}
		if p.License != "" {
			pkg.Evidence.Declared = []string{p.License}
		}
		if p.LicenseFile != "" && pkg.InstallPath != "" {
			if text, err := util.ReadFile(c.FS, path.Join(pkg.InstallPath, p.LicenseFile)); err == nil {
				pkg.Evidence.Texts = []string{string(text)}
			}
		}
		for _, dep := range nodes[p.ID].Dependencies {
			if child, ok := byID[dep]; ok {
				pkg.AddChild(child.Name)
			}
		}
		if runtime[p.ID] {
			pkg.AddGroup(deps.GroupRuntime)
		} else {
			pkg.AddGroup(deps.GroupDevelopment)
		}
		pkgs = append(pkgs, pkg)
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

// runtimeClosure returns the packages reachable from the workspace members
// through edges that are not dev-only.
func runtimeClosure(roots []string, nodes map[string]cargoNode) map[string]bool {
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, d := range nodes[id].Deps {
			if d.devOnly() || seen[d.Pkg] {
				continue
			}
			seen[d.Pkg] = true
			queue = append(queue, d.Pkg)
		}
	}
	return seen
}

type cargoMetadata struct {
	Packages         []cargoPackage `json:"packages"`
	WorkspaceMembers []string       `json:"workspace_members"`
	Resolve          struct {
		Nodes []cargoNode `json:"nodes"`
	} `json:"resolve"`
}

type cargoPackage struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	License      string `json:"license"`
	LicenseFile  string `json:"license_file"`
	Description  string `json:"description"`
	Homepage     string `json:"homepage"`
	Repository   string `json:"repository"`
	ManifestPath string `json:"manifest_path"`
}

type cargoNode struct {
	ID           string     `json:"id"`
	Dependencies []string   `json:"dependencies"`
	Deps         []cargoDep `json:"deps"`
}

type cargoDep struct {
	Name     string `json:"name"`
	Pkg      string `json:"pkg"`
	DepKinds []struct {
		Kind *string `json:"kind"`
	} `json:"dep_kinds"`
}

func (d cargoDep) devOnly() bool {
	if len(d.DepKinds) == 0 {
		return false
	}
	for _, k := range d.DepKinds {
		if k.Kind == nil || *k.Kind != "dev" {
			return false
		}
	}
	return true
}
