package javascript

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations/npm"
)

// NPM walks the tree printed by npm list.
type NPM struct {
	deps.Base
}

// NewNPM returns an npm adapter.
func NewNPM(opts deps.Options) (*NPM, error) {
	base, err := newBase("npm", opts)
	if err != nil {
		return nil, err
	}
	return &NPM{Base: base}, nil
}

func (n *NPM) Detect() bool {
	return n.Exists("package.json") && !n.Exists("yarn.lock") && !n.Exists("pnpm-lock.yaml")
}

func (n *NPM) Prepare(ctx context.Context) error {
	return n.Exec(ctx, n.Command("npm", "install", "--no-save"))
}

func (n *NPM) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := n.Run(ctx, n.Command("npm", "list", "--json", "--long", "--all"))
	if !ok {
		return []*deps.Package{}
	}
	var tree npmNode
	if err := json.Unmarshal(deps.TrimJSON(out), &tree); err != nil {
		n.LogErrors("parse npm list output: " + err.Error())
		return []*deps.Package{}
	}

	var pkgs []*deps.Package
	n.flatten(tree.Dependencies, &pkgs)
	return deps.Dedup(pkgs, deps.MergeUnion)
}

// flatten appends every resolved node below nodes, depth first. Missing
// (unmet) dependencies carry no version and are skipped.
func (n *NPM) flatten(nodes map[string]*npmNode, pkgs *[]*deps.Package) {
	for _, name := range sortedNames(nodes) {
		node := nodes[name]
		if node == nil || node.Version == "" || node.Missing {
			continue
		}
		pkg := n.NewPackage(name, node.Version)
		pkg.Description = node.Description
		pkg.Homepage = node.Homepage
		pkg.InstallPath = node.Path
		if pkg.InstallPath == "" {
			pkg.InstallPath = nodeModulesPath(name)
		}
		pkg.Evidence.Declared = npm.Licenses(node.License, node.Licenses)
		switch {
		case node.Dev:
			pkg.AddGroup(deps.GroupDevelopment)
		case node.Optional:
			pkg.AddGroup(deps.GroupOptional)
		default:
			pkg.AddGroup(deps.GroupRuntime)
		}
		for _, child := range sortedNames(node.Dependencies) {
			pkg.AddChild(child)
		}
		*pkgs = append(*pkgs, pkg)
		n.flatten(node.Dependencies, pkgs)
	}
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

type npmNode struct {
	Version      string              `json:"version"`
	Description  string              `json:"description"`
	Homepage     string              `json:"homepage"`
	Path         string              `json:"path"`
	License      any                 `json:"license"`
	Licenses     []any               `json:"licenses"`
	Dev          bool                `json:"dev"`
	Optional     bool                `json:"optional"`
	Missing      bool                `json:"missing"`
	Dependencies map[string]*npmNode `json:"dependencies"`
}
