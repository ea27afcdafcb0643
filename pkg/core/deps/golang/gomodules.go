package golang

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/matzehuels/licensetower/pkg/command"
	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// GoModules enumerates modules with go list and links them with go mod
// graph.
type GoModules struct {
	deps.Base
}

// NewGoModules returns a Go modules adapter.
func NewGoModules(opts deps.Options) (*GoModules, error) {
	base, err := deps.NewBase("gomodules", opts)
	if err != nil {
		return nil, err
	}
	return &GoModules{Base: base}, nil
}

func (g *GoModules) Detect() bool {
	return g.Exists("go.mod") && !g.Exists("Gopkg.lock")
}

func (g *GoModules) Prepare(ctx context.Context) error {
	return g.Exec(ctx, g.goCommand("mod", "download"))
}

func (g *GoModules) goCommand(args ...string) command.Cmd {
	c := g.Command("go", args...).WithEnv("GOFLAGS=-mod=mod")
	if gopath := g.Env.GoPathDir(); gopath != "" {
		c = c.WithEnv("GOPATH=" + gopath)
	}
	return c
}

func (g *GoModules) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := g.Run(ctx, g.goCommand("list", "-m", "-json", "all"))
	if !ok {
		return []*deps.Package{}
	}
	mods, err := decodeModules(out)
	if err != nil {
		g.LogErrors("parse go list output: " + err.Error())
		return []*deps.Package{}
	}
	edges := g.graph(ctx)

	pkgs := make([]*deps.Package, 0, len(mods))
	for _, m := range mods {
		if m.Main {
			continue
		}
		pkg := g.NewPackage(m.Path, m.Version)
		pkg.InstallPath = m.Dir
		if m.Replace != nil && m.Replace.Dir != "" {
			pkg.InstallPath = m.Replace.Dir
		}
		pkg.Homepage = inferRepoURL(m.Path)
		for _, c := range edges[deps.Key{Name: m.Path, Version: m.Version}] {
			pkg.AddChild(c)
		}
		pkg.AddGroup(deps.GroupRuntime)
		pkgs = append(pkgs, pkg)
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

// graph returns the module requirement edges keyed by parent. A failing
// go mod graph only costs the edges.
func (g *GoModules) graph(ctx context.Context) map[deps.Key][]string {
	edges := make(map[deps.Key][]string)
	out, ok := g.Run(ctx, g.goCommand("mod", "graph"))
	if !ok {
		return edges
	}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		parent, ok := splitModule(fields[0])
		if !ok {
			continue
		}
		child, _ := splitModule(fields[1])
		edges[parent] = append(edges[parent], child.Name)
	}
	return edges
}

func splitModule(s string) (deps.Key, bool) {
	name, version, ok := strings.Cut(s, "@")
	return deps.Key{Name: name, Version: version}, ok
}

// decodeModules reads the concatenated JSON objects printed by
// go list -m -json.
func decodeModules(data []byte) ([]goModule, error) {
	dec := json.NewDecoder(bytes.NewReader(deps.TrimJSON(data)))
	var mods []goModule
	for {
		var m goModule
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			return mods, nil
		}
		if err != nil {
			return mods, err
		}
		mods = append(mods, m)
	}
}

type goModule struct {
	Path     string    `json:"Path"`
	Version  string    `json:"Version"`
	Main     bool      `json:"Main"`
	Indirect bool      `json:"Indirect"`
	Dir      string    `json:"Dir"`
	Replace  *goModule `json:"Replace"`
}
