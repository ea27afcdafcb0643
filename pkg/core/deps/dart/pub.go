// Package dart provides the pub adapter for Dart and Flutter projects.
//
// pub reports no license metadata. The adapter reads each package's LICENSE
// from the pub cache and hands the text to the resolver as
// adapter-supplied evidence.
package dart

import (
	"context"
	"encoding/json"
	"path"

	"github.com/go-git/go-billy/v5/util"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// Pub enumerates packages with flutter pub deps.
type Pub struct {
	deps.Base
	cacheDir string
}

// NewPub returns a pub adapter. The pub cache defaults to ~/.pub-cache
// unless PUB_CACHE was set.
func NewPub(opts deps.Options) (*Pub, error) {
	base, err := deps.NewBase("pub", opts)
	if err != nil {
		return nil, err
	}
	return &Pub{Base: base, cacheDir: opts.Env.PubCacheDir()}, nil
}

func (p *Pub) Detect() bool {
	return p.Exists("pubspec.yaml")
}

func (p *Pub) Prepare(ctx context.Context) error {
	return p.Exec(ctx, p.Command("flutter", "pub", "get"))
}

func (p *Pub) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := p.Run(ctx, p.Command("flutter", "pub", "deps", "--json"))
	if !ok {
		return []*deps.Package{}
	}
	var report pubDeps
	if err := json.Unmarshal(deps.TrimJSON(out), &report); err != nil {
		p.LogErrors("parse pub deps output: " + err.Error())
		return []*deps.Package{}
	}

	pkgs := make([]*deps.Package, 0, len(report.Packages))
	for _, e := range report.Packages {
		if e.Kind == "root" || e.Name == report.Root {
			continue
		}
		pkg := p.NewPackage(e.Name, e.Version)
		for _, c := range e.Dependencies {
			pkg.AddChild(c)
		}
		switch e.Kind {
		case "dev":
			pkg.AddGroup(deps.GroupDevelopment)
		default:
			pkg.AddGroup(deps.GroupRuntime)
		}
		if e.Source == "hosted" && p.cacheDir != "" {
			pkg.InstallPath = path.Join(p.cacheDir, "hosted", "pub.dev", e.Name+"-"+e.Version)
			if text, err := util.ReadFile(p.FS, path.Join(pkg.InstallPath, "LICENSE")); err == nil {
				pkg.Evidence.Texts = []string{string(text)}
			}
		}
		pkgs = append(pkgs, pkg)
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

type pubDeps struct {
	Root     string `json:"root"`
	Packages []struct {
		Name         string   `json:"name"`
		Version      string   `json:"version"`
		Kind         string   `json:"kind"`
		Source       string   `json:"source"`
		Dependencies []string `json:"dependencies"`
	} `json:"packages"`
}
