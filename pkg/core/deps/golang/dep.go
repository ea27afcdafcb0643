package golang

import (
	"context"
	"path"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// Dep reads Gopkg.lock. Versions are the locked revisions.
type Dep struct {
	deps.Base
}

// NewDep returns a dep adapter.
func NewDep(opts deps.Options) (*Dep, error) {
	base, err := deps.NewBase("dep", opts)
	if err != nil {
		return nil, err
	}
	return &Dep{Base: base}, nil
}

func (d *Dep) Detect() bool {
	return d.Exists("Gopkg.lock")
}

func (d *Dep) Prepare(ctx context.Context) error {
	c := d.Command("dep", "ensure", "-vendor-only")
	if d.Env.DepNoLock {
		c = c.WithEnv("DEPNOLOCK=1")
	}
	if gopath := d.Env.GoPathDir(); gopath != "" {
		c = c.WithEnv("GOPATH=" + gopath)
	}
	return d.Exec(ctx, c)
}

func (d *Dep) CurrentPackages(ctx context.Context) []*deps.Package {
	data, err := d.ReadFile("Gopkg.lock")
	if err != nil {
		d.LogErrors(err.Error())
		return []*deps.Package{}
	}
	var lock gopkgLock
	if err := toml.Unmarshal(data, &lock); err != nil {
		d.LogErrors("parse Gopkg.lock: " + err.Error())
		return []*deps.Package{}
	}

	pkgs := make([]*deps.Package, 0, len(lock.Projects))
	for _, p := range lock.Projects {
		pkg := d.NewPackage(p.Name, p.Revision)
		pkg.InstallPath = d.installPath(p.Name)
		pkg.Homepage = inferRepoURL(p.Name)
		pkg.AddGroup(deps.GroupRuntime)
		pkgs = append(pkgs, pkg)
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

// installPath prefers the vendored copy and falls back to $GOPATH/src.
func (d *Dep) installPath(name string) string {
	vendored := path.Join("vendor", name)
	if d.Exists(vendored) {
		return d.Path(vendored)
	}
	if gopath := d.Env.GoPathDir(); gopath != "" {
		return path.Join(gopath, "src", name)
	}
	return d.Path(vendored)
}

type gopkgLock struct {
	Projects []struct {
		Name     string   `toml:"name"`
		Packages []string `toml:"packages"`
		Revision string   `toml:"revision"`
		Version  string   `toml:"version"`
	} `toml:"projects"`
}
