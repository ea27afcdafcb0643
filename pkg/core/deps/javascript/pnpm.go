package javascript

import (
	"context"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// PNPM reads pnpm licenses list and takes children and dev groups from
// pnpm-lock.yaml.
type PNPM struct {
	deps.Base
}

// NewPNPM returns a pnpm adapter.
func NewPNPM(opts deps.Options) (*PNPM, error) {
	base, err := newBase("pnpm", opts)
	if err != nil {
		return nil, err
	}
	return &PNPM{Base: base}, nil
}

func (p *PNPM) Detect() bool {
	return p.Exists("pnpm-lock.yaml")
}

func (p *PNPM) Prepare(ctx context.Context) error {
	lockFlag := "--frozen-lockfile"
	if p.Env.NoLockfile {
		lockFlag = "--no-lockfile"
	}
	return p.Exec(ctx, p.Command("pnpm", "install", lockFlag))
}

func (p *PNPM) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := p.Run(ctx, p.Command("pnpm", "licenses", "list", "--json", "--long"))
	if !ok {
		return []*deps.Package{}
	}
	var byLicense map[string][]pnpmEntry
	if err := json.Unmarshal(deps.TrimJSON(out), &byLicense); err != nil {
		p.LogErrors("parse pnpm licenses output: " + err.Error())
		return []*deps.Package{}
	}
	lock := p.readLock()

	var pkgs []*deps.Package
	for _, lic := range sortedNames(byLicense) {
		for _, e := range byLicense[lic] {
			versions, paths := e.Versions, e.Paths
			if e.Version != "" {
				versions = append([]string{e.Version}, versions...)
				paths = append([]string{e.Path}, paths...)
			}
			declared := e.License
			if declared == "" {
				declared = lic
			}
			for i, v := range versions {
				pkg := p.NewPackage(e.Name, v)
				pkg.Description = e.Description
				pkg.Homepage = e.Homepage
				if i < len(paths) {
					pkg.InstallPath = paths[i]
				}
				if pkg.InstallPath == "" {
					pkg.InstallPath = nodeModulesPath(e.Name)
				}
				pkg.Evidence.Declared = []string{declared}
				for _, c := range lock.children[deps.Key{Name: e.Name, Version: v}] {
					pkg.AddChild(c)
				}
				if lock.dev[e.Name] {
					pkg.AddGroup(deps.GroupDevelopment)
				} else {
					pkg.AddGroup(deps.GroupRuntime)
				}
				pkgs = append(pkgs, pkg)
			}
		}
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

type pnpmEntry struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Path        string   `json:"path"`
	Versions    []string `json:"versions"`
	Paths       []string `json:"paths"`
	License     string   `json:"license"`
	Description string   `json:"description"`
	Homepage    string   `json:"homepage"`
}

type pnpmLockInfo struct {
	children map[deps.Key][]string
	dev      map[string]bool
}

// readLock extracts dependency edges and direct dev dependencies from
// pnpm-lock.yaml. Lockfile problems only cost children and groups.
func (p *PNPM) readLock() pnpmLockInfo {
	info := pnpmLockInfo{children: map[deps.Key][]string{}, dev: map[string]bool{}}
	data, err := p.ReadFile("pnpm-lock.yaml")
	if err != nil {
		return info
	}
	var lock pnpmLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		p.Logger.Debugf("parse pnpm-lock.yaml: %v", err)
		return info
	}

	for name := range lock.DevDependencies {
		info.dev[name] = true
	}
	for _, imp := range lock.Importers {
		for name := range imp.DevDependencies {
			info.dev[name] = true
		}
	}
	// v9 lockfiles keep edges under snapshots, older ones under packages.
	for _, section := range []map[string]pnpmLockPackage{lock.Packages, lock.Snapshots} {
		for id, pkg := range section {
			key, ok := parsePackageID(id)
			if !ok {
				continue
			}
			for _, name := range sortedNames(pkg.Dependencies) {
				info.children[key] = appendUnique(info.children[key], name)
			}
			for _, name := range sortedNames(pkg.OptionalDependencies) {
				info.children[key] = appendUnique(info.children[key], name)
			}
		}
	}
	return info
}

type pnpmLock struct {
	DevDependencies map[string]any             `yaml:"devDependencies"`
	Importers       map[string]pnpmImporter    `yaml:"importers"`
	Packages        map[string]pnpmLockPackage `yaml:"packages"`
	Snapshots       map[string]pnpmLockPackage `yaml:"snapshots"`
}

type pnpmImporter struct {
	DevDependencies map[string]any `yaml:"devDependencies"`
}

type pnpmLockPackage struct {
	Dependencies         map[string]any `yaml:"dependencies"`
	OptionalDependencies map[string]any `yaml:"optionalDependencies"`
}

// parsePackageID splits lockfile keys such as "/@babel/core@7.0.0",
// "lodash@4.17.21" or "debug@4.3.4(supports-color@8.1.1)".
func parsePackageID(id string) (deps.Key, bool) {
	id = strings.TrimPrefix(id, "/")
	if i := strings.IndexByte(id, '('); i >= 0 {
		id = id[:i]
	}
	at := strings.LastIndexByte(id, '@')
	if at <= 0 {
		return deps.Key{}, false
	}
	return deps.Key{Name: id[:at], Version: id[at+1:]}, true
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
