package deps

import (
	"slices"
	"strings"

	"github.com/matzehuels/licensetower/pkg/core/license"
)

// Evidence is the raw license material gathered for a package.
type Evidence = license.Evidence

// Dependency group names.
const (
	GroupRuntime     = "runtime"
	GroupDevelopment = "development"
	GroupOptional    = "optional"
)

// Package is one installed dependency.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	// Licenses is empty until resolution and holds at least one entry
	// afterwards.
	Licenses license.Set `json:"licenses"`

	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Homepage    string `json:"homepage,omitempty"`

	// InstallPath locates the package on disk. Relative paths are relative
	// to the project root.
	InstallPath string `json:"install_path,omitempty"`

	// Children are the names of declared dependencies.
	Children []string `json:"children,omitempty"`

	// PackageManager is the adapter that first reported the package;
	// Provenance lists every adapter that contributed to it.
	PackageManager string   `json:"package_manager"`
	Provenance     []string `json:"provenance,omitempty"`

	Groups   []string `json:"groups,omitempty"`
	Evidence Evidence `json:"evidence,omitzero"`
}

// Key identifies a package across adapters.
type Key struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (k Key) String() string {
	if k.Version == "" {
		return k.Name
	}
	return k.Name + "@" + k.Version
}

// Key returns the package's dedup key.
func (p *Package) Key() Key {
	return Key{Name: p.Name, Version: p.Version}
}

// LicensesFromSpec returns the licenses attributable to manifest metadata:
// declared identifiers and adapter-supplied texts. It may be empty.
func (p *Package) LicensesFromSpec(m *license.Matcher) license.Set {
	return m.FromSpec(p.Evidence)
}

// AddGroup records a dependency group, ignoring duplicates.
func (p *Package) AddGroup(g string) {
	if g != "" && !slices.Contains(p.Groups, g) {
		p.Groups = append(p.Groups, g)
	}
}

// AddChild records a child name, ignoring duplicates and self references.
func (p *Package) AddChild(name string) {
	if name != "" && name != p.Name && !slices.Contains(p.Children, name) {
		p.Children = append(p.Children, name)
	}
}

// IsRoot reports whether no package in batch lists p among its children.
func (p *Package) IsRoot(batch []*Package) bool {
	for _, other := range batch {
		if slices.Contains(other.Children, p.Name) {
			return false
		}
	}
	return true
}

// Roots returns the packages of batch that no other package depends on,
// preserving order.
func Roots(batch []*Package) []*Package {
	parents := make(map[string]bool)
	for _, p := range batch {
		for _, c := range p.Children {
			parents[c] = true
		}
	}
	var roots []*Package
	for _, p := range batch {
		if !parents[p.Name] {
			roots = append(roots, p)
		}
	}
	return roots
}

// Merge folds other into p. Licenses, evidence, groups and children are
// unioned and empty scalar fields are filled from other. Provenance follows
// policy.
func (p *Package) Merge(other *Package, policy MergePolicy) {
	p.Licenses.Union(other.Licenses)
	p.Evidence.Merge(other.Evidence)
	for _, g := range other.Groups {
		p.AddGroup(g)
	}
	for _, c := range other.Children {
		p.AddChild(c)
	}
	fill(&p.Summary, other.Summary)
	fill(&p.Description, other.Description)
	fill(&p.Homepage, other.Homepage)
	fill(&p.InstallPath, other.InstallPath)
	p.Provenance = p.provenance()
	fill(&p.PackageManager, other.PackageManager)

	if policy == MergeUnion {
		for _, m := range other.provenance() {
			if !slices.Contains(p.Provenance, m) {
				p.Provenance = append(p.Provenance, m)
			}
		}
	}
	if len(p.Provenance) == 0 {
		p.Provenance = p.provenance()
	}
}

func (p *Package) provenance() []string {
	if len(p.Provenance) > 0 {
		return p.Provenance
	}
	if p.PackageManager != "" {
		return []string{p.PackageManager}
	}
	return nil
}

func fill(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// Dedup merges packages sharing a Key, keeping the position of the first
// occurrence.
func Dedup(pkgs []*Package, policy MergePolicy) []*Package {
	index := make(map[Key]*Package, len(pkgs))
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		if first, ok := index[p.Key()]; ok {
			first.Merge(p, policy)
			continue
		}
		if len(p.Provenance) == 0 && p.PackageManager != "" {
			p.Provenance = []string{p.PackageManager}
		}
		index[p.Key()] = p
		out = append(out, p)
	}
	return out
}

// SortPackages orders pkgs bytewise by name, then version.
func SortPackages(pkgs []*Package) {
	slices.SortStableFunc(pkgs, func(a, b *Package) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Version, b.Version)
	})
}
