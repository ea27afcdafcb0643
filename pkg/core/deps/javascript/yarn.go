package javascript

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// Yarn reads the table records of yarn licenses list.
type Yarn struct {
	deps.Base
}

// NewYarn returns a yarn adapter.
func NewYarn(opts deps.Options) (*Yarn, error) {
	base, err := newBase("yarn", opts)
	if err != nil {
		return nil, err
	}
	return &Yarn{Base: base}, nil
}

func (y *Yarn) Detect() bool {
	return y.Exists("yarn.lock")
}

func (y *Yarn) Prepare(ctx context.Context) error {
	lockFlag := "--frozen-lockfile"
	if y.Env.NoLockfile {
		lockFlag = "--no-lockfile"
	}
	return y.Exec(ctx, y.Command("yarn", "install", lockFlag))
}

var yarnDefaultHead = []string{"Name", "Version", "License", "URL", "VendorUrl", "VendorName"}

func (y *Yarn) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := y.Run(ctx, y.Command("yarn", "licenses", "list", "--json", "--no-progress"))
	if !ok {
		return []*deps.Package{}
	}

	var pkgs []*deps.Package
	for _, line := range deps.JSONLines(out) {
		var rec yarnRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.Type != "table" {
			continue
		}
		head := rec.Data.Head
		if len(head) == 0 {
			head = yarnDefaultHead
		}
		col := make(map[string]int, len(head))
		for i, h := range head {
			col[h] = i
		}
		for _, row := range rec.Data.Body {
			get := func(name string) string {
				if i, ok := col[name]; ok && i < len(row) {
					return row[i]
				}
				return ""
			}
			name := get("Name")
			if name == "" {
				continue
			}
			pkg := y.NewPackage(name, get("Version"))
			pkg.Homepage = get("VendorUrl")
			pkg.InstallPath = nodeModulesPath(name)
			if l := get("License"); l != "" {
				pkg.Evidence.Declared = []string{l}
			}
			pkgs = append(pkgs, pkg)
		}
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

type yarnRecord struct {
	Type string `json:"type"`
	Data struct {
		Head []string   `json:"head"`
		Body [][]string `json:"body"`
	} `json:"data"`
}
