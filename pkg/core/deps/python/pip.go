package python

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/errors"
)

//go:embed helper/pip_licenses.py
var helperScript []byte

const defaultRequirements = "requirements.txt"

var pythonVersions = []string{"2", "3"}

// Pip enumerates packages installed from a requirements file.
type Pip struct {
	deps.Base
	requirements string
	version      string

	helperOnce sync.Once
	helperPath string
	helperErr  error
}

// NewPip returns a pip adapter. It fails when the Python version is not
// "2" or "3".
func NewPip(opts deps.Options) (*Pip, error) {
	version := opts.Python.Version
	if version == "" {
		version = "3"
	}
	if err := errors.ValidateChoice("python version", version, pythonVersions); err != nil {
		return nil, err
	}
	base, err := newBase("pip", opts)
	if err != nil {
		return nil, err
	}
	req := opts.Python.RequirementsPath
	if req == "" {
		req = defaultRequirements
	}
	return &Pip{
		Base:         base,
		requirements: req,
		version:      version,
		helperPath:   opts.Python.HelperPath,
	}, nil
}

func (p *Pip) Detect() bool {
	return p.Exists(p.requirements)
}

func (p *Pip) Prepare(ctx context.Context) error {
	return p.Exec(ctx, p.Command("pip"+p.version, "install", "-r", p.requirements))
}

func (p *Pip) CurrentPackages(ctx context.Context) []*deps.Package {
	helper, err := p.helper()
	if err != nil {
		p.LogErrors(errors.UserMessage(err))
		return []*deps.Package{}
	}
	out, ok := p.Run(ctx, p.Command("python"+p.version, helper, p.requirements))
	if !ok {
		return []*deps.Package{}
	}

	var dists []distribution
	if err := json.Unmarshal(deps.TrimJSON(out), &dists); err != nil {
		p.LogErrors("parse pip output: " + err.Error())
		return []*deps.Package{}
	}

	pkgs := make([]*deps.Package, 0, len(dists))
	for _, d := range dists {
		pkg := p.NewPackage(d.Name, d.Version)
		pkg.InstallPath = deps.JoinInstallPath(d.Location, d.Name)
		pkg.Summary = d.Summary
		pkg.Homepage = d.Homepage
		for _, c := range d.Dependencies {
			pkg.AddChild(c)
		}
		if l := strings.TrimSpace(d.License); l != "" && !strings.EqualFold(l, "UNKNOWN") {
			pkg.Evidence.Declared = append(pkg.Evidence.Declared, l)
		}
		pkg.Evidence.FreeText = classifierLicenses(d.Classifiers)
		pkg.AddGroup(deps.GroupRuntime)
		pkgs = append(pkgs, pkg)
	}
	pkgs = deps.Dedup(pkgs, deps.MergeUnion)
	enrich(ctx, &p.Base, pkgs)
	return pkgs
}

// helper returns the path of the enumeration script, writing the embedded
// copy to a temporary directory on first use.
func (p *Pip) helper() (string, error) {
	p.helperOnce.Do(func() {
		if p.helperPath != "" {
			return
		}
		dir, err := os.MkdirTemp("", "licensetower-pip-")
		if err != nil {
			p.helperErr = errors.Wrap(errors.ErrCodeInternal, err, "create helper directory")
			return
		}
		path := filepath.Join(dir, "pip_licenses.py")
		if err := os.WriteFile(path, helperScript, 0o644); err != nil {
			p.helperErr = errors.Wrap(errors.ErrCodeInternal, err, "write helper script")
			return
		}
		p.helperPath = path
	})
	return p.helperPath, p.helperErr
}

// classifierLicenses keeps the last segment of "License :: ..." trove
// classifiers, e.g. "MIT License".
func classifierLicenses(classifiers []string) []string {
	var out []string
	for _, c := range classifiers {
		if !strings.HasPrefix(c, "License ::") {
			continue
		}
		parts := strings.Split(c, "::")
		last := strings.TrimSpace(parts[len(parts)-1])
		if last != "" && last != "OSI Approved" {
			out = append(out, last)
		}
	}
	return out
}

type distribution struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Location     string   `json:"location"`
	Dependencies []string `json:"dependencies"`
	License      string   `json:"license"`
	Classifiers  []string `json:"classifiers"`
	Summary      string   `json:"summary"`
	Homepage     string   `json:"homepage"`
}
