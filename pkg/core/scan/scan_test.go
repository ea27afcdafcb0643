package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/licensetower/pkg/command/commandtest"
	"github.com/matzehuels/licensetower/pkg/config"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/core/deps/managers"
	"github.com/matzehuels/licensetower/pkg/errors"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/observability"
)

// fakeManager reports a fixed package list built fresh on every call.
type fakeManager struct {
	name       string
	detect     bool
	prepareErr error
	pkgs       func() []*deps.Package
	prepared   int
}

func (f *fakeManager) Name() string { return f.name }
func (f *fakeManager) Detect() bool { return f.detect }
func (f *fakeManager) Prepare(context.Context) error {
	f.prepared++
	return f.prepareErr
}
func (f *fakeManager) CurrentPackages(context.Context) []*deps.Package {
	if f.pkgs == nil {
		return []*deps.Package{}
	}
	return f.pkgs()
}

type registryManager struct {
	*fakeManager
	registry integrations.MetadataFetcher
}

func (r *registryManager) Registry() integrations.MetadataFetcher { return r.registry }

func entryFor(m deps.PackageManager) managers.Entry {
	return managers.Entry{
		Name: m.Name(),
		New:  func(deps.Options) (deps.PackageManager, error) { return m, nil },
	}
}

func pkg(manager, name, version string, declared ...string) *deps.Package {
	p := &deps.Package{Name: name, Version: version, PackageManager: manager}
	p.Evidence.Declared = declared
	return p
}

func withChildren(p *deps.Package, children ...string) *deps.Package {
	for _, c := range children {
		p.AddChild(c)
	}
	return p
}

// summary renders a result as "name@version licenses [provenance]" lines.
func summary(res *Result) []string {
	var out []string
	for _, p := range res.Packages {
		out = append(out, fmt.Sprintf("%s %s %v", p.Key(), strings.Join(p.Licenses.Names(), "|"), p.Provenance))
	}
	return out
}

func newScanner(fs billy.Filesystem, ms ...deps.PackageManager) *Scanner {
	entries := make([]managers.Entry, len(ms))
	for i, m := range ms {
		entries[i] = entryFor(m)
	}
	return New(Options{FS: fs, Runner: commandtest.New(), Managers: entries})
}

func TestResolveDeclaredAndLicenseFile(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "/proj/vendor/b/LICENSE", []byte(bsd3Text), 0o644); err != nil {
		t.Fatal(err)
	}
	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
		b := pkg("x", "B", "2.0")
		b.InstallPath = "vendor/b"
		return []*deps.Package{pkg("x", "A", "1.0", "MIT"), b}
	}}

	res, err := newScanner(fs, x).Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"A@1.0 MIT [x]", "B@2.0 BSD-3-Clause [x]"}
	if diff := cmp.Diff(want, summary(res)); diff != "" {
		t.Errorf("packages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x"}, res.PackageManagers); diff != "" {
		t.Errorf("PackageManagers mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveNeverLeavesLicensesEmpty(t *testing.T) {
	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
		return []*deps.Package{pkg("x", "mystery", "0.1"), pkg("x", "odd", "1", "Some Custom Terms")}
	}}
	res, err := newScanner(memfs.New(), x).Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, p := range res.Packages {
		if p.Licenses.Len() == 0 {
			t.Errorf("%s has no licenses", p.Key())
		}
	}
	if got := len(res.Unknown()); got != 2 {
		t.Errorf("Unknown() = %d packages, want 2", got)
	}
}

func TestResolveMergePolicies(t *testing.T) {
	newManagers := func() []deps.PackageManager {
		return []deps.PackageManager{
			&fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
				return []*deps.Package{withChildren(pkg("x", "shared", "1.0", "MIT"), "left")}
			}},
			&fakeManager{name: "y", detect: true, pkgs: func() []*deps.Package {
				return []*deps.Package{withChildren(pkg("y", "shared", "1.0", "Apache-2.0"), "right")}
			}},
		}
	}

	tests := []struct {
		policy deps.MergePolicy
		want   []string
	}{
		{deps.MergeUnion, []string{"shared@1.0 MIT|Apache-2.0 [x y]"}},
		{deps.MergeFirstWins, []string{"shared@1.0 MIT|Apache-2.0 [x]"}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			s := newScanner(memfs.New(), newManagers()...)
			s.opts.MergePolicy = tt.policy
			res, err := s.Resolve(context.Background(), "/proj")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if diff := cmp.Diff(tt.want, summary(res)); diff != "" {
				t.Errorf("packages mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"left", "right"}, res.Packages[0].Children); diff != "" {
				t.Errorf("children mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveRootsAcrossAdapters(t *testing.T) {
	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
		return []*deps.Package{withChildren(pkg("x", "app", "1", "MIT"), "lib")}
	}}
	y := &fakeManager{name: "y", detect: true, pkgs: func() []*deps.Package {
		return []*deps.Package{withChildren(pkg("y", "lib", "2", "MIT"), "util"), pkg("y", "util", "3", "MIT")}
	}}
	res, err := newScanner(memfs.New(), x, y).Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]deps.Key{{Name: "app", Version: "1"}}, res.Roots); diff != "" {
		t.Errorf("Roots mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveOrdering(t *testing.T) {
	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
		return []*deps.Package{
			pkg("x", "b", "1", "MIT"),
			pkg("x", "a", "2", "MIT"),
			pkg("x", "B", "1", "MIT"),
			pkg("x", "a", "10", "MIT"),
		}
	}}
	res, err := newScanner(memfs.New(), x).Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var got []string
	for _, p := range res.Packages {
		got = append(got, p.Key().String())
	}
	want := []string{"B@1", "a@10", "a@2", "b@1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveIdempotent(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "/proj/vendor/b/COPYING", []byte(bsd3Text), 0o644); err != nil {
		t.Fatal(err)
	}
	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
		b := pkg("x", "b", "1")
		b.InstallPath = "/proj/vendor/b"
		return []*deps.Package{withChildren(pkg("x", "a", "1", "MIT OR Apache-2.0"), "b"), b}
	}}
	s := newScanner(fs, x)
	first, err := s.Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := s.Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff(summary(first), summary(second)); diff != "" {
		t.Errorf("second scan differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Roots, second.Roots); diff != "" {
		t.Errorf("roots differ (-first +second):\n%s", diff)
	}
	if first.ID == second.ID {
		t.Error("scan IDs should differ")
	}
}

func TestResolveSkipsUndetected(t *testing.T) {
	x := &fakeManager{name: "x", detect: false, pkgs: func() []*deps.Package {
		return []*deps.Package{pkg("x", "a", "1", "MIT")}
	}}
	s := newScanner(memfs.New(), x)
	s.opts.Prepare = true
	res, err := s.Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Packages) != 0 || len(res.PackageManagers) != 0 {
		t.Errorf("got %d packages from %v, want none", len(res.Packages), res.PackageManagers)
	}
	if x.prepared != 0 {
		t.Errorf("Prepare called %d times on an undetected adapter", x.prepared)
	}
}

func TestResolvePrepareFailureContinues(t *testing.T) {
	x := &fakeManager{
		name:       "x",
		detect:     true,
		prepareErr: errors.New(errors.ErrCodeCommandFailed, "command 'x install' failed:\n\tboom"),
		pkgs:       func() []*deps.Package { return []*deps.Package{pkg("x", "a", "1", "MIT")} },
	}
	s := newScanner(memfs.New(), x)
	s.opts.Prepare = true
	res, err := s.Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if x.prepared != 1 {
		t.Errorf("Prepare called %d times, want 1", x.prepared)
	}
	want := []Failure{{Manager: "x", Stage: "prepare", Message: "command 'x install' failed:\n\tboom"}}
	if diff := cmp.Diff(want, res.Failures); diff != "" {
		t.Errorf("Failures mismatch (-want +got):\n%s", diff)
	}
	if len(res.Packages) != 1 {
		t.Errorf("got %d packages, want 1", len(res.Packages))
	}
}

func TestResolveWithoutPrepare(t *testing.T) {
	x := &fakeManager{name: "x", detect: true}
	if _, err := newScanner(memfs.New(), x).Resolve(context.Background(), "/proj"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if x.prepared != 0 {
		t.Errorf("Prepare called %d times, want 0", x.prepared)
	}
}

func TestResolveConfigurationErrors(t *testing.T) {
	x := &fakeManager{name: "x", detect: true}
	broken := managers.Entry{Name: "broken", New: func(deps.Options) (deps.PackageManager, error) {
		return nil, errors.New(errors.ErrCodeInvalidOption, "invalid python version '100': valid values are '2', '3'")
	}}

	tests := []struct {
		name      string
		entries   []managers.Entry
		path      string
		requested []string
		code      errors.Code
	}{
		{"unknown manager", []managers.Entry{entryFor(x)}, "/proj", []string{"maven"}, errors.ErrCodeInvalidPackageManager},
		{"construction", []managers.Entry{entryFor(x), broken}, "/proj", nil, errors.ErrCodeInvalidOption},
		{"empty path", []managers.Entry{entryFor(x)}, "", nil, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{FS: memfs.New(), Managers: tt.entries})
			_, err := s.Resolve(context.Background(), tt.path, tt.requested...)
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestResolveRequestedSubset(t *testing.T) {
	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package { return []*deps.Package{pkg("x", "a", "1", "MIT")} }}
	y := &fakeManager{name: "y", detect: true, pkgs: func() []*deps.Package { return []*deps.Package{pkg("y", "b", "1", "MIT")} }}
	res, err := newScanner(memfs.New(), x, y).Resolve(context.Background(), "/proj", "y")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"b@1 MIT [y]"}, summary(res)); diff != "" {
		t.Errorf("packages mismatch (-want +got):\n%s", diff)
	}
}

type fakeRegistry struct {
	licenses map[string][]string
	calls    []string
}

func (f *fakeRegistry) FetchMetadata(_ context.Context, name, version string) (*integrations.Metadata, error) {
	f.calls = append(f.calls, name)
	ls, ok := f.licenses[name]
	if !ok {
		return nil, integrations.ErrNotFound
	}
	return &integrations.Metadata{Name: name, Version: version, Summary: "from registry", Licenses: ls}, nil
}

func TestResolveRegistryFallback(t *testing.T) {
	reg := &fakeRegistry{licenses: map[string][]string{"quiet": {"Apache-2.0"}}}
	m := &registryManager{
		fakeManager: &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
			return []*deps.Package{pkg("x", "quiet", "1"), pkg("x", "gone", "1"), pkg("x", "loud", "1", "MIT")}
		}},
		registry: reg,
	}
	res, err := newScanner(memfs.New(), m).Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"gone@1 unknown [x]", "loud@1 MIT [x]", "quiet@1 Apache-2.0 [x]"}
	if diff := cmp.Diff(want, summary(res)); diff != "" {
		t.Errorf("packages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"quiet", "gone"}, reg.calls); diff != "" {
		t.Errorf("registry calls mismatch (-want +got):\n%s", diff)
	}
	if got := res.Packages[2].Summary; got != "from registry" {
		t.Errorf("Summary = %q, want %q", got, "from registry")
	}
}

type selfEnrichingManager struct{ *registryManager }

func (selfEnrichingManager) EnrichesPackages() bool { return true }

func TestResolveSkipsFallbackForSelfEnrichingAdapters(t *testing.T) {
	reg := &fakeRegistry{licenses: map[string][]string{"quiet": {"Apache-2.0"}}}
	m := selfEnrichingManager{&registryManager{
		fakeManager: &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
			return []*deps.Package{pkg("x", "quiet", "1")}
		}},
		registry: reg,
	}}
	res, err := newScanner(memfs.New(), m).Resolve(context.Background(), "/proj")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(reg.calls) != 0 {
		t.Errorf("registry calls = %v, want none", reg.calls)
	}
	if diff := cmp.Diff([]string{"quiet@1 unknown [x]"}, summary(res)); diff != "" {
		t.Errorf("packages mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveDepProject(t *testing.T) {
	const root = "/gopath_dep/src/foo-dep"
	fs := memfs.New()
	files := map[string]string{
		"Gopkg.lock": `
[[projects]]
  name = "github.com/Bowery/prompt"
  packages = ["."]
  revision = "0f1139e9a1c74b57ccce6bdb3cd2f7cd04dd3449"

[[projects]]
  name = "github.com/dchest/safefile"
  packages = ["."]
  revision = "855e8d98f1852d48dde521e0522408d1fe7e836a"
`,
		"vendor/github.com/Bowery/prompt/LICENSE":   mitText,
		"vendor/github.com/dchest/safefile/LICENSE": bsd2Text,
	}
	for name, content := range files {
		if err := util.WriteFile(fs, root+"/"+name, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	runner := commandtest.New().On("dep ensure -vendor-only", commandtest.Response{})
	s := New(Options{FS: fs, Runner: runner, Prepare: true, Env: config.Env{GoPath: "/gopath_dep"}})

	res, err := s.Resolve(context.Background(), root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{
		"github.com/Bowery/prompt@0f1139e9a1c74b57ccce6bdb3cd2f7cd04dd3449 MIT [dep]",
		"github.com/dchest/safefile@855e8d98f1852d48dde521e0522408d1fe7e836a BSD-2-Clause [dep]",
	}
	if diff := cmp.Diff(want, summary(res)); diff != "" {
		t.Errorf("packages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dep"}, res.PackageManagers); diff != "" {
		t.Errorf("PackageManagers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dep ensure -vendor-only"}, runner.Calls()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

type recordingHooks struct {
	observability.NoopScanHooks
	mu       sync.Mutex
	adapters []string
	unknown  []string
	packages int
}

func (r *recordingHooks) OnAdapterStart(_ context.Context, _, manager string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, manager)
}

func (r *recordingHooks) OnUnknownLicense(_ context.Context, _, manager, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknown = append(r.unknown, manager+"/"+name)
}

func (r *recordingHooks) OnScanComplete(_ context.Context, _ string, packages int, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages = packages
}

func TestResolveHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetScanHooks(hooks)
	defer observability.Reset()

	x := &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
		return []*deps.Package{pkg("x", "a", "1", "MIT"), pkg("x", "b", "1")}
	}}
	y := &fakeManager{name: "y"}
	if _, err := newScanner(memfs.New(), x, y).Resolve(context.Background(), "/proj"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, hooks.adapters); diff != "" {
		t.Errorf("adapters mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x/b"}, hooks.unknown); diff != "" {
		t.Errorf("unknown mismatch (-want +got):\n%s", diff)
	}
	if hooks.packages != 2 {
		t.Errorf("OnScanComplete packages = %d, want 2", hooks.packages)
	}
}

func TestResolveAll(t *testing.T) {
	fs := memfs.New()
	entry := managers.Entry{Name: "x", New: func(opts deps.Options) (deps.PackageManager, error) {
		name := opts.ProjectPath[strings.LastIndex(opts.ProjectPath, "/")+1:]
		return &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
			return []*deps.Package{pkg("x", name+"-dep", "1", "MIT")}
		}}, nil
	}}
	s := New(Options{FS: fs, Managers: []managers.Entry{entry}, Workers: 2})

	paths := []string{"/p/one", "/p/two", "/p/three"}
	results, err := s.ResolveAll(context.Background(), paths)
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	var got []string
	for _, r := range results {
		got = append(got, r.ProjectPath+" "+r.Packages[0].Name)
	}
	want := []string{"/p/one one-dep", "/p/two two-dep", "/p/three three-dep"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.ResolveAll(context.Background(), []string{"/p/one", ""}); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("ResolveAll with empty path: code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPath)
	}
	if _, err := s.ResolveAll(context.Background(), paths, "maven"); !errors.Is(err, errors.ErrCodeInvalidPackageManager) {
		t.Errorf("ResolveAll with unknown manager: code = %v", errors.GetCode(err))
	}
}

func TestResolveAllScansEachDirectoryOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		active  = map[string]int{}
		peak    = map[string]int{}
		enumsOf = map[string]int{}
	)
	entry := managers.Entry{Name: "x", New: func(opts deps.Options) (deps.PackageManager, error) {
		root := opts.ProjectPath
		return &fakeManager{name: "x", detect: true, pkgs: func() []*deps.Package {
			mu.Lock()
			active[root]++
			enumsOf[root]++
			peak[root] = max(peak[root], active[root])
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			active[root]--
			mu.Unlock()
			return []*deps.Package{pkg("x", "dep", "1", "MIT")}
		}}, nil
	}}
	s := New(Options{FS: memfs.New(), Managers: []managers.Entry{entry}, Workers: 4})

	results, err := s.ResolveAll(context.Background(), []string{"/proj", "/proj/", "/other", "/proj/./"})
	if err != nil {
		t.Fatalf("ResolveAll: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	if results[0] != results[1] || results[0] != results[3] {
		t.Error("equivalent paths should share one result")
	}
	if results[2].ProjectPath != "/other" {
		t.Errorf("results[2].ProjectPath = %q, want /other", results[2].ProjectPath)
	}
	if peak["/proj"] != 1 || enumsOf["/proj"] != 1 {
		t.Errorf("/proj enumerated %d times, %d at once; want once", enumsOf["/proj"], peak["/proj"])
	}
}

func TestIsLicenseFile(t *testing.T) {
	tests := map[string]bool{
		"LICENSE":      true,
		"license.md":   true,
		"LICENCE.txt":  true,
		"COPYING":      true,
		"copying.lgpl": true,
		"UNLICENSE":    true,
		"README.md":    false,
		"main.go":      false,
	}
	for name, want := range tests {
		if got := IsLicenseFile(name); got != want {
			t.Errorf("IsLicenseFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MergePolicy = "first-wins"
	cfg.Prepare = true
	opts, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if opts.MergePolicy != deps.MergeFirstWins || !opts.Prepare {
		t.Errorf("opts = %+v", opts)
	}

	cfg.MergePolicy = "newest"
	if _, err := FromConfig(cfg); !errors.Is(err, errors.ErrCodeInvalidOption) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidOption)
	}
}
