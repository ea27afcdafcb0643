package scan

import (
	"context"
	"io"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/command"
	"github.com/matzehuels/licensetower/pkg/config"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/core/deps/managers"
	"github.com/matzehuels/licensetower/pkg/core/license"
	"github.com/matzehuels/licensetower/pkg/errors"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/observability"
)

// DefaultWorkers bounds ResolveAll when Options.Workers is zero.
const DefaultWorkers = 4

// Options configures a Scanner. The zero value scans with every adapter,
// the host filesystem and real commands, without preparing or enriching.
type Options struct {
	Logger *log.Logger
	FS     billy.Filesystem
	Runner command.Runner
	Env    config.Env

	// Prepare runs each detected adapter's install step first.
	Prepare bool
	// Enrich enables registry lookups.
	Enrich bool

	MergePolicy deps.MergePolicy
	// Workers bounds the number of projects ResolveAll scans at once.
	Workers int

	Cache    cache.Cache
	CacheTTL time.Duration
	Python   deps.PythonOptions

	// Matcher resolves evidence into licenses. Defaults to license.Default().
	Matcher *license.Matcher
	// Managers replaces the adapter registry.
	Managers []managers.Entry
	// Registry replaces every adapter's default registry client.
	Registry integrations.MetadataFetcher
}

// FromConfig maps a loaded configuration onto scanner options.
func FromConfig(cfg *config.Config) (Options, error) {
	policy, err := deps.ParseMergePolicy(cfg.MergePolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Prepare:     cfg.Prepare,
		Enrich:      cfg.Enrich,
		MergePolicy: policy,
		Workers:     cfg.Workers,
		CacheTTL:    cfg.Cache.TTL,
		Python: deps.PythonOptions{
			Version:          cfg.Python.Version,
			RequirementsPath: cfg.Python.RequirementsPath,
			HelperPath:       cfg.Python.HelperPath,
		},
	}, nil
}

// Failure records a non-fatal adapter error.
type Failure struct {
	Manager string `json:"manager"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Result is the report for one project.
type Result struct {
	ID              uuid.UUID       `json:"id"`
	ProjectPath     string          `json:"project_path"`
	PackageManagers []string        `json:"package_managers"`
	Packages        []*deps.Package `json:"packages"`
	Roots           []deps.Key      `json:"roots"`
	Failures        []Failure       `json:"failures,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	Duration        time.Duration   `json:"duration"`
}

// Unknown returns the packages whose license could not be resolved.
func (r *Result) Unknown() []*deps.Package {
	var out []*deps.Package
	for _, p := range r.Packages {
		if !p.Licenses.HasKnown() {
			out = append(out, p)
		}
	}
	return out
}

// Scanner resolves project licenses. It is safe for concurrent use.
type Scanner struct {
	opts Options
}

// New returns a scanner with opts' defaults filled in.
func New(opts Options) *Scanner {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.FS == nil {
		opts.FS = osfs.New("/")
	}
	if opts.Runner == nil {
		opts.Runner = command.Exec{}
	}
	if opts.Matcher == nil {
		opts.Matcher = license.Default()
	}
	if opts.Managers == nil {
		opts.Managers = managers.All
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Scanner{opts: opts}
}

// Names returns the names of the registered adapters.
func (s *Scanner) Names() []string {
	names := make([]string, len(s.opts.Managers))
	for i, e := range s.opts.Managers {
		names[i] = e.Name
	}
	return names
}

// Adapters builds the adapters for projectPath, restricted to requested
// when it is not empty. Registration order is kept either way.
func (s *Scanner) Adapters(projectPath string, requested ...string) ([]deps.PackageManager, error) {
	if err := s.validateRequested(requested); err != nil {
		return nil, err
	}
	opts := deps.Options{
		ProjectPath: projectPath,
		FS:          s.opts.FS,
		Runner:      s.opts.Runner,
		Logger:      s.opts.Logger,
		Env:         s.opts.Env,
		Enrich:      s.opts.Enrich,
		Registry:    s.opts.Registry,
		Cache:       s.opts.Cache,
		CacheTTL:    s.opts.CacheTTL,
		Python:      s.opts.Python,
	}
	var out []deps.PackageManager
	for _, e := range s.opts.Managers {
		if len(requested) > 0 && !slices.Contains(requested, e.Name) {
			continue
		}
		m, err := e.New(opts)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Scanner) validateRequested(requested []string) error {
	names := s.Names()
	for _, r := range requested {
		if err := errors.ValidateManagerName(r, names); err != nil {
			return err
		}
	}
	return nil
}

// Resolve scans one project. Only configuration errors are returned;
// adapter failures are recorded in Result.Failures.
func (s *Scanner) Resolve(ctx context.Context, projectPath string, requested ...string) (*Result, error) {
	if err := errors.ValidateProjectPath(projectPath); err != nil {
		return nil, err
	}
	root := path.Clean(projectPath)
	adapters, err := s.Adapters(root, requested...)
	if err != nil {
		return nil, err
	}

	hooks := observability.Scan()
	logger := s.opts.Logger.With("project", root)
	res := &Result{
		ID:              uuid.New(),
		ProjectPath:     root,
		PackageManagers: []string{},
		StartedAt:       time.Now(),
	}
	hooks.OnScanStart(ctx, root)

	var all []*deps.Package
	for _, m := range adapters {
		if err := ctx.Err(); err != nil {
			hooks.OnScanComplete(ctx, root, 0, time.Since(res.StartedAt), err)
			return nil, err
		}
		if !m.Detect() {
			continue
		}
		res.PackageManagers = append(res.PackageManagers, m.Name())
		pkgs, failure := s.runAdapter(ctx, root, m, logger)
		if failure != nil {
			res.Failures = append(res.Failures, *failure)
		}
		all = append(all, pkgs...)
	}

	res.Packages = deps.Dedup(all, s.opts.MergePolicy)
	for _, p := range res.Packages {
		p.Licenses = s.opts.Matcher.Resolve(p.Evidence)
		if !p.Licenses.HasKnown() {
			hooks.OnUnknownLicense(ctx, root, p.PackageManager, p.Name)
		}
	}
	deps.SortPackages(res.Packages)
	res.Roots = []deps.Key{}
	for _, p := range deps.Roots(res.Packages) {
		res.Roots = append(res.Roots, p.Key())
	}
	if res.Packages == nil {
		res.Packages = []*deps.Package{}
	}
	res.Duration = time.Since(res.StartedAt)

	logger.Info("scanned", "managers", len(res.PackageManagers), "packages", len(res.Packages),
		"unknown", len(res.Unknown()), "duration", res.Duration.Round(time.Millisecond))
	hooks.OnScanComplete(ctx, root, len(res.Packages), res.Duration, nil)
	return res, nil
}

func (s *Scanner) runAdapter(ctx context.Context, root string, m deps.PackageManager, logger *log.Logger) ([]*deps.Package, *Failure) {
	hooks := observability.Scan()
	start := time.Now()
	hooks.OnAdapterStart(ctx, root, m.Name())

	var failure *Failure
	if s.opts.Prepare {
		if err := m.Prepare(ctx); err != nil {
			logger.Error("prepare failed", "manager", m.Name(), "err", errors.UserMessage(err))
			failure = &Failure{Manager: m.Name(), Stage: "prepare", Message: errors.UserMessage(err)}
		}
	}

	pkgs := m.CurrentPackages(ctx)
	var registry integrations.MetadataFetcher
	if rp, ok := m.(deps.RegistryProvider); ok && !enrichesItself(m) {
		registry = rp.Registry()
	}
	for _, p := range pkgs {
		s.readLicenseFiles(root, p)
		if registry != nil && p.Evidence.IsEmpty() {
			s.lookupRegistry(ctx, registry, p, logger)
		}
	}

	var err error
	if failure != nil {
		err = errors.New(errors.ErrCodeCommandFailed, "%s", failure.Message)
	}
	hooks.OnAdapterComplete(ctx, root, m.Name(), len(pkgs), time.Since(start), err)
	logger.Debug("adapter finished", "manager", m.Name(), "packages", len(pkgs))
	return pkgs, failure
}

func enrichesItself(m deps.PackageManager) bool {
	se, ok := m.(deps.SelfEnricher)
	return ok && se.EnrichesPackages()
}

func (s *Scanner) lookupRegistry(ctx context.Context, registry integrations.MetadataFetcher, p *deps.Package, logger *log.Logger) {
	meta, err := registry.FetchMetadata(ctx, p.Name, p.Version)
	if err != nil {
		logger.Debugf("registry lookup for %s failed: %v", p.Key(), err)
		return
	}
	p.Evidence.Declared = append(p.Evidence.Declared, meta.Licenses...)
	if p.Summary == "" {
		p.Summary = meta.Summary
	}
	if p.Homepage == "" {
		p.Homepage = meta.Homepage
	}
}

// ResolveAll scans several projects concurrently. Results are returned in
// the order of projectPaths. Paths naming the same cleaned directory are
// scanned once and share one Result, so no directory is ever enumerated by
// two workers. The first error cancels the remaining scans and is returned.
func (s *Scanner) ResolveAll(ctx context.Context, projectPaths []string, requested ...string) ([]*Result, error) {
	if err := s.validateRequested(requested); err != nil {
		return nil, err
	}
	var (
		roots []string
		slot  = make([]int, len(projectPaths))
		seen  = make(map[string]int)
	)
	for i, p := range projectPaths {
		if err := errors.ValidateProjectPath(p); err != nil {
			return nil, err
		}
		root := path.Clean(p)
		n, ok := seen[root]
		if !ok {
			n = len(roots)
			seen[root] = n
			roots = append(roots, root)
		}
		slot[i] = n
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		path  string
	}
	jobs := make(chan job)
	unique := make([]*Result, len(roots))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for n := min(s.opts.Workers, len(roots)); n > 0; n-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := s.Resolve(ctx, j.path, requested...)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
					continue
				}
				unique[j.index] = res
			}
		}()
	}

feed:
	for i, p := range roots {
		select {
		case jobs <- job{index: i, path: p}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	results := make([]*Result, len(projectPaths))
	for i, n := range slot {
		results[i] = unique[n]
	}
	return results, nil
}
