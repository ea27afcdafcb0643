package deps

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/command"
	"github.com/matzehuels/licensetower/pkg/config"
	"github.com/matzehuels/licensetower/pkg/errors"
	"github.com/matzehuels/licensetower/pkg/integrations"
)

// PackageManager is implemented by every ecosystem adapter.
type PackageManager interface {
	// Name is the adapter tag, e.g. "npm" or "gomodules".
	Name() string

	// Detect reports whether the project uses this package manager. It
	// only inspects files and never runs commands.
	Detect() bool

	// Prepare installs the project's dependencies so they can be
	// enumerated. It may modify the project.
	Prepare(ctx context.Context) error

	// CurrentPackages enumerates the installed dependencies. Failures are
	// logged and yield an empty slice.
	CurrentPackages(ctx context.Context) []*Package
}

// RegistryProvider is implemented by adapters that can look up package
// metadata in their ecosystem's registry. Registry returns nil when
// enrichment is disabled.
type RegistryProvider interface {
	Registry() integrations.MetadataFetcher
}

// SelfEnricher is implemented by adapters that query their registry while
// enumerating. The scanner skips its registry fallback for them.
type SelfEnricher interface {
	EnrichesPackages() bool
}

// Options configures an adapter. Only ProjectPath is required.
type Options struct {
	// ProjectPath is the project root.
	ProjectPath string

	// FS is used for every file read. Defaults to the host filesystem.
	FS billy.Filesystem

	// Runner executes package-manager commands. Defaults to command.Exec.
	Runner command.Runner

	// Logger receives command failures and diagnostics. Defaults to a
	// discarding logger.
	Logger *log.Logger

	// Env is the environment snapshot taken at startup.
	Env config.Env

	// Enrich enables registry lookups.
	Enrich bool

	// Registry overrides the adapter's default registry client.
	Registry integrations.MetadataFetcher

	// Cache and CacheTTL configure default registry clients.
	Cache    cache.Cache
	CacheTTL time.Duration

	Python PythonOptions
}

// PythonOptions configures the pip adapter.
type PythonOptions struct {
	// RequirementsPath overrides requirements.txt. Relative paths are
	// relative to the project root.
	RequirementsPath string
	// Version selects the pip/python binaries: "2" or "3". Empty means "3".
	Version string
	// HelperPath points at an existing copy of the enumeration helper
	// script instead of the embedded one.
	HelperPath string
}

// Base carries the state shared by all adapters. Adapters embed it.
type Base struct {
	Root   string
	FS     billy.Filesystem
	Runner command.Runner
	Logger *log.Logger
	Env    config.Env
	Enrich bool

	name     string
	registry integrations.MetadataFetcher
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewBase validates opts and fills in defaults for the adapter called name.
func NewBase(name string, opts Options) (Base, error) {
	if err := errors.ValidateProjectPath(opts.ProjectPath); err != nil {
		return Base{}, err
	}
	b := Base{
		Root:     path.Clean(opts.ProjectPath),
		FS:       opts.FS,
		Runner:   opts.Runner,
		Logger:   opts.Logger,
		Env:      opts.Env,
		Enrich:   opts.Enrich,
		name:     name,
		registry: opts.Registry,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
	}
	if b.FS == nil {
		b.FS = osfs.New("/")
	}
	if b.Runner == nil {
		b.Runner = command.Exec{}
	}
	if b.Logger == nil {
		b.Logger = log.New(io.Discard)
	}
	b.Logger = b.Logger.With("manager", name)
	return b, nil
}

// Name returns the adapter tag.
func (b *Base) Name() string { return b.name }

// Registry returns the registry client used for enrichment, or nil.
func (b *Base) Registry() integrations.MetadataFetcher {
	if !b.Enrich {
		return nil
	}
	return b.registry
}

// DefaultRegistry installs the client built by newClient unless one was
// supplied in Options. It is a no-op when enrichment is disabled.
func (b *Base) DefaultRegistry(newClient func(cache.Cache, time.Duration) integrations.MetadataFetcher) {
	if b.Enrich && b.registry == nil {
		b.registry = newClient(b.cache, b.cacheTTL)
	}
}

// Path joins rel onto the project root. Absolute paths are returned as is.
func (b *Base) Path(rel string) string {
	if path.IsAbs(rel) {
		return path.Clean(rel)
	}
	return path.Join(b.Root, rel)
}

// Exists reports whether the project-relative file exists.
func (b *Base) Exists(rel string) bool {
	_, err := b.FS.Stat(b.Path(rel))
	return err == nil
}

// ReadFile reads a project-relative file.
func (b *Base) ReadFile(rel string) ([]byte, error) {
	data, err := util.ReadFile(b.FS, b.Path(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "%s not found", rel)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read %s", rel)
	}
	return data, nil
}

// Command builds a command that runs in the project root.
func (b *Base) Command(name string, args ...string) command.Cmd {
	return command.New(name, args...).InDir(b.Root)
}

// Run executes c and returns its stdout. On a start failure or non-zero
// exit it logs "command '<c>' failed:\n\t<stderr>" and returns false.
func (b *Base) Run(ctx context.Context, c command.Cmd) ([]byte, bool) {
	res, err := b.run(ctx, c)
	if err != nil {
		b.LogErrors(errors.UserMessage(err))
		return nil, false
	}
	return res.Stdout, true
}

// Exec runs c for its side effects and returns a COMMAND_FAILED error
// carrying the standard failure message.
func (b *Base) Exec(ctx context.Context, c command.Cmd) error {
	_, err := b.run(ctx, c)
	return err
}

func (b *Base) run(ctx context.Context, c command.Cmd) (*command.Result, error) {
	if c.Dir == "" {
		c.Dir = b.Root
	}
	b.Logger.Debug("running", "cmd", c.String())
	res, err := b.Runner.Run(ctx, c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCommandFailed, err, "%s", failureMessage(c, err.Error()))
	}
	if !res.Success() {
		return res, errors.New(errors.ErrCodeCommandFailed, "%s", failureMessage(c, string(res.Stderr)))
	}
	return res, nil
}

func failureMessage(c command.Cmd, stderr string) string {
	return fmt.Sprintf("command '%s' failed:\n\t%s", c, strings.TrimSpace(stderr))
}

// LogErrors reports an enumeration failure.
func (b *Base) LogErrors(msg string) {
	b.Logger.Error(msg)
}

// NewPackage returns a package tagged with this adapter. Licenses stay
// empty until the scanner resolves them.
func (b *Base) NewPackage(name, version string) *Package {
	return &Package{
		Name:           name,
		Version:        version,
		PackageManager: b.name,
		Provenance:     []string{b.name},
	}
}

// JoinInstallPath joins a reported location and a package name. An empty
// location yields "".
func JoinInstallPath(location, name string) string {
	if location == "" {
		return ""
	}
	return path.Join(location, name)
}
