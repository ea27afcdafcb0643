// Package cli implements the licensetower command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/buildinfo"
	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/command"
	"github.com/matzehuels/licensetower/pkg/config"
	"github.com/matzehuels/licensetower/pkg/core/scan"
	"github.com/matzehuels/licensetower/pkg/errors"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output and Err progress output. They default to
	// os.Stdout and os.Stderr.
	Out io.Writer
	Err io.Writer
	// FS, Runner and Lookup are the host filesystem, command runner and
	// environment. Tests replace them.
	FS     billy.Filesystem
	Runner command.Runner
	Lookup config.LookupFunc

	configPath string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Err:    os.Stderr,
		FS:     osfs.New("/"),
		Runner: command.Exec{},
		Lookup: os.LookupEnv,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "licensetower",
		Short:        "Licensetower reports the licenses of a project's dependencies",
		Long:         `Licensetower detects the package managers a project uses, enumerates the installed dependencies of each, and resolves every dependency to a canonical license.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			registerHooks(c.Logger)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default: <project>/"+config.FileName+")")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the registry response cache")

	root.AddCommand(c.scanCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.licenseCommand())
	root.AddCommand(c.managersCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	return root
}

func (c *CLI) errOut() io.Writer {
	if c.Err == nil {
		return os.Stderr
	}
	return c.Err
}

// settings is the merged configuration of one invocation.
type settings struct {
	cfg *config.Config
	env config.Env
}

// loadSettings reads the environment snapshot (with the project's .env
// overlay) and the configuration file for project.
func (c *CLI) loadSettings(project string) (*settings, error) {
	lookup, err := config.WithDotenv(c.FS, c.FS.Join(project, ".env"), c.Lookup)
	if err != nil {
		return nil, err
	}
	var cfg *config.Config
	if c.configPath != "" {
		cfg, err = config.Load(c.FS, absPath(c.configPath))
	} else {
		cfg, err = config.LoadProject(c.FS, project)
	}
	if err != nil {
		return nil, err
	}
	if c.noCache {
		cfg.Cache.Disabled = true
	}
	return &settings{cfg: cfg, env: config.LoadEnv(lookup)}, nil
}

// openCache builds the configured registry cache: none, Redis or files.
func (c *CLI) openCache(ctx context.Context, s *settings) (cache.Cache, error) {
	switch {
	case s.cfg.Cache.Disabled:
		return cache.NewNullCache(), nil
	case s.cfg.Cache.RedisAddr != "":
		rc, err := cache.NewRedisCache(ctx, s.cfg.Cache.RedisAddr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "open cache")
		}
		return rc, nil
	}
	dir := s.cfg.Cache.Dir
	if dir == "" {
		dir = s.env.CacheDir()
	}
	fc, err := cache.NewFileCache(c.FS, dir)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newScanner builds a scanner from settings. The caller closes the cache.
func (c *CLI) newScanner(ctx context.Context, s *settings) (*scan.Scanner, cache.Cache, error) {
	opts, err := scan.FromConfig(s.cfg)
	if err != nil {
		return nil, nil, err
	}
	backend, err := c.openCache(ctx, s)
	if err != nil {
		return nil, nil, err
	}
	opts.Logger = c.Logger
	opts.FS = c.FS
	opts.Runner = c.Runner
	opts.Env = s.env
	opts.Cache = backend
	return scan.New(opts), backend, nil
}

// absPath resolves p against the working directory.
func absPath(p string) string {
	if p == "" {
		p = "."
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
