// Package config loads licensetower settings.
//
// Settings come from three places, later ones overriding earlier ones:
//
//  1. [Default] values
//  2. a YAML file, usually .licensetower.yml in the project root
//  3. command-line flags, applied by the CLI
//
// The process environment is captured separately, once, as an [Env]
// snapshot that adapters receive explicitly.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/licensetower/pkg/errors"
)

// FileName is the project-level configuration file looked up by
// [LoadProject].
const FileName = ".licensetower.yml"

// Defaults.
const (
	DefaultWorkers       = 4
	DefaultPythonVersion = "3"
	DefaultCacheTTL      = 24 * time.Hour
	DefaultMergePolicy   = "union"
)

// Config holds the settings of one run.
type Config struct {
	// PackageManagers restricts scanning to the named adapters. Empty means
	// every registered adapter.
	PackageManagers []string `yaml:"package_managers"`
	// Prepare runs each adapter's install step before enumeration.
	Prepare bool `yaml:"prepare"`
	// Enrich allows registry lookups (PyPI summaries).
	Enrich bool `yaml:"enrich"`
	// MergePolicy is "union" or "first-wins".
	MergePolicy string `yaml:"merge_policy"`
	// Workers bounds concurrent project scans.
	Workers int `yaml:"workers"`

	Python PythonConfig `yaml:"python"`
	Cache  CacheConfig  `yaml:"cache"`
}

// PythonConfig holds pip-specific settings.
type PythonConfig struct {
	Version          string `yaml:"version"`           // "2" or "3"
	RequirementsPath string `yaml:"requirements_path"` // overrides requirements.txt
	HelperPath       string `yaml:"helper_path"`       // external enumeration helper
}

// CacheConfig holds registry response cache settings.
type CacheConfig struct {
	Disabled  bool          `yaml:"disabled"`
	Dir       string        `yaml:"dir"`        // file cache directory
	TTL       time.Duration `yaml:"ttl"`        // e.g. "24h"
	RedisAddr string        `yaml:"redis_addr"` // use Redis instead of files
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MergePolicy: DefaultMergePolicy,
		Workers:     DefaultWorkers,
		Python:      PythonConfig{Version: DefaultPythonVersion},
		Cache:       CacheConfig{TTL: DefaultCacheTTL},
	}
}

// Load reads a YAML configuration file from fs and applies it on top of
// [Default]. Unknown keys are rejected.
func Load(fs billy.Filesystem, path string) (*Config, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return Parse(data)
}

// LoadProject loads FileName from the project root, returning [Default]
// when the file does not exist.
func LoadProject(fs billy.Filesystem, root string) (*Config, error) {
	path := fs.Join(root, FileName)
	if _, err := fs.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(fs, path)
}

// Parse decodes YAML configuration data on top of [Default] and validates
// the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		if err := d.Decode(cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configuration")
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values. Package manager names are validated by the
// scanner, which owns the registry.
func (c *Config) Validate() error {
	if err := errors.ValidateChoice("merge policy", c.MergePolicy, []string{"union", "first-wins"}); err != nil {
		return err
	}
	if err := errors.ValidateChoice("python version", c.Python.Version, []string{"2", "3"}); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidOption, "workers must be at least 1, got %d", c.Workers)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "cache ttl must not be negative")
	}
	if p := c.Python.RequirementsPath; p != "" {
		if err := errors.ValidateProjectPath(p); err != nil {
			return err
		}
	}
	return nil
}
