package config

import (
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/joho/godotenv"

	"github.com/matzehuels/licensetower/pkg/errors"
)

// LookupFunc reads one environment variable. [os.LookupEnv] is the
// production implementation.
type LookupFunc func(key string) (string, bool)

// Env is the snapshot of the environment variables that influence
// package-manager behaviour. It is read once at startup and passed to
// adapters; nothing reads the process environment afterwards.
type Env struct {
	GoPath     string // GOPATH
	PubCache   string // PUB_CACHE
	DepNoLock  bool   // DEPNOLOCK: dep runs without its lock
	NoLockfile bool   // LICENSETOWER_NO_LOCKFILE: install without honouring lockfiles
	CacheHome  string // XDG_CACHE_HOME
	Home       string // HOME
}

// LoadEnv captures the snapshot through lookup. A nil lookup reads the
// process environment.
func LoadEnv(lookup LookupFunc) Env {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(k string) string {
		v, _ := lookup(k)
		return v
	}
	return Env{
		GoPath:     get("GOPATH"),
		PubCache:   get("PUB_CACHE"),
		DepNoLock:  toggle(lookup, "DEPNOLOCK"),
		NoLockfile: toggle(lookup, "LICENSETOWER_NO_LOCKFILE"),
		CacheHome:  get("XDG_CACHE_HOME"),
		Home:       get("HOME"),
	}
}

// toggle reports whether key is set to anything but an explicit false
// ("0", "false", "no", "off"). An empty value counts as set, as dep treats
// DEPNOLOCK.
func toggle(lookup LookupFunc, key string) bool {
	v, ok := lookup(key)
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return false
	}
	return true
}

// WithDotenv returns a lookup that falls back to the variables of a .env
// file when base does not define a key, matching godotenv's rule that real
// environment variables win. A missing file leaves base unchanged.
func WithDotenv(fs billy.Filesystem, file string, base LookupFunc) (LookupFunc, error) {
	if base == nil {
		base = os.LookupEnv
	}
	f, err := fs.Open(file)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open %s", file)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", file)
	}
	return func(key string) (string, bool) {
		if v, ok := base(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}, nil
}

// CacheDir is the default directory for licensetower's registry cache.
func (e Env) CacheDir() string {
	switch {
	case e.CacheHome != "":
		return path.Join(e.CacheHome, "licensetower")
	case e.Home != "":
		return path.Join(e.Home, ".cache", "licensetower")
	}
	return path.Join(os.TempDir(), "licensetower-cache")
}

// PubCacheDir is the pub package cache root: PUB_CACHE, else ~/.pub-cache.
func (e Env) PubCacheDir() string {
	if e.PubCache != "" {
		return e.PubCache
	}
	if e.Home != "" {
		return path.Join(e.Home, ".pub-cache")
	}
	return ""
}

// GoPathDir is the first GOPATH entry, else ~/go.
func (e Env) GoPathDir() string {
	if e.GoPath != "" {
		return strings.Split(e.GoPath, string(os.PathListSeparator))[0]
	}
	if e.Home != "" {
		return path.Join(e.Home, "go")
	}
	return ""
}
