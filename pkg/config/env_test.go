package config

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadEnv(t *testing.T) {
	env := LoadEnv(mapLookup(map[string]string{
		"GOPATH":                   "/gopath",
		"PUB_CACHE":                "/pub",
		"DEPNOLOCK":                "",
		"LICENSETOWER_NO_LOCKFILE": "true",
		"HOME":                     "/home/me",
	}))
	want := Env{
		GoPath:     "/gopath",
		PubCache:   "/pub",
		DepNoLock:  true,
		NoLockfile: true,
		Home:       "/home/me",
	}
	if diff := cmp.Diff(want, env); diff != "" {
		t.Errorf("LoadEnv() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvToggles(t *testing.T) {
	tests := []struct {
		value string
		set   bool
		want  bool
	}{
		{"", false, false},
		{"", true, true},
		{"1", true, true},
		{"yes", true, true},
		{"0", true, false},
		{"false", true, false},
		{" OFF ", true, false},
		{"no", true, false},
	}
	for _, tt := range tests {
		vars := map[string]string{}
		if tt.set {
			vars["DEPNOLOCK"] = tt.value
			vars["LICENSETOWER_NO_LOCKFILE"] = tt.value
		}
		env := LoadEnv(mapLookup(vars))
		if env.DepNoLock != tt.want || env.NoLockfile != tt.want {
			t.Errorf("value %q (set %v): flags = %v/%v, want %v", tt.value, tt.set, env.DepNoLock, env.NoLockfile, tt.want)
		}
	}
}

func TestEnvDirs(t *testing.T) {
	tests := []struct {
		name               string
		env                Env
		cache, pub, gopath string
	}{
		{
			name:   "explicit",
			env:    Env{CacheHome: "/xdg", PubCache: "/pub", GoPath: "/go1:/go2", Home: "/home/me"},
			cache:  "/xdg/licensetower",
			pub:    "/pub",
			gopath: "/go1",
		},
		{
			name:   "home fallback",
			env:    Env{Home: "/home/me"},
			cache:  "/home/me/.cache/licensetower",
			pub:    "/home/me/.pub-cache",
			gopath: "/home/me/go",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.env.CacheDir(); got != tt.cache {
				t.Errorf("CacheDir() = %q, want %q", got, tt.cache)
			}
			if got := tt.env.PubCacheDir(); got != tt.pub {
				t.Errorf("PubCacheDir() = %q, want %q", got, tt.pub)
			}
			if got := tt.env.GoPathDir(); got != tt.gopath {
				t.Errorf("GoPathDir() = %q, want %q", got, tt.gopath)
			}
		})
	}
}

func TestWithDotenv(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "/proj/.env", []byte("GOPATH=/from-dotenv\nPUB_CACHE=/pub-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	base := mapLookup(map[string]string{"GOPATH": "/real"})

	lookup, err := WithDotenv(fs, "/proj/.env", base)
	if err != nil {
		t.Fatalf("WithDotenv: %v", err)
	}
	env := LoadEnv(lookup)
	if env.GoPath != "/real" {
		t.Errorf("GoPath = %q, want real environment to win", env.GoPath)
	}
	if env.PubCache != "/pub-dotenv" {
		t.Errorf("PubCache = %q, want %q", env.PubCache, "/pub-dotenv")
	}

	lookup, err = WithDotenv(fs, "/proj/missing.env", base)
	if err != nil {
		t.Fatalf("WithDotenv (missing): %v", err)
	}
	if v, _ := lookup("GOPATH"); v != "/real" {
		t.Errorf("GOPATH = %q, want %q", v, "/real")
	}
}
