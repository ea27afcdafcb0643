package license

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed corpus/corpus.yaml corpus/templates/*.txt
var embedded embed.FS

var (
	defaultOnce    sync.Once
	defaultMatcher *Matcher
)

// Default returns the matcher built from the corpus embedded in the binary.
// It is loaded once and shared; the returned matcher is read-only and safe
// for concurrent use.
func Default() *Matcher {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "corpus")
		if err != nil {
			panic(fmt.Sprintf("license: embedded corpus: %v", err))
		}
		m, err := Load(sub)
		if err != nil {
			panic(fmt.Sprintf("license: embedded corpus: %v", err))
		}
		defaultMatcher = m
	})
	return defaultMatcher
}

type corpusFile struct {
	Licenses []corpusEntry `yaml:"licenses"`
}

type corpusEntry struct {
	Name     string   `yaml:"name"`
	URL      string   `yaml:"url"`
	Template string   `yaml:"template"`
	Aliases  []string `yaml:"aliases"`
	Patterns []string `yaml:"patterns"`
}

// Load builds a matcher from a corpus directory holding corpus.yaml and the
// template files it references under templates/.
func Load(fsys fs.FS) (*Matcher, error) {
	data, err := fs.ReadFile(fsys, "corpus.yaml")
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var cf corpusFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	licenses := make([]*License, 0, len(cf.Licenses))
	seen := make(map[string]bool, len(cf.Licenses))
	for _, e := range cf.Licenses {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("corpus entry without name")
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("duplicate corpus entry %q", name)
		}
		seen[strings.ToLower(name)] = true

		l := &License{Name: name, Aliases: e.Aliases, URL: e.URL}
		if e.Template != "" {
			raw, err := fs.ReadFile(fsys, path.Join("templates", e.Template))
			if err != nil {
				return nil, fmt.Errorf("template for %s: %w", name, err)
			}
			l.compileTemplate(string(raw))
		}
		for _, p := range e.Patterns {
			if np := normalizeText(p); np != "" {
				l.patterns = append(l.patterns, np)
			}
		}
		licenses = append(licenses, l)
	}
	return NewMatcher(licenses), nil
}

const placeholder = "<<var>>"

func (l *License) compileTemplate(raw string) {
	for _, piece := range strings.Split(raw, placeholder) {
		if np := normalizeText(piece); np != "" {
			l.fragments = append(l.fragments, np)
		}
	}
	l.shingles = shingles(strings.Join(l.fragments, " "))
}
