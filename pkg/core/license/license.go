package license

import (
	"encoding/json"
	"strings"
)

// License is a canonical license from the corpus.
//
// Name is the SPDX identifier where one exists (e.g. "MIT", "BSD-3-Clause").
// Aliases are the alternative, human-written names that resolve to this
// license ("Simplified BSD", "Apache 2.0", "Expat"). Licenses are shared,
// read-only values: callers compare them by pointer or by Name and never
// mutate them.
type License struct {
	Name    string   // Canonical identifier (never empty)
	Aliases []string // Alternative names accepted by FindByName
	URL     string   // Reference URL (may be empty)

	fragments []string            // Normalised template pieces split at <<var>>
	shingles  map[string]struct{} // Word trigrams of the normalised template
	patterns  []string            // Normalised distinctive phrases
}

// Unknown is the terminal fallback used when no evidence resolves to a
// corpus license.
var Unknown = &License{Name: "unknown"}

// IsUnknown reports whether l is the Unknown sentinel (or nil).
func (l *License) IsUnknown() bool {
	return l == nil || l == Unknown || l.Name == Unknown.Name
}

func (l *License) String() string {
	if l == nil {
		return Unknown.Name
	}
	return l.Name
}

// MarshalJSON encodes a license as its canonical name.
func (l *License) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// Set is an ordered, duplicate-free collection of licenses.
// The zero value is an empty set ready to use.
type Set struct {
	items []*License
}

// NewSet returns a set holding the given licenses in order, skipping nils and
// duplicates.
func NewSet(ls ...*License) Set {
	var s Set
	for _, l := range ls {
		s.Add(l)
	}
	return s
}

// Add appends l unless it is nil or already present. Duplicates are detected
// by canonical name.
func (s *Set) Add(l *License) {
	if l == nil || s.Contains(l.Name) {
		return
	}
	s.items = append(s.items, l)
}

// Union adds every license of other that is not yet in s.
func (s *Set) Union(other Set) {
	for _, l := range other.items {
		s.Add(l)
	}
}

// Contains reports whether a license with the given canonical name is in s.
// The comparison is case-insensitive.
func (s Set) Contains(name string) bool {
	for _, l := range s.items {
		if strings.EqualFold(l.Name, name) {
			return true
		}
	}
	return false
}

func (s Set) Len() int { return len(s.items) }

// First returns the first license added, or nil for an empty set.
func (s Set) First() *License {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[0]
}

// Slice returns a copy of the licenses in insertion order.
func (s Set) Slice() []*License {
	out := make([]*License, len(s.items))
	copy(out, s.items)
	return out
}

// Names returns the canonical names in insertion order. The result is never
// nil.
func (s Set) Names() []string {
	out := make([]string, 0, len(s.items))
	for _, l := range s.items {
		out = append(out, l.Name)
	}
	return out
}

// WithoutUnknown returns a copy of s with the Unknown sentinel removed.
func (s Set) WithoutUnknown() Set {
	var out Set
	for _, l := range s.items {
		if !l.IsUnknown() {
			out.Add(l)
		}
	}
	return out
}

// HasKnown reports whether s holds at least one license other than Unknown.
func (s Set) HasKnown() bool {
	for _, l := range s.items {
		if !l.IsUnknown() {
			return true
		}
	}
	return false
}

func (s Set) String() string {
	return strings.Join(s.Names(), ", ")
}

// MarshalJSON encodes the set as a list of canonical names.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a list of names, resolving each against the default
// corpus. Names that are not in the corpus become Unknown.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	m := Default()
	*s = Set{}
	for _, n := range names {
		s.Add(m.FindByName(n))
	}
	return nil
}
