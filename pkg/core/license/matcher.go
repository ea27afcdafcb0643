package license

import (
	"sort"
	"strings"

	"github.com/google/licensecheck"
)

const (
	// diceThreshold is the minimum shingle similarity for a template match.
	diceThreshold = 0.9
	// coverageThreshold is the minimum licensecheck coverage (percent)
	// accepted by the last-resort classifier.
	coverageThreshold = 80.0
	// maxFragmentGap bounds the text allowed between two template fragments,
	// i.e. the length of a substituted holder name.
	maxFragmentGap = 200
)

// Matcher maps raw license strings and license texts to corpus licenses.
//
// A Matcher is immutable after construction and safe for concurrent use.
// Most callers use [Default]; tests build small matchers with [NewMatcher]
// or [Load].
type Matcher struct {
	licenses []*License
	byKey    map[string]*License
	aliases  []aliasWords
}

type aliasWords struct {
	words   string
	license *License
}

// NewMatcher indexes the given licenses by canonical name and alias.
// Earlier licenses win when two entries claim the same key.
func NewMatcher(licenses []*License) *Matcher {
	m := &Matcher{
		licenses: licenses,
		byKey:    make(map[string]*License),
	}
	names := func(l *License) []string {
		return append([]string{l.Name}, l.Aliases...)
	}
	for _, l := range licenses {
		for _, n := range names(l) {
			if k := nameKey(n); k != "" {
				if _, ok := m.byKey[k]; !ok {
					m.byKey[k] = l
				}
			}
		}
	}
	// Bare keys ("mit" for "The MIT License") never shadow explicit ones.
	for _, l := range licenses {
		for _, n := range names(l) {
			if k := bareKey(nameKey(n)); k != "" {
				if _, ok := m.byKey[k]; !ok {
					m.byKey[k] = l
				}
			}
		}
	}
	for _, l := range licenses {
		for _, n := range names(l) {
			if w := wordsOf(n); w != "" {
				m.aliases = append(m.aliases, aliasWords{words: w, license: l})
			}
		}
	}
	sort.SliceStable(m.aliases, func(i, j int) bool {
		return len(m.aliases[i].words) > len(m.aliases[j].words)
	})
	return m
}

// All returns the corpus licenses in corpus order.
func (m *Matcher) All() []*License {
	out := make([]*License, len(m.licenses))
	copy(out, m.licenses)
	return out
}

// Lookup finds a license by canonical name or alias without expression
// handling. Lookups are case-insensitive and ignore surrounding whitespace
// and enclosing punctuation.
func (m *Matcher) Lookup(name string) (*License, bool) {
	key := nameKey(name)
	if key == "" {
		return nil, false
	}
	if key == Unknown.Name {
		return Unknown, true
	}
	if l, ok := m.byKey[key]; ok {
		return l, true
	}
	if l, ok := m.byKey[bareKey(key)]; ok {
		return l, true
	}
	return nil, false
}

// FindByName returns the single best license for raw. When raw as a whole is
// not a known name but is an expression, the first recognised token wins.
// Returns [Unknown] when nothing matches; never nil.
func (m *Matcher) FindByName(raw string) *License {
	if l, ok := m.Lookup(raw); ok {
		return l
	}
	for _, tok := range SplitExpression(raw) {
		if l, ok := m.Lookup(tok); ok {
			return l
		}
	}
	return Unknown
}

// FindAllByName resolves every license named in an expression such as
// "MIT OR Apache-2.0". The whole string is tried first so that names
// containing separators ("MIT/X11", "GPL-2.0 or later") survive. Tokens that
// do not resolve contribute [Unknown]. The result is non-empty for
// non-blank input.
func (m *Matcher) FindAllByName(raw string) Set {
	set, _ := m.exact(raw)
	return set
}

// exact resolves raw by name and reports whether every token was recognised.
func (m *Matcher) exact(raw string) (Set, bool) {
	var set Set
	if strings.TrimSpace(raw) == "" {
		return set, false
	}
	if l, ok := m.Lookup(raw); ok {
		set.Add(l)
		return set, !l.IsUnknown()
	}
	complete := true
	for _, tok := range splitOperators(raw) {
		if isFiller(tok) {
			continue
		}
		if l, ok := m.Lookup(tok); ok {
			set.Add(l)
			continue
		}
		for _, part := range splitSeparators(tok) {
			if isFiller(part) {
				continue
			}
			if l, ok := m.Lookup(part); ok {
				set.Add(l)
			} else {
				set.Add(Unknown)
				complete = false
			}
		}
	}
	if set.Len() == 0 {
		set.Add(Unknown)
		complete = false
	}
	return set, complete && set.HasKnown()
}

// fuzzy finds every corpus name that occurs as a whole-word phrase inside an
// unstructured string such as "License :: OSI Approved :: MIT License".
// Longer names are matched first and consume their words.
func (m *Matcher) fuzzy(s string) Set {
	var set Set
	text := " " + wordsOf(s) + " "
	if strings.TrimSpace(text) == "" {
		return set
	}
	for _, a := range m.aliases {
		needle := " " + a.words + " "
		if strings.Contains(text, needle) {
			set.Add(a.license)
			text = strings.ReplaceAll(text, needle, " | ")
		}
	}
	return set
}

// FindByText identifies the license whose text is contained in text.
//
// Returns nil when text is empty or whitespace only. Otherwise the text is
// normalised and compared, in order, by template containment, template
// similarity, distinctive patterns and finally the licensecheck classifier.
// Returns [Unknown] when none of them matches.
func (m *Matcher) FindByText(text string) *License {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	norm := normalizeText(text)
	if norm == "" {
		return Unknown
	}

	var best *License
	bestLen := 0
	for _, l := range m.licenses {
		if len(l.fragments) == 0 || !containsFragments(norm, l.fragments) {
			continue
		}
		if n := fragmentsLen(l.fragments); n > bestLen {
			best, bestLen = l, n
		}
	}
	if best != nil {
		return best
	}

	textShingles := shingles(norm)
	bestScore := 0.0
	for _, l := range m.licenses {
		if len(l.shingles) == 0 {
			continue
		}
		if score := dice(l.shingles, textShingles); score >= diceThreshold && score > bestScore {
			best, bestScore = l, score
		}
	}
	if best != nil {
		return best
	}

	padded := " " + norm + " "
	for _, l := range m.licenses {
		for _, p := range l.patterns {
			if strings.Contains(padded, " "+p+" ") && len(p) > bestLen {
				best, bestLen = l, len(p)
			}
		}
	}
	if best != nil {
		return best
	}

	cov := licensecheck.Scan([]byte(text))
	if cov.Percent >= coverageThreshold {
		for _, match := range cov.Match {
			if l := m.FindByName(match.ID); !l.IsUnknown() {
				return l
			}
		}
	}
	return Unknown
}

func containsFragments(text string, fragments []string) bool {
	pos := 0
	for i, f := range fragments {
		idx := strings.Index(text[pos:], f)
		if idx < 0 || (i > 0 && idx > maxFragmentGap) {
			return false
		}
		pos += idx + len(f)
	}
	return true
}

func fragmentsLen(fragments []string) int {
	n := 0
	for _, f := range fragments {
		n += len(f)
	}
	return n
}
