package license

// Evidence is the raw license material gathered for one package.
type Evidence struct {
	// Declared holds identifiers or expressions from manifest metadata,
	// e.g. "MIT" or "(MIT OR Apache-2.0)".
	Declared []string `json:"declared,omitempty"`
	// Texts holds license text blobs supplied by the package manager itself.
	Texts []string `json:"-"`
	// FreeText holds unstructured license strings such as PyPI classifiers.
	FreeText []string `json:"free_text,omitempty"`
	// FileTexts holds the contents of license files found on disk.
	FileTexts []string `json:"-"`
}

// IsEmpty reports whether no evidence was collected.
func (e Evidence) IsEmpty() bool {
	return len(e.Declared) == 0 && len(e.Texts) == 0 && len(e.FreeText) == 0 && len(e.FileTexts) == 0
}

// Merge appends the evidence of other, skipping strings already present.
func (e *Evidence) Merge(other Evidence) {
	e.Declared = appendUnique(e.Declared, other.Declared...)
	e.Texts = appendUnique(e.Texts, other.Texts...)
	e.FreeText = appendUnique(e.FreeText, other.FreeText...)
	e.FileTexts = appendUnique(e.FileTexts, other.FileTexts...)
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		dup := false
		for _, d := range dst {
			if d == s {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}

// Resolve turns evidence into the package's license set.
//
// Tiers are tried in order and the first one producing a known license wins:
//
//  1. declared identifiers whose every token is a corpus name
//  2. license texts (adapter-supplied, then on-disk files)
//  3. corpus names occurring in the remaining declared strings and free text
//
// When no tier produces a known license the result is {Unknown}. The result
// is never empty.
func (m *Matcher) Resolve(ev Evidence) Set {
	var (
		declared Set
		leftover []string
	)
	for _, d := range ev.Declared {
		set, complete := m.exact(d)
		if complete {
			declared.Union(set)
		} else {
			leftover = append(leftover, d)
		}
	}
	if declared.HasKnown() {
		return declared
	}

	var texts Set
	for _, t := range append(append([]string(nil), ev.Texts...), ev.FileTexts...) {
		if l := m.FindByText(t); l != nil && !l.IsUnknown() {
			texts.Add(l)
		}
	}
	if texts.HasKnown() {
		return texts
	}

	var free Set
	for _, s := range append(leftover, ev.FreeText...) {
		free.Union(m.fuzzy(s))
	}
	if free.HasKnown() {
		return free
	}
	return NewSet(Unknown)
}

// FromSpec returns the licenses attributable to manifest metadata alone:
// fully recognised declared identifiers plus adapter-supplied texts. Unknown
// is never included, so the result may be empty.
func (m *Matcher) FromSpec(ev Evidence) Set {
	var out Set
	for _, d := range ev.Declared {
		if set, complete := m.exact(d); complete {
			out.Union(set)
		}
	}
	for _, t := range ev.Texts {
		if l := m.FindByText(t); l != nil && !l.IsUnknown() {
			out.Add(l)
		}
	}
	return out
}
