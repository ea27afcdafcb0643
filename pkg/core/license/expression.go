package license

import "strings"

// SplitExpression breaks a license expression into its license tokens.
//
// The operators OR, AND and WITH (case-insensitive) and parentheses separate
// tokens; the exception following WITH is dropped. Each resulting token is
// further split on "/", ",", ";", "|" and "&". Empty tokens are removed.
//
//	SplitExpression("(MIT OR Apache-2.0) AND GPL-2.0 WITH Classpath-exception-2.0")
//	// → ["MIT", "Apache-2.0", "GPL-2.0"]
func SplitExpression(raw string) []string {
	var out []string
	for _, tok := range splitOperators(raw) {
		out = append(out, splitSeparators(tok)...)
	}
	return out
}

// splitOperators splits on expression keywords and parentheses only, keeping
// punctuation-separated names like "MIT/X11" intact.
func splitOperators(raw string) []string {
	raw = strings.NewReplacer("(", " ( ", ")", " ) ").Replace(raw)

	var (
		out      []string
		cur      []string
		skipNext bool
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, w := range strings.Fields(raw) {
		if skipNext {
			skipNext = false
			if w != "(" && w != ")" {
				continue
			}
		}
		switch strings.ToLower(w) {
		case "or", "and", "(", ")":
			flush()
		case "with":
			flush()
			skipNext = true
		default:
			cur = append(cur, w)
		}
	}
	flush()
	return out
}

func splitSeparators(tok string) []string {
	parts := strings.FieldsFunc(tok, func(r rune) bool {
		return strings.ContainsRune("/,;|&", r)
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// isFiller reports tokens that qualify a neighbour rather than name a
// license, e.g. the "later" of "GPL-2.0 or later".
func isFiller(tok string) bool {
	switch nameKey(tok) {
	case "later", "any later version", "newer", "+", "":
		return true
	}
	return false
}
