package license

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	commentRE   = regexp.MustCompile(`^\s*(?:#+|//+|/\*+|\*+/?|;+|--)\s?`)
	bulletRE    = regexp.MustCompile(`^\s*(?:[-*•]+|\d{1,2}[.)]|\([0-9a-z]{1,3}\)|[a-z][.)])\s+`)
	copyrightRE = regexp.MustCompile(`^\s*(?:copyright\b|\(c\)|©|all rights reserved)`)
	urlSchemeRE = regexp.MustCompile(`https?://`)
	yearRE      = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

// normalizeText reduces license text to lowercase words separated by single
// spaces. Comment leaders, bullet markers, copyright lines, URL schemes and
// years are dropped so that copies differing only in layout or holder
// compare equal.
func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = urlSchemeRE.ReplaceAllString(text, "")

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = commentRE.ReplaceAllString(line, "")
		if copyrightRE.MatchString(line) {
			continue
		}
		line = bulletRE.ReplaceAllString(line, "")
		b.WriteString(line)
		b.WriteByte(' ')
	}

	words := strings.FieldsFunc(b.String(), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if yearRE.MatchString(w) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// nameKey is the lookup key for license names: case-folded, trimmed of
// surrounding whitespace and enclosing punctuation, inner whitespace
// collapsed.
func nameKey(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`"'()[]{}<>,.;:`+"`", r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// bareKey strips a leading "the" and a trailing "license" from a name key
// so that "The MIT License" and "MIT" share a key.
func bareKey(key string) string {
	key = strings.TrimPrefix(key, "the ")
	for _, suffix := range []string{" license", " licence"} {
		key = strings.TrimSuffix(key, suffix)
	}
	return strings.TrimSpace(key)
}

// wordsOf lowercases s and replaces every run of non-alphanumerics with one
// space. Used for alias containment in free text.
func wordsOf(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// shingles returns the set of word trigrams of normalised text.
func shingles(text string) map[string]struct{} {
	words := strings.Fields(text)
	out := make(map[string]struct{}, len(words))
	if len(words) < 3 {
		if len(words) > 0 {
			out[strings.Join(words, " ")] = struct{}{}
		}
		return out
	}
	for i := 0; i+3 <= len(words); i++ {
		out[words[i]+" "+words[i+1]+" "+words[i+2]] = struct{}{}
	}
	return out
}

// dice is the Sørensen–Dice coefficient of two shingle sets.
func dice(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for s := range a {
		if _, ok := b[s]; ok {
			inter++
		}
	}
	return 2 * float64(inter) / float64(len(a)+len(b))
}
