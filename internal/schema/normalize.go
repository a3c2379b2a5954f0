package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a field name for comparison: trim, strip
// accents, lower-case, drop every non-alphanumeric rune. Idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize splits a field name into lower-cased tokens on separators,
// camelCase boundaries and letter/digit boundaries:
// "WorkEmails" -> ["work","emails"], "hire_date2" -> ["hire","date","2"].
func Tokenize(name string) []string {
	s := strings.TrimSpace(name)
	if s == "" {
		return nil
	}
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}

	prev := rune(0)
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur.WriteRune(r)
		case unicode.IsDigit(r) != unicode.IsDigit(prev) && cur.Len() > 0:
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
		prev = r
	}
	flush()
	return tokens
}

// tokens that carry no discriminating meaning on their own; overlap on
// these alone must not produce a Partial candidate.
var fillerTokens = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "and": {}, "or": {},
	"field": {}, "column": {}, "col": {}, "value": {}, "data": {},
}

// MeaningfulTokens filters Tokenize output down to tokens usable for
// overlap scoring: at least two runes and not a filler word.
func MeaningfulTokens(name string) []string {
	all := Tokenize(name)
	out := all[:0]
	for _, t := range all {
		if len([]rune(t)) < 2 {
			continue
		}
		if _, filler := fillerTokens[t]; filler {
			continue
		}
		out = append(out, t)
	}
	return out
}
