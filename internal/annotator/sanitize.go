package annotator

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "in": {}, "to": {}, "of": {}, "we": {},
	"i": {}, "it": {}, "a": {}, "at": {}, "on": {}, "for": {}, "with": {},
	"as": {}, "you": {}, "this": {}, "that": {}, "are": {}, "was": {}, "be": {},
}

// IsStopword reports whether word is in the stopword set, ignoring case.
func IsStopword(word string) bool {
	_, ok := stopwords[fold(word)]
	return ok
}

// SanitizeHighlights keeps at most limit candidates that are long enough,
// are not stopwords and occur in text. Order is preserved and repeats
// (ignoring case) are dropped.
func SanitizeHighlights(text string, candidates []string, limit, minLength int) []string {
	out := make([]string, 0, limit)
	if limit <= 0 {
		return out
	}
	folded := fold(text)
	seen := make(map[string]struct{}, limit)
	for _, w := range candidates {
		if len(out) == limit {
			break
		}
		if utf8.RuneCountInString(w) < minLength {
			continue
		}
		if IsStopword(w) {
			continue
		}
		key := fold(w)
		if _, dup := seen[key]; dup {
			continue
		}
		if !strings.Contains(folded, key) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}

// fold returns a case-folded copy of s. cases.Caser is stateful, so one is
// built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
