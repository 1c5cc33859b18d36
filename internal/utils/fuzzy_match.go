package utils

import (
	"strings"
)

// NormalizeTerm lower-cases a term and collapses inner whitespace.
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

// MatchCategory reports which category a term names. categories maps a
// canonical category name to its aliases. Only exact matches count, after
// NormalizeTerm: "mosque" and "Masjid" match, "car park" does not match
// "park".
func MatchCategory(term string, categories map[string][]string) (string, bool) {
	t := NormalizeTerm(term)
	if t == "" {
		return "", false
	}

	if _, ok := categories[t]; ok {
		return t, true
	}
	for name, aliases := range categories {
		for _, alias := range aliases {
			if NormalizeTerm(alias) == t {
				return name, true
			}
		}
	}
	return "", false
}

// ContainsAnySubstring reports whether text contains any of the fragments,
// case-insensitively and without word boundaries.
func ContainsAnySubstring(text string, fragments []string) bool {
	t := strings.ToLower(text)
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && strings.Contains(t, f) {
			return true
		}
	}
	return false
}
