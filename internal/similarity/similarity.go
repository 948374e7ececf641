// Package similarity compares free-text answers against reference names.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Normalize lower-cases and trims s. No transliteration or locale folding
// is applied.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Distance returns the Levenshtein distance between a and b with unit
// insertion, deletion and substitution costs. Inputs are compared as given.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}

// Similarity returns (maxLen - distance) / maxLen over the normalized
// inputs, in [0,1]. Two empty strings are identical (1.0).
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	return float64(maxLen-Distance(a, b)) / float64(maxLen)
}
