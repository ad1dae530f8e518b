package search

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity returns a normalized Levenshtein ratio between two strings:
// 1.0 for identical strings, approaching 0 as they diverge. Comparison is
// case-insensitive, matching how the engine applies fuzzy rescue to names.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}

	ratio := 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	if ratio < 0 {
		return 0
	}
	return ratio
}
