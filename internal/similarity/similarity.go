// Package similarity scores how close two chat messages are, for catching
// accidental re-submissions of the same meal or activity.
package similarity

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Score returns the normalized edit-distance similarity of a and b in [0,1].
// Both strings are whitespace-trimmed and case-folded before comparison.
// Two empty strings score 1.0.
func Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return float64(longest-dist) / float64(longest)
}
