package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreIdentical(t *testing.T) {
	inputs := []string{"", "2 eggs and toast", "30 min run", "  padded  "}
	for _, s := range inputs {
		assert.Equal(t, 1.0, Score(s, s), "Score(%q, %q)", s, s)
	}
}

func TestScoreSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"2 eggs and toast", "2 eggs with toast"},
		{"ran 5k this morning", "walked 5k this morning"},
		{"", "anything"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]), "Score(%q, %q)", p[0], p[1])
	}
}

func TestScoreBounds(t *testing.T) {
	s := Score("apple", "zzzzzzzzzzzz")
	assert.GreaterOrEqual(t, s, 0.0)
	assert.LessOrEqual(t, s, 1.0)

	// Completely disjoint, same length: distance equals length.
	assert.Equal(t, 0.0, Score("aaaa", "bbbb"))
}

func TestScoreNormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, 1.0, Score("2 Eggs And Toast", "  2 eggs and toast  "))
}

func TestScoreNearDuplicate(t *testing.T) {
	s := Score("2 eggs and toast", "2 eggs and toast!")
	assert.Greater(t, s, 0.85)
}

func TestScoreEmptyAgainstNonEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "lunch"))
}
