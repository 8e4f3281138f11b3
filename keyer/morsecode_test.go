package keyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharPatternRoundTripsThroughPatternToChar(t *testing.T) {
	for ch, pat := range CharPattern {
		got, ok := patternToChar[pat]
		assert.True(t, ok, "pattern %q for %q missing from reverse table", pat, ch)
		assert.Equal(t, ch, got)
	}
}

func TestCharPatternHasNoDuplicatePatterns(t *testing.T) {
	assert.Equal(t, len(CharPattern), len(patternToChar), "two characters must not share a pattern")
}

func TestCharPatternKnownLetters(t *testing.T) {
	cases := map[rune]string{
		'E': ".", 'T': "-", 'A': ".-", 'S': "...", 'O': "---",
	}
	for ch, want := range cases {
		assert.Equal(t, want, CharPattern[ch])
	}
}

func TestProsignTagLengthsWithinBound(t *testing.T) {
	for tag := range Prosigns {
		assert.LessOrEqual(t, len(tag), maxProsignTagLen)
	}
}

func TestProsignSOSIsConcatenatedSOS(t *testing.T) {
	assert.Equal(t, "...---...", Prosigns["SOS"])
}

func TestNormalizeCharUppercasesLetters(t *testing.T) {
	assert.Equal(t, 'A', NormalizeChar('a'))
	assert.Equal(t, 'Z', NormalizeChar('z'))
}

func TestNormalizeCharLeavesDigitsAndPunctuation(t *testing.T) {
	assert.Equal(t, '5', NormalizeChar('5'))
	assert.Equal(t, '?', NormalizeChar('?'))
}
