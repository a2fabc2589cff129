package micromatcher_test

import (
	"testing"

	"github.com/pomsky-lang/pomsky-go/internal/micromatcher"
	"github.com/stretchr/testify/assert"
)

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func TestLiteral(t *testing.T) {
	m := micromatcher.Literal("<%")
	match, ok := m("<%foo")
	assert.True(t, ok)
	assert.Equal(t, 2, match.Consumed)

	_, ok = m("foo")
	assert.False(t, ok)
}

func TestCharPredicate(t *testing.T) {
	m := micromatcher.CharPredicate(isHexDigit)
	match, ok := m("fZ")
	assert.True(t, ok)
	assert.Equal(t, 1, match.Consumed)
	assert.Equal(t, 'f', match.Value)

	_, ok = m("Z")
	assert.False(t, ok)
}

func TestAlternativesFirstWins(t *testing.T) {
	m := micromatcher.Alternatives(
		micromatcher.Literal(">>"),
		micromatcher.Literal(">"),
	)
	match, ok := m(">>rest")
	assert.True(t, ok)
	assert.Equal(t, 2, match.Consumed)
}

func TestAlternativesEmptyLastAlwaysMatches(t *testing.T) {
	m := micromatcher.Alternatives(
		micromatcher.Literal("x"),
		micromatcher.Literal(""),
	)
	match, ok := m("anything")
	assert.True(t, ok)
	assert.Equal(t, 0, match.Consumed)
}

func TestSequenceSumsLengthsAndKeepsLastValue(t *testing.T) {
	m := micromatcher.Sequence(
		micromatcher.Literal("<"),
		micromatcher.Many1(micromatcher.CharPredicate(func(r rune) bool { return r != '>' })),
		micromatcher.Literal(">"),
	)
	match, ok := m("<name>rest")
	assert.True(t, ok)
	assert.Equal(t, len("<name>"), match.Consumed)
	assert.Equal(t, ">", match.Value)
}

func TestMany0AllowsZero(t *testing.T) {
	m := micromatcher.Many0(micromatcher.CharPredicate(isHexDigit))
	match, ok := m("zzz")
	assert.True(t, ok)
	assert.Equal(t, 0, match.Consumed)
}

func TestMany1RequiresOne(t *testing.T) {
	m := micromatcher.Many1(micromatcher.CharPredicate(isHexDigit))
	_, ok := m("zzz")
	assert.False(t, ok)

	match, ok := m("ff00zz")
	assert.True(t, ok)
	assert.Equal(t, 4, match.Consumed)
}

func TestContextOverridesValue(t *testing.T) {
	m := micromatcher.Context(micromatcher.Literal("\\b"), "word-boundary")
	match, ok := m("\\b")
	assert.True(t, ok)
	assert.Equal(t, "word-boundary", match.Value)
}

func TestIsStart(t *testing.T) {
	n, ok := micromatcher.IsStart(micromatcher.Literal("::"), "::name")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}
