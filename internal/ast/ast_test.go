package ast_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pomsky-lang/pomsky-go/internal/ast"
	"github.com/pomsky-lang/pomsky-go/internal/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func charClassOf(points ...rune) *ast.CharClass {
	items := make([]ast.CharClassItem, len(points))
	for i, p := range points {
		items[i] = ast.CodePointItem(p)
	}
	return &ast.CharClass{Items: items}
}

func TestNewRepetitionRejectsDescendingBounds(t *testing.T) {
	upper := uint32(2)
	_, err := ast.NewRepetition(&ast.Literal{Text: "a"}, 5, &upper, ast.GreedyYes, span.Empty())
	require.ErrorIs(t, err, ast.ErrNotAscending)
}

func TestNewRepetitionAcceptsAscendingBounds(t *testing.T) {
	upper := uint32(5)
	rep, err := ast.NewRepetition(&ast.Literal{Text: "a"}, 2, &upper, ast.GreedyYes, span.Empty())
	require.NoError(t, err)
	assert.Equal(t, uint32(2), rep.Lower)
	assert.Equal(t, uint32(5), *rep.Upper)
}

func TestNewAlternationCollapsesNonNegatedCharClasses(t *testing.T) {
	cc1 := charClassOf('a', 'b')
	cc2 := charClassOf('c', 'd')

	got := ast.NewAlternation([]ast.Node{cc1, cc2}, span.Empty())

	want := &ast.CharClass{Items: []ast.CharClassItem{
		ast.CodePointItem('a'), ast.CodePointItem('b'),
		ast.CodePointItem('c'), ast.CodePointItem('d'),
	}}

	diff := cmp.Diff(want, got, cmpopts.IgnoreFields(ast.CharClass{}, "Sp"))
	assert.Empty(t, diff)
}

func TestNewAlternationDoesNotCollapseWhenAnyChildIsNegated(t *testing.T) {
	cc1 := charClassOf('a')
	cc2 := charClassOf('b')
	cc2.Negated = true

	got := ast.NewAlternation([]ast.Node{cc1, cc2}, span.Empty())
	_, isAlternation := got.(*ast.Alternation)
	assert.True(t, isAlternation)
}

func TestNewAlternationDoesNotCollapseWhenAnyChildIsNotCharClass(t *testing.T) {
	cc1 := charClassOf('a')
	lit := &ast.Literal{Text: "x"}

	got := ast.NewAlternation([]ast.Node{cc1, lit}, span.Empty())
	_, isAlternation := got.(*ast.Alternation)
	assert.True(t, isAlternation)
}

func TestBoundaryNegate(t *testing.T) {
	word := &ast.Boundary{Kind: ast.Word}
	negated, ok := word.Negate()
	require.True(t, ok)
	assert.Equal(t, ast.NotWord, negated.Kind)

	notWord := &ast.Boundary{Kind: ast.NotWord}
	negated, ok = notWord.Negate()
	require.True(t, ok)
	assert.Equal(t, ast.Word, negated.Kind)

	start := &ast.Boundary{Kind: ast.Start}
	_, ok = start.Negate()
	assert.False(t, ok)

	end := &ast.Boundary{Kind: ast.End}
	_, ok = end.Negate()
	assert.False(t, ok)
}
