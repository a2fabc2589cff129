package codegen_test

import (
	"testing"

	"github.com/pomsky-lang/pomsky-go/internal/codegen"
	"github.com/pomsky-lang/pomsky-go/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, source string, flavor codegen.Flavor) string {
	t.Helper()
	res, err := parser.Parse(source, parser.Options{})
	require.NoError(t, err, "parse %q", source)
	text, err := codegen.Compile(res, codegen.Options{Flavor: flavor})
	require.NoError(t, err, "compile %q", source)
	return text
}

func compileErr(t *testing.T, source string, flavor codegen.Flavor) *codegen.Error {
	t.Helper()
	res, err := parser.Parse(source, parser.Options{})
	require.NoError(t, err, "parse %q", source)
	_, cerr := codegen.Compile(res, codegen.Options{Flavor: flavor})
	require.Error(t, cerr)
	e, ok := cerr.(*codegen.Error)
	require.True(t, ok, "expected *codegen.Error, got %T", cerr)
	return e
}

func TestCompileEscapesLiteralMetacharacters(t *testing.T) {
	assert.Equal(t, `a\.b`, compile(t, `"a.b"`, codegen.Pcre))
}

func TestCompileCharClassRange(t *testing.T) {
	assert.Equal(t, `[a-z]`, compile(t, `['a'-'z']`, codegen.Pcre))
}

func TestCompileNegatedCharClass(t *testing.T) {
	assert.Equal(t, `[^a-z]`, compile(t, `!['a'-'z']`, codegen.Pcre))
}

func TestCompileSingleNamedClassCollapsesToBareEscape(t *testing.T) {
	assert.Equal(t, `\w`, compile(t, `[w]`, codegen.Pcre))
}

func TestCompileRepetitionQuantifiers(t *testing.T) {
	cases := map[string]string{
		`'a'*`:     `a*`,
		`'a'+`:     `a+`,
		`'a'?`:     `a?`,
		`'a'{2,}`:  `a{2,}`,
		`'a'{3,3}`: `a{3}`,
		`'a'{0,5}`: `a{,5}`,
		`'a'{2,5}`: `a{2,5}`,
	}
	for src, want := range cases {
		assert.Equal(t, want, compile(t, src, codegen.Pcre), "source %q", src)
	}
}

func TestCompileLazyRepetitionAddsQuestionMark(t *testing.T) {
	assert.Equal(t, `a{2,}?`, compile(t, `'a'{2,} lazy`, codegen.Pcre))
}

func TestCompileLazyExactCountSuppressesQuestionMark(t *testing.T) {
	assert.Equal(t, `a{3}`, compile(t, `'a'{3,3} lazy`, codegen.Pcre))
}

func TestCompileAlternationJoinsWithPipe(t *testing.T) {
	assert.Equal(t, `a|b`, compile(t, `'a'|'b'`, codegen.Pcre))
}

func TestCompileNamedCapturingGroupAndBackref(t *testing.T) {
	assert.Equal(t, `(?<greeting>a)\k<greeting>`, compile(t, `:greeting('a') ::greeting`, codegen.Pcre))
}

func TestCompilePythonNamedGroupSyntax(t *testing.T) {
	assert.Equal(t, `(?P<greeting>a)(?P=greeting)`, compile(t, `:greeting('a') ::greeting`, codegen.Python))
}

func TestCompileLookaround(t *testing.T) {
	assert.Equal(t, `a(?=b)`, compile(t, `'a' >> 'b'`, codegen.Pcre))
	assert.Equal(t, `a(?<!b)`, compile(t, `'a' !<< 'b'`, codegen.Pcre))
}

func TestCompileUnknownBackrefIsError(t *testing.T) {
	e := compileErr(t, `::missing`, codegen.Pcre)
	assert.Equal(t, codegen.KindUnknownReferenceName, e.Kind)
	assert.Equal(t, "missing", e.Name)
}

func TestCompileUnknownVariableIsError(t *testing.T) {
	e := compileErr(t, `let x = 'a'; y`, codegen.Pcre)
	assert.Equal(t, codegen.KindUnknownVariable, e.Kind)
	assert.Equal(t, "y", e.Name)
}

func TestCompileMultipleUnknownVariablesFlattenTogether(t *testing.T) {
	res, err := parser.Parse(`y z`, parser.Options{})
	require.NoError(t, err)
	_, cerr := codegen.Compile(res, codegen.Options{Flavor: codegen.Pcre})
	require.Error(t, cerr)
	e, ok := cerr.(*codegen.Error)
	require.True(t, ok)
	require.Equal(t, codegen.KindMultiple, e.Kind)
	assert.Len(t, e.Flatten(), 2)
}

func TestCompileVariableInliningAppliesRepetitionParens(t *testing.T) {
	assert.Equal(t, `(?:a|b)*`, compile(t, `let x = 'a'|'b'; x*`, codegen.Pcre))
}

func TestCompileGraphemeUnsupportedOnJavaScript(t *testing.T) {
	e := compileErr(t, `Grapheme`, codegen.JavaScript)
	assert.Equal(t, codegen.KindUnsupported, e.Kind)
	assert.Equal(t, codegen.JavaScript, e.Flavor)
}

func TestCompileGraphemeSupportedOnPcre(t *testing.T) {
	assert.Equal(t, `\X`, compile(t, `Grapheme`, codegen.Pcre))
}

func TestCompileHorizontalWhitespaceGatedByFlavor(t *testing.T) {
	assert.Equal(t, `\h`, compile(t, `[h]`, codegen.Pcre))
	e := compileErr(t, `[h]`, codegen.JavaScript)
	assert.Equal(t, codegen.KindUnsupported, e.Kind)
}
