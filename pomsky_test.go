package pomsky_test

import (
	"testing"

	"github.com/pomsky-lang/pomsky-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndCompileLiteral(t *testing.T) {
	text, err := pomsky.ParseAndCompile(`'hello'`, pomsky.ParseOptions{}, pomsky.CompileOptions{Flavor: pomsky.Pcre})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestParseAndCompileAcrossFlavors(t *testing.T) {
	text, err := pomsky.ParseAndCompile(`:name('a'+)`, pomsky.ParseOptions{}, pomsky.CompileOptions{Flavor: pomsky.Python})
	require.NoError(t, err)
	assert.Equal(t, `(?P<name>a+)`, text)

	text, err = pomsky.ParseAndCompile(`:name('a'+)`, pomsky.ParseOptions{}, pomsky.CompileOptions{Flavor: pomsky.Pcre})
	require.NoError(t, err)
	assert.Equal(t, `(?<name>a+)`, text)
}

func TestCompileIsSeparateFromParse(t *testing.T) {
	parsed, err := pomsky.Parse(`'x'*`, pomsky.ParseOptions{})
	require.NoError(t, err)

	text, err := pomsky.Compile(parsed, pomsky.CompileOptions{Flavor: pomsky.Rust})
	require.NoError(t, err)
	assert.Equal(t, `x*`, text)
}

func TestDiagnosticsFromParseError(t *testing.T) {
	source := `^`
	_, err := pomsky.Parse(source, pomsky.ParseOptions{})
	require.Error(t, err)

	diags := pomsky.DiagnosticsFrom(err, source)
	require.Len(t, diags, 1)
	assert.NotEmpty(t, diags[0].Help)
	assert.Equal(t, source, diags[0].SourceCode)
}

func TestDiagnosticsFromCompileError(t *testing.T) {
	source := `::missing`
	parsed, err := pomsky.Parse(source, pomsky.ParseOptions{})
	require.NoError(t, err)

	_, cerr := pomsky.Compile(parsed, pomsky.CompileOptions{Flavor: pomsky.Pcre})
	require.Error(t, cerr)

	diags := pomsky.DiagnosticsFrom(cerr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Msg, "missing")
}

func TestDiagnosticsFromInvalidEscapeNarrowsSpan(t *testing.T) {
	source := `"\q"`
	_, err := pomsky.Parse(source, pomsky.ParseOptions{})
	require.Error(t, err)

	diags := pomsky.DiagnosticsFrom(err, source)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Start)
	assert.Equal(t, 3, diags[0].End)
	assert.Equal(t, `\q`, source[diags[0].Start:diags[0].End])
}

func TestCompileOptionsCarriesParseOptions(t *testing.T) {
	opts := pomsky.CompileOptions{Flavor: pomsky.Pcre, ParseOptions: pomsky.ParseOptions{MaxDepth: 4}}
	assert.Equal(t, 4, opts.ParseOptions.MaxDepth)
}
