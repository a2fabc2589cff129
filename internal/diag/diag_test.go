package diag_test

import (
	"testing"

	"github.com/pomsky-lang/pomsky-go/internal/codegen"
	"github.com/pomsky-lang/pomsky-go/internal/diag"
	"github.com/pomsky-lang/pomsky-go/internal/parser"
	"github.com/pomsky-lang/pomsky-go/internal/span"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromParseErrorFlattensMultiple(t *testing.T) {
	leaf1 := &parser.Error{Kind: parser.KindDot}
	leaf2 := &parser.Error{Kind: parser.KindCharClassEmpty}
	multi := &parser.Error{Kind: parser.KindMultiple, Errors: []*parser.Error{leaf1, leaf2}}

	diags := diag.FromParseError(multi, "")
	require.Len(t, diags, 2)
	assert.Equal(t, "P0003", diags[0].Code) // KindDot is iota 2
	assert.Equal(t, "P0006", diags[1].Code) // KindCharClassEmpty is iota 5
}

func TestFromParseErrorCaretHintHasHelp(t *testing.T) {
	source := "^"
	_, err := parser.Parse(source, parser.Options{})
	require.Error(t, err)
	perr := err.(*parser.Error)

	diags := diag.FromParseError(perr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Help, "Start")
	assert.Equal(t, source, diags[0].SourceCode)
}

func TestFromParseErrorCaretInGroupHasDistinctHelp(t *testing.T) {
	source := "[^a]"
	_, err := parser.Parse(source, parser.Options{})
	require.Error(t, err)
	perr := err.(*parser.Error)

	diags := diag.FromParseError(perr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Help, "negates")
}

func TestFromParseErrorUnknownNamedClassNamesTheClass(t *testing.T) {
	source := "[wz]"
	_, err := parser.Parse(source, parser.Options{})
	require.Error(t, err)
	perr := err.(*parser.Error)

	diags := diag.FromParseError(perr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Msg, "wz")
}

func TestFromParseErrorBackslashBSuggestsWordBoundary(t *testing.T) {
	source := `\b`
	_, err := parser.Parse(source, parser.Options{})
	require.Error(t, err)
	perr := err.(*parser.Error)

	diags := diag.FromParseError(perr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Help, "`%`")
	assert.Contains(t, diags[0].Help, "word boundary")
}

func TestFromParseErrorDescendingCharClassRangeUsesActualCharacters(t *testing.T) {
	source := `['q'-'c']`
	_, err := parser.Parse(source, parser.Options{})
	require.Error(t, err)
	perr := err.(*parser.Error)

	diags := diag.FromParseError(perr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Help, "'c'-'q'")
	assert.NotContains(t, diags[0].Help, "a'-'z")
}

func TestFromParseErrorNamedCaptureExtractsName(t *testing.T) {
	source := `(?<foo>a)`
	_, err := parser.Parse(source, parser.Options{})
	require.Error(t, err)
	perr := err.(*parser.Error)

	diags := diag.FromParseError(perr, source)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Help, ":foo(...)")
}

func TestFromCompileErrorUnsupportedHasHelp(t *testing.T) {
	source := "Grapheme"
	res, err := parser.Parse(source, parser.Options{})
	require.NoError(t, err)
	_, cerr := codegen.Compile(res, codegen.Options{Flavor: codegen.JavaScript})
	require.Error(t, cerr)

	diags := diag.FromCompileError(cerr.(*codegen.Error), source)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Help, "JavaScript")
}

func TestFromWarningIsWarningSeverity(t *testing.T) {
	d := diag.FromWarning("heads up", span.Empty(), "")
	assert.Equal(t, diag.SeverityWarning, d.Severity)
	assert.Equal(t, "heads up", d.Msg)
}

func TestEncodeDecodeDiagnosticsRoundTrips(t *testing.T) {
	original := []*diag.Diagnostic{
		diag.AdHoc("something went wrong"),
		diag.FromWarning("careful", span.Empty(), ""),
	}

	data, err := diag.EncodeDiagnostics(original)
	require.NoError(t, err)

	decoded, err := diag.DecodeDiagnostics(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, original[0].Msg, decoded[0].Msg)
	assert.Equal(t, original[1].Severity, decoded[1].Severity)
}
