// Package pomsky compiles Pomsky source — a human-readable regular
// expression DSL — into native regex source for a target flavor.
//
// The pipeline is pure and stateless: Parse lexes and parses source into an
// expression tree (plus any `let` bindings declared ahead of it); Compile
// resolves those bindings, validates named backreferences, and emits regex
// text for the requested flavor. Neither step touches the filesystem, reads
// configuration, or retains state across calls.
package pomsky

import (
	"github.com/pomsky-lang/pomsky-go/internal/codegen"
	"github.com/pomsky-lang/pomsky-go/internal/diag"
	"github.com/pomsky-lang/pomsky-go/internal/parser"
)

// Flavor selects the target regex engine's dialect.
type Flavor = codegen.Flavor

const (
	Pcre       = codegen.Pcre
	JavaScript = codegen.JavaScript
	Ruby       = codegen.Ruby
	Python     = codegen.Python
	Java       = codegen.Java
	DotNet     = codegen.DotNet
	Rust       = codegen.Rust
)

// ParseOptions configures Parse.
type ParseOptions struct {
	// MaxDepth caps expression nesting depth. Zero uses the package
	// default.
	MaxDepth int
}

// CompileOptions configures Compile.
type CompileOptions struct {
	Flavor Flavor

	// ParseOptions records the options the source was parsed with. No
	// function in this package reads it: Compile does not re-parse, and
	// ParseAndCompile takes its parse options as a separate argument.
	ParseOptions ParseOptions
}

// ParseResult is a successfully parsed Pomsky expression, ready to compile.
type ParseResult struct {
	inner *parser.Result
}

// Parse lexes and parses source. The returned error, when non-nil, is a
// structural parse error (possibly a batch of several); pass it to
// DiagnosticsFrom to get renderer-ready records.
func Parse(source string, opts ParseOptions) (*ParseResult, error) {
	res, err := parser.Parse(source, parser.Options{MaxDepth: opts.MaxDepth})
	if err != nil {
		return nil, err
	}
	return &ParseResult{inner: res}, nil
}

// Compile resolves parsed's `let` bindings and named backreferences and
// emits regex source for opts.Flavor.
func Compile(parsed *ParseResult, opts CompileOptions) (string, error) {
	return codegen.Compile(parsed.inner, codegen.Options{Flavor: opts.Flavor})
}

// ParseAndCompile is Parse followed by Compile, for callers that don't need
// the intermediate tree.
func ParseAndCompile(source string, parseOpts ParseOptions, compileOpts CompileOptions) (string, error) {
	parsed, err := Parse(source, parseOpts)
	if err != nil {
		return "", err
	}
	return Compile(parsed, compileOpts)
}

// DiagnosticsFrom converts an error returned by Parse, Compile, or
// ParseAndCompile into renderer-ready diagnostics, flattening any batch of
// accumulated errors into one entry each. source is the Pomsky text the
// error came from; it's attached to each diagnostic for pretty-rendering
// and sliced to synthesize precise fix-it help.
func DiagnosticsFrom(err error, source string) []*diag.Diagnostic {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *parser.Error:
		return diag.FromParseError(e, source)
	case *codegen.Error:
		return diag.FromCompileError(e, source)
	default:
		return []*diag.Diagnostic{diag.AdHoc(err.Error())}
	}
}
