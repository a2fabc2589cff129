// Package diag turns the structural errors produced by package parser and
// package codegen into Diagnostic records ready for display: a severity,
// a stable code, the offending span, and (where one can be synthesized) a
// fix-it help message. It never renders a snippet itself — a terminal
// renderer is explicitly out of scope — it only produces the data a
// renderer would need.
package diag

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pomsky-lang/pomsky-go/internal/codegen"
	"github.com/pomsky-lang/pomsky-go/internal/parser"
	"github.com/pomsky-lang/pomsky-go/internal/span"
	"github.com/pomsky-lang/pomsky-go/internal/token"
)

// Severity distinguishes a hard error from an advisory warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a fully-formed report: what went wrong, where, and
// (optionally) how to fix it.
type Diagnostic struct {
	Severity   Severity `cbor:"severity"`
	Msg        string   `cbor:"msg"`
	Code       string   `cbor:"code"`
	Help       string   `cbor:"help,omitempty"`
	SourceCode string   `cbor:"source_code,omitempty"`
	Start      int      `cbor:"start"`
	End        int      `cbor:"end"`
	HasSpan    bool     `cbor:"has_span"`
}

func fromSpan(sp span.Span) (int, int, bool) {
	start, end, ok := sp.Range()
	return start, end, ok
}

// AdHoc builds a diagnostic with no structural source, e.g. for an error
// raised outside the parse/compile pipeline entirely. It always has
// SeverityError and code P0000, with no span, source snapshot or help.
func AdHoc(msg string) *Diagnostic {
	return &Diagnostic{Severity: SeverityError, Msg: msg, Code: "P0000"}
}

// FromWarning builds an advisory diagnostic at sp, carrying source as the
// snapshot a renderer can use to draw the offending line.
func FromWarning(msg string, sp span.Span, source string) *Diagnostic {
	start, end, ok := fromSpan(sp)
	return &Diagnostic{Severity: SeverityWarning, Msg: msg, Code: "W0000", SourceCode: source, Start: start, End: end, HasSpan: ok}
}

// FromParseError flattens err (unnesting any Multiple) into one diagnostic
// per leaf. source is the original Pomsky text err was produced from; it is
// attached to each diagnostic for pretty-rendering and sliced to synthesize
// fix-it help for the spans it covers.
func FromParseError(err *parser.Error, source string) []*Diagnostic {
	leaves := err.Flatten()
	out := make([]*Diagnostic, 0, len(leaves))
	for _, leaf := range leaves {
		out = append(out, fromParseLeaf(leaf, source))
	}
	return out
}

// FromParseErrors flattens and converts every error in errs.
func FromParseErrors(errs []*parser.Error, source string) []*Diagnostic {
	var out []*Diagnostic
	for _, err := range errs {
		out = append(out, FromParseError(err, source)...)
	}
	return out
}

// FromCompileError flattens err (unnesting any Multiple) into one
// diagnostic per leaf.
func FromCompileError(err *codegen.Error, source string) []*Diagnostic {
	leaves := err.Flatten()
	out := make([]*Diagnostic, 0, len(leaves))
	for _, leaf := range leaves {
		out = append(out, fromCompileLeaf(leaf, source))
	}
	return out
}

// FromCompileErrors flattens and converts every error in errs.
func FromCompileErrors(errs []*codegen.Error, source string) []*Diagnostic {
	var out []*Diagnostic
	for _, err := range errs {
		out = append(out, FromCompileError(err, source)...)
	}
	return out
}

func parseCode(kind parser.Kind) string {
	return fmt.Sprintf("P%04d", int(kind)+1)
}

func compileCode(kind codegen.Kind) string {
	return fmt.Sprintf("C%04d", int(kind)+1)
}

func fromParseLeaf(e *parser.Error, source string) *Diagnostic {
	sp := e.Sp
	if e.Kind == parser.KindInvalidEscapeInStringAt {
		sp = narrowEscapeSpan(e.Sp, e.Offset)
	}
	start, end, ok := fromSpan(sp)
	return &Diagnostic{
		Severity:   SeverityError,
		Msg:        e.Error(),
		Code:       parseCode(e.Kind),
		Help:       parseHelp(e, source),
		SourceCode: source,
		Start:      start, End: end, HasSpan: ok,
	}
}

// narrowEscapeSpan shrinks a KindInvalidEscapeInStringAt span down to the
// exact two-byte `\X` that was invalid, instead of the whole quoted string.
// offset is the index of the backslash within the string's content (after
// the opening quote), so the backslash itself sits at Sp.Start()+1+offset.
func narrowEscapeSpan(sp span.Span, offset int) span.Span {
	start := sp.Start() + 1 + offset
	return span.New(start, start+2)
}

func fromCompileLeaf(e *codegen.Error, source string) *Diagnostic {
	start, end, ok := fromSpan(e.Sp)
	return &Diagnostic{
		Severity:   SeverityError,
		Msg:        e.Error(),
		Code:       compileCode(e.Kind),
		Help:       compileHelp(e, source),
		SourceCode: source,
		Start:      start, End: end, HasSpan: ok,
	}
}

// parseHelp synthesizes a fix-it message for parser errors, mirroring the
// reference compiler's per-kind help table. Lexer hints (foreign regex
// syntax the lexer recognized) get the most specific treatment, since
// they're the most common mistake a regex user brings to Pomsky; their help
// text is computed from the offending source slice rather than a constant,
// the same way the reference compiler's get_*_help functions work.
func parseHelp(e *parser.Error, source string) string {
	switch e.Kind {
	case parser.KindLexErrorWithMessage:
		return hintHelp(e.Hint, e.Sp.Slice(source))
	case parser.KindRangeIsNotIncreasing:
		return rangeIsNotIncreasingHelp(e.Sp.Slice(source))
	case parser.KindDot:
		return `the dot is disallowed because it easily leads to bugs; use "![n]" to match anything except a line break, "Grapheme", or "'.'" for a literal dot`
	case parser.KindCharClassUnknownNamedClass:
		return similarNameHelp("character class", e.Name, e.Similar, e.HasSimilar)
	case parser.KindCharClassDescendingRange:
		return descendingRangeHelp(e.Sp.Slice(source))
	case parser.KindCharClassEmpty:
		return "add at least one character, range, or named class inside the brackets"
	case parser.KindCharStringTooManyCodePoints:
		return "strings used as a single character must contain exactly one code point"
	case parser.KindKeywordAfterLet:
		return fmt.Sprintf("`%s` is a reserved word and can't be used as a variable name", e.Name)
	case parser.KindUnallowedDoubleNot:
		return "remove both `!`; double negation isn't supported, write the positive form directly"
	case parser.KindLetBindingExists:
		return fmt.Sprintf("choose a different name, or remove the earlier `let %s = ...;`", e.Name)
	case parser.KindRepetitionQuestionMarkAfterRepetition:
		return "append the `lazy` keyword instead of `?` to make a repetition non-greedy"
	case parser.KindInvalidEscapeInStringAt:
		return `only \\ and \" are valid escapes in a double-quoted string`
	case parser.KindRecursionLimit:
		return "split the expression into multiple `let` bindings to reduce nesting depth"
	default:
		return ""
	}
}

func compileHelp(e *codegen.Error, _ string) string {
	switch e.Kind {
	case codegen.KindUnsupported:
		return fmt.Sprintf("%s has no equivalent in the %s flavor; remove it or target a different flavor", e.Feature, e.Flavor)
	case codegen.KindUnknownVariable:
		return similarNameHelp("variable", e.Name, e.Similar, e.HasSimilar)
	case codegen.KindUnknownReferenceName:
		return similarNameHelp("capturing group", e.Name, e.Similar, e.HasSimilar)
	default:
		return ""
	}
}

func similarNameHelp(kind, name, similar string, hasSimilar bool) string {
	if hasSimilar {
		return fmt.Sprintf("unknown %s `%s`; did you mean `%s`?", kind, name, similar)
	}
	return fmt.Sprintf("unknown %s `%s`", kind, name)
}

// rangeIsNotIncreasingHelp rebuilds the `{lower,upper}` text out of slice
// (which covers the whole repeated atom) and suggests the swapped form.
func rangeIsNotIncreasingHelp(slice string) string {
	open := strings.LastIndexByte(slice, '{')
	closeIdx := strings.LastIndexByte(slice, '}')
	if open < 0 || closeIdx < open {
		return "swap the bounds so the first number is not greater than the second"
	}
	inner := slice[open+1 : closeIdx]
	comma := strings.IndexByte(inner, ',')
	if comma < 0 {
		return "swap the bounds so the first number is not greater than the second"
	}
	lower := strings.TrimSpace(inner[:comma])
	upper := strings.TrimSpace(inner[comma+1:])
	return fmt.Sprintf("switch the numbers: `{%s,%s}`", upper, lower)
}

// descendingRangeHelp splits slice (e.g. `'q'-'c'`) around its dash and
// suggests the ascending form.
func descendingRangeHelp(slice string) string {
	dash := strings.IndexByte(slice, '-')
	if dash < 0 {
		return "swap the range bounds so the first character is not greater than the second"
	}
	lo := strings.TrimSpace(slice[:dash])
	hi := strings.TrimSpace(slice[dash+1:])
	return fmt.Sprintf("switch the characters: `%s-%s`", hi, lo)
}

// hintHelp maps a lexer Hint to the Pomsky equivalent of the foreign regex
// syntax it recognized. slice is the exact source text the lexer matched;
// several hints synthesize their help by inspecting it, mirroring the
// reference compiler's get_*_help functions rather than returning one
// constant message per hint.
func hintHelp(hint token.Hint, slice string) string {
	switch hint {
	case token.Caret:
		return "Pomsky uses `Start` instead of `^`"
	case token.CaretInGroup:
		return "`^` at the start of a character class negates it in regex, but Pomsky negates with a leading `!` before the whole class, e.g. `!['a'-'z']`"
	case token.Dollar:
		return "Pomsky uses `End` instead of `$`"
	case token.GroupNonCapturing:
		return "in Pomsky, `(...)` is already non-capturing; drop the `?:`"
	case token.GroupLookahead:
		return "Pomsky writes a lookahead as `>> expr`"
	case token.GroupLookaheadNeg:
		return "Pomsky writes a negative lookahead as `!>> expr`"
	case token.GroupLookbehind:
		return "Pomsky writes a lookbehind as `<< expr`"
	case token.GroupLookbehindNeg:
		return "Pomsky writes a negative lookbehind as `!<< expr`"
	case token.GroupComment:
		return "Pomsky uses `#` line comments instead of `(?#...)`"
	case token.GroupNamedCapture:
		return namedCaptureHelp(slice)
	case token.GroupPcreBackreference:
		return pcreBackreferenceHelp(slice)
	case token.GroupAtomic:
		return "atomic groups are not supported"
	case token.GroupConditional:
		return "conditionals are not supported"
	case token.GroupBranchReset:
		return "branch reset groups are not supported"
	case token.GroupSubroutineCall:
		return "subroutine calls are not supported"
	case token.GroupOther:
		return "this group syntax is not supported"
	case token.UnclosedString:
		return "add a closing quote to end the string"
	case token.Backslash:
		return backslashHelp(slice)
	case token.BackslashU4, token.BackslashX2:
		return fmt.Sprintf("try `U+%s` instead", strings.ToUpper(slice[2:]))
	case token.BackslashUnicode:
		hex := strings.Trim(slice[2:], "{}")
		return fmt.Sprintf("try `U+%s` instead", strings.ToUpper(hex))
	case token.BackslashGK:
		return backslashGKHelp(slice)
	case token.BackslashProperty:
		return backslashPropertyHelp(slice)
	default:
		return ""
	}
}

// namedCaptureHelp extracts the group name out of `(?<name>`, `(?P<name>`
// or `(?'name'` and suggests the `:name(...)` syntax, unless the name looks
// like a balancing-group pair (`name-other`), which Pomsky doesn't support.
func namedCaptureHelp(slice string) string {
	name := strings.TrimPrefix(slice, "(?")
	name = strings.TrimPrefix(name, "P")
	name = strings.Trim(name, "<>'")
	if strings.Contains(name, "-") {
		return "balancing groups are not supported"
	}
	return fmt.Sprintf("named capturing groups use the `:name(...)` syntax; try `:%s(...)` instead", name)
}

// pcreBackreferenceHelp extracts the name out of `(?P=name)` and suggests
// the `::name` syntax.
func pcreBackreferenceHelp(slice string) string {
	name := strings.TrimSuffix(strings.TrimPrefix(slice, "(?P="), ")")
	return fmt.Sprintf("backreferences use the `::name` syntax; try `::%s` instead", name)
}

// backslashHelp dispatches on the escaped character to give the precise
// Pomsky equivalent, mirroring the reference compiler's per-character
// mapping instead of one message for every backslash escape.
func backslashHelp(slice string) string {
	if len(slice) < 2 {
		return ""
	}
	c := slice[1]
	switch c {
	case 'b':
		return "replace `\\b` with `%` to match a word boundary"
	case 'B':
		return "replace `\\B` with `!%` to match a place without a word boundary"
	case 'A':
		return "replace `\\A` with `Start` to match the start of the string"
	case 'z':
		return "replace `\\z` with `End` to match the end of the string"
	case 'Z':
		return "Pomsky has no equivalent to `\\Z`; `End` doesn't match the position before a final newline"
	case 'N':
		return "replace `\\N` with `![n]` to match any character except a newline"
	case 'X':
		return "replace `\\X` with `Grapheme` to match a grapheme cluster"
	case 'R':
		return "replace `\\R` with `([r] [n] | [v])` to match a line break"
	case 'D':
		return "replace `\\D` with `[!d]`"
	case 'W':
		return "replace `\\W` with `[!w]`"
	case 'S':
		return "replace `\\S` with `[!s]`"
	case 'V':
		return "replace `\\V` with `![v]`"
	case 'H':
		return "replace `\\H` with `![h]`"
	case 'G':
		return "match attempt anchors are not supported"
	case 'a', 'e', 'f', 'n', 'r', 't', 'h', 'v', 'd', 'w', 's':
		return fmt.Sprintf("replace `\\%c` with `[%c]`", c, c)
	case '0':
		return "replace `\\0` with `U+00`"
	case '1', '2', '3', '4', '5', '6', '7':
		return fmt.Sprintf("this is parsed as a backreference; if you meant an octal escape, use `U+` instead; for a backreference, try `::%c`", c)
	default:
		if c >= '0' && c <= '9' {
			return fmt.Sprintf("replace `\\%c` with `::%c`", c, c)
		}
		return ""
	}
}

// backslashGKHelp extracts the name out of `\k<name>`, `\g{name}`,
// `\k'name'` or `\g-1` and suggests the `::name` syntax, special-casing the
// numbered self-recursion form `\k0`/`\g0`, which Pomsky can't express.
func backslashGKHelp(slice string) string {
	if len(slice) < 2 {
		return ""
	}
	name := strings.Trim(slice[2:], "{}<>'")
	if name == "0" {
		return "recursion is currently not supported"
	}
	return fmt.Sprintf("replace `%s` with `::%s`", slice, name)
}

// backslashPropertyHelp extracts the Unicode property name out of
// `\p{name}`/`\P{name}` (or the bare `\pL`/`\PL` form), resolves negation
// (`\P{^name}` and `\p{^name}` double-negate/negate respectively), and
// normalizes `+`/`-` separators to `_` the way Pomsky property names use.
func backslashPropertyHelp(slice string) string {
	if len(slice) < 2 {
		return ""
	}
	negative := strings.HasPrefix(slice, "\\P") && !strings.HasPrefix(slice, "\\P{^")
	if strings.HasPrefix(slice, "\\p{^") {
		negative = true
	}
	name := strings.Trim(slice[2:], "{}^")
	name = strings.NewReplacer("+", "_", "-", "_").Replace(name)
	if negative {
		return fmt.Sprintf("replace `%s` with `[!%s]`", slice, name)
	}
	return fmt.Sprintf("replace `%s` with `[%s]`", slice, name)
}

// EncodeDiagnostics serializes a diagnostic batch to CBOR, for handing a
// compact wire form to a caller that renders or transports it elsewhere.
func EncodeDiagnostics(diags []*Diagnostic) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := cbor.CTAP2EncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	if err := enc.NewEncoder(&buf).Encode(diags); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDiagnostics deserializes a batch produced by EncodeDiagnostics.
func DecodeDiagnostics(data []byte) ([]*Diagnostic, error) {
	var diags []*Diagnostic
	if err := cbor.Unmarshal(data, &diags); err != nil {
		return nil, err
	}
	return diags, nil
}
