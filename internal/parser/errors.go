package parser

import (
	"fmt"

	"github.com/pomsky-lang/pomsky-go/internal/span"
	"github.com/pomsky-lang/pomsky-go/internal/token"
)

// Kind tags the closed set of parse error kinds. Rather than a deep
// interface hierarchy per kind, Error carries one Kind tag plus the union of
// payload fields any kind needs — the same shape the reference parser uses
// for its own closed, finite error taxonomy.
type Kind int

const (
	KindLexErrorWithMessage Kind = iota
	KindRangeIsNotIncreasing
	KindDot
	KindCharClassUnknownNamedClass
	KindCharClassDescendingRange
	KindCharClassEmpty
	KindCharStringTooManyCodePoints
	KindKeywordAfterLet
	KindUnallowedDoubleNot
	KindLetBindingExists
	KindRepetitionQuestionMarkAfterRepetition
	KindInvalidEscapeInStringAt
	KindRecursionLimit
	KindUnexpectedToken
	KindUnexpectedEOF
	KindMultiple
)

// Error is a structural parse error: a kind tag, the span it occurred at,
// and whatever payload that kind requires.
type Error struct {
	Kind Kind
	Sp   span.Span

	Hint       token.Hint // KindLexErrorWithMessage
	Name       string     // KindKeywordAfterLet, KindLetBindingExists, KindCharClassUnknownNamedClass
	Similar    string     // KindCharClassUnknownNamedClass
	HasSimilar bool

	Offset int // KindInvalidEscapeInStringAt

	Expected string // KindUnexpectedToken: what was expected
	Got      string // KindUnexpectedToken: what token text was found instead

	Errors []*Error // KindMultiple
}

func (e *Error) Span() span.Span { return e.Sp }

// Error implements error with a stable, human-readable message per kind.
// It never includes a source snippet — rendering belongs to package diag.
func (e *Error) Error() string {
	switch e.Kind {
	case KindLexErrorWithMessage:
		return "this syntax is not valid in Pomsky"
	case KindRangeIsNotIncreasing:
		return "the lower bound of a range must not be greater than its upper bound"
	case KindDot:
		return "the dot is not allowed"
	case KindCharClassUnknownNamedClass:
		return fmt.Sprintf("unknown character class `%s`", e.Name)
	case KindCharClassDescendingRange:
		return "character range is not ascending"
	case KindCharClassEmpty:
		return "character class is empty"
	case KindCharStringTooManyCodePoints:
		return "expected a string of exactly one code point"
	case KindKeywordAfterLet:
		return fmt.Sprintf("keyword `%s` can't be used as a variable name", e.Name)
	case KindUnallowedDoubleNot:
		return "double negation is not allowed"
	case KindLetBindingExists:
		return fmt.Sprintf("variable `%s` is already bound", e.Name)
	case KindRepetitionQuestionMarkAfterRepetition:
		return "`?` directly after a repetition is not allowed"
	case KindInvalidEscapeInStringAt:
		return "invalid escape sequence in string"
	case KindRecursionLimit:
		return "recursion limit exceeded"
	case KindUnexpectedToken:
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.Got)
	case KindUnexpectedEOF:
		return fmt.Sprintf("expected %s, found end of input", e.Expected)
	case KindMultiple:
		return "multiple errors occurred"
	default:
		return "parse error"
	}
}

// Flatten recursively unnests KindMultiple, returning the leaf errors in
// order. Non-Multiple errors flatten to a single-element slice.
func (e *Error) Flatten() []*Error {
	if e.Kind != KindMultiple {
		return []*Error{e}
	}
	var out []*Error
	for _, child := range e.Errors {
		out = append(out, child.Flatten()...)
	}
	return out
}

func multiple(errs []*Error) *Error {
	if len(errs) == 1 {
		return errs[0]
	}
	return &Error{Kind: KindMultiple, Errors: errs}
}
