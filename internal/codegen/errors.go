package codegen

import (
	"fmt"

	"github.com/pomsky-lang/pomsky-go/internal/span"
)

// Kind tags the closed set of compile error kinds.
type Kind int

const (
	KindUnsupported Kind = iota
	KindUnknownVariable
	KindUnknownReferenceName
	KindMultiple
)

// Error is a compile-time error: an unsupported feature on the requested
// flavor, or a name (variable or backreference) that resolution couldn't
// find.
type Error struct {
	Kind Kind
	Sp   span.Span

	Feature string // KindUnsupported
	Flavor  Flavor // KindUnsupported

	Name       string // KindUnknownVariable, KindUnknownReferenceName
	Similar    string
	HasSimilar bool

	Errors []*Error // KindMultiple
}

func (e *Error) Span() span.Span { return e.Sp }

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnsupported:
		return fmt.Sprintf("%s is not supported by the %s flavor", e.Feature, e.Flavor)
	case KindUnknownVariable:
		return fmt.Sprintf("unknown variable `%s`", e.Name)
	case KindUnknownReferenceName:
		return fmt.Sprintf("unknown reference name `%s`", e.Name)
	case KindMultiple:
		return "multiple errors occurred"
	default:
		return "compile error"
	}
}

// Flatten recursively unnests KindMultiple, returning the leaf errors in
// order.
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

func multiple(errs []*Error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return &Error{Kind: KindMultiple, Errors: errs}
}
