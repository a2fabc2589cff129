// Package ast defines the typed Pomsky abstract syntax tree. Every node
// owns its children exclusively; there is no sharing and no cycles. Nodes
// stay immutable from parse completion to the end of code generation.
package ast

import "github.com/pomsky-lang/pomsky-go/internal/span"

// Node is the sum type of all Pomsky AST nodes. Traversal is centralized in
// the parser and codegen packages via type switches rather than virtual
// dispatch spread across node types.
type Node interface {
	Span() span.Span
	isNode()
}

// Literal is a matched literal piece of text.
type Literal struct {
	Text string
	Sp   span.Span
}

func (l *Literal) Span() span.Span { return l.Sp }
func (*Literal) isNode()           {}

// CharClassItem is one member of a CharClass: a code point, a range, a
// named class, or a nested union.
type CharClassItem interface {
	isCharClassItem()
}

// CodePointItem matches exactly one code point.
type CodePointItem rune

func (CodePointItem) isCharClassItem() {}

// RangeItem matches any code point in [Lo, Hi]. Invariant: Lo <= Hi.
type RangeItem struct {
	Lo, Hi rune
}

func (RangeItem) isCharClassItem() {}

// NamedClassItem references a named class such as "d", "w", "s", "h", "v",
// "n", "r", or a Unicode property name.
type NamedClassItem string

func (NamedClassItem) isCharClassItem() {}

// NestedItem embeds another char class's items (nested union, e.g. `[word
// ['a'-'f']]`).
type NestedItem struct {
	Class *CharClass
}

func (NestedItem) isCharClassItem() {}

// CharClass is a set of code points or named classes, possibly negated.
type CharClass struct {
	Items   []CharClassItem
	Negated bool
	Sp      span.Span
}

func (c *CharClass) Span() span.Span { return c.Sp }
func (*CharClass) isNode()           {}

// AddAll merges other's items into c (used when collapsing an alternation
// of non-negated char classes into one).
func (c *CharClass) AddAll(other *CharClass) {
	c.Items = append(c.Items, other.Items...)
}

// Negate returns a copy of c with Negated flipped.
func (c *CharClass) Negate() *CharClass {
	return &CharClass{Items: c.Items, Negated: !c.Negated, Sp: c.Sp}
}

// GroupKind distinguishes the shapes a parenthesized construct can take.
// Only GroupCapturing ever carries a Name.
type GroupKind int

const (
	GroupPlain             GroupKind = iota // explicit non-capturing (...)
	GroupCapturing                          // :(...)  or  :name(...)
	GroupLookaheadKind                      // >> ...
	GroupLookaheadNegKind                   // !>> ...
	GroupLookbehindKind                     // << ...
	GroupLookbehindNegKind                  // !<< ...
	GroupSequence                           // synthetic: juxtaposed atoms with no source parens
)

// Group is a parenthesized sequence of child rules: a plain or capturing
// group, or a lookaround assertion.
type Group struct {
	Kind      GroupKind
	Capturing bool
	Name      string // non-empty only when Kind == GroupCapturing and named
	Children  []Node
	Sp        span.Span
}

func (g *Group) Span() span.Span { return g.Sp }
func (*Group) isNode()           {}

// Negate returns the negated lookaround kind and true, or (g, false) if g is
// not a lookaround (plain and capturing groups have no negation).
func (g *Group) Negate() (*Group, bool) {
	var negated GroupKind
	switch g.Kind {
	case GroupLookaheadKind:
		negated = GroupLookaheadNegKind
	case GroupLookaheadNegKind:
		negated = GroupLookaheadKind
	case GroupLookbehindKind:
		negated = GroupLookbehindNegKind
	case GroupLookbehindNegKind:
		negated = GroupLookbehindKind
	default:
		return g, false
	}
	return &Group{Kind: negated, Children: g.Children, Sp: g.Sp}, true
}

// Alternation is a union of two or more rules. Use NewAlternation to build
// one: it enforces the collapse-to-CharClass invariant.
type Alternation struct {
	Children []Node
	Sp       span.Span
}

func (a *Alternation) Span() span.Span { return a.Sp }
func (*Alternation) isNode()           {}

// NewAlternation builds the Node for an alternation of children. If every
// child is a non-negated *CharClass, the alternation collapses into a
// single *CharClass holding the union of their items (mirrors
// Alternation::new_rulex in the reference implementation).
func NewAlternation(children []Node, sp span.Span) Node {
	if len(children) == 0 {
		panic("ast: alternation must have at least one child")
	}
	if allNonNegatedCharClasses(children) {
		merged := &CharClass{Sp: sp}
		for _, child := range children {
			merged.AddAll(child.(*CharClass))
		}
		return merged
	}
	return &Alternation{Children: children, Sp: sp}
}

func allNonNegatedCharClasses(children []Node) bool {
	for _, child := range children {
		cc, ok := child.(*CharClass)
		if !ok || cc.Negated {
			return false
		}
	}
	return true
}

// Greedy indicates whether a Repetition prefers the longest (GreedyYes) or
// shortest (GreedyNo, i.e. lazy) match.
type Greedy bool

const (
	GreedyYes Greedy = true
	GreedyNo  Greedy = false
)

// Repetition repeats Child between Lower and Upper times (Upper == nil
// means unbounded).
type Repetition struct {
	Child  Node
	Lower  uint32
	Upper  *uint32 // nil = infinity
	Greedy Greedy
	Sp     span.Span
}

func (r *Repetition) Span() span.Span { return r.Sp }
func (*Repetition) isNode()           {}

// ErrNotAscending is returned by NewRepetition when lower > upper.
var ErrNotAscending = &repetitionBoundsError{}

type repetitionBoundsError struct{}

func (*repetitionBoundsError) Error() string {
	return "lower bound can't be greater than the upper bound"
}

// NewRepetition validates lower <= upper (when upper is present) before
// constructing the node, per the Repetition invariant.
func NewRepetition(child Node, lower uint32, upper *uint32, greedy Greedy, sp span.Span) (*Repetition, error) {
	if upper != nil && lower > *upper {
		return nil, ErrNotAscending
	}
	return &Repetition{Child: child, Lower: lower, Upper: upper, Greedy: greedy, Sp: sp}, nil
}

// BoundaryKind is one of the four zero-width boundary assertions.
type BoundaryKind int

const (
	Start BoundaryKind = iota
	End
	Word
	NotWord
)

// Boundary is a zero-width assertion.
type Boundary struct {
	Kind BoundaryKind
	Sp   span.Span
}

func (b *Boundary) Span() span.Span { return b.Sp }
func (*Boundary) isNode()           {}

// Negate returns the negated boundary and true, or (b, false) if this kind
// cannot be negated (Start and End have no complement).
func (b *Boundary) Negate() (*Boundary, bool) {
	switch b.Kind {
	case Word:
		return &Boundary{Kind: NotWord, Sp: b.Sp}, true
	case NotWord:
		return &Boundary{Kind: Word, Sp: b.Sp}, true
	default:
		return b, false
	}
}

// Grapheme matches a single Unicode grapheme cluster (`\X`); unsupported on
// the JavaScript flavor.
type Grapheme struct {
	Sp span.Span
}

func (g *Grapheme) Span() span.Span { return g.Sp }
func (*Grapheme) isNode()           {}

// VariableRef is an identifier reference to a `let`-bound sub-expression.
// Codegen's resolveVariables pass inlines it before any text is emitted.
type VariableRef struct {
	Name string
	Sp   span.Span
}

func (v *VariableRef) Span() span.Span { return v.Sp }
func (*VariableRef) isNode()           {}

// Backref is the `::name` reference to an earlier named capturing Group.
type Backref struct {
	Name string
	Sp   span.Span
}

func (b *Backref) Span() span.Span { return b.Sp }
func (*Backref) isNode()           {}

// LetBinding is a `let NAME = expr ;` declaration preceding the main
// expression.
type LetBinding struct {
	Name  string
	Value Node
	Sp    span.Span
}

// Span returns the binding's span. The parser does not build LetBinding
// values; it keeps bindings in Result.Bindings and reports
// LetBindingExists / KeywordAfterLet at the name token's own span.
func (l *LetBinding) Span() span.Span { return l.Sp }
