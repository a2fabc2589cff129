// Package parser turns a Pomsky token stream into an AST via recursive
// descent. Syntax errors are reported as *Error; unknown-variable and
// unknown-backreference checks are left to package codegen, which is the
// stage that actually needs the fully assembled tree to resolve them.
package parser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pomsky-lang/pomsky-go/internal/ast"
	"github.com/pomsky-lang/pomsky-go/internal/lexer"
	"github.com/pomsky-lang/pomsky-go/internal/span"
	"github.com/pomsky-lang/pomsky-go/internal/token"
)

const defaultMaxDepth = 128

// Options configures a parse.
type Options struct {
	// MaxDepth caps alternation/sequence/char-class recursion. Zero uses
	// the default of 128.
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return o.MaxDepth
}

// Result is a successful parse: the expression tree plus the `let`
// bindings declared ahead of it, still unresolved. Codegen inlines
// VariableRef nodes against Bindings and reports any that remain unbound.
type Result struct {
	Root     ast.Node
	Bindings map[string]ast.Node
	// BindingOrder lists binding names in declaration order. Codegen
	// resolves references by name through Bindings and does not consult
	// this order, so a binding may refer to one declared after it.
	BindingOrder []string
}

// Parse lexes and parses source, returning the expression tree and any
// `let` bindings declared ahead of it.
func Parse(source string, opts Options) (*Result, error) {
	tokens := lexer.Lex(source)
	p := newParser(tokens, opts.maxDepth())

	var bindingErrs []*Error
	for p.atKeyword("let") {
		if err := p.parseLetBinding(); err != nil {
			bindingErrs = append(bindingErrs, err.Flatten()...)
			p.recoverToSemicolon()
		}
	}
	if len(bindingErrs) > 0 {
		return nil, multiple(bindingErrs)
	}

	root, err := p.parseAlternation()
	if err != nil {
		return nil, err
	}

	if !p.atEnd() {
		return nil, p.unexpected("end of input")
	}

	return &Result{Root: root, Bindings: p.bindings, BindingOrder: p.bindingOrder}, nil
}

type parser struct {
	tokens   []token.Token
	pos      int
	depth    int
	maxDepth int
	eofSpan  span.Span

	bindings     map[string]ast.Node
	bindingOrder []string
}

func newParser(tokens []token.Token, maxDepth int) *parser {
	eofSpan := span.Empty()
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		eofSpan = span.New(last.Span.End(), last.Span.End())
	}
	return &parser{
		tokens:   tokens,
		maxDepth: maxDepth,
		eofSpan:  eofSpan,
		bindings: map[string]ast.Node{},
	}
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF, Span: p.eofSpan}
	}
	return p.tokens[p.pos]
}

func (p *parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) atKeyword(name string) bool {
	tok := p.peek()
	return tok.Type == token.Identifier && tok.Value == name
}

func (p *parser) expect(typ token.Type, expected string) (token.Token, *Error) {
	tok := p.peek()
	if tok.Type != typ {
		return token.Token{}, p.unexpected(expected)
	}
	p.advance()
	return tok, nil
}

func (p *parser) unexpected(expected string) *Error {
	tok := p.peek()
	if tok.Type == token.EOF {
		return &Error{Kind: KindUnexpectedEOF, Sp: tok.Span, Expected: expected}
	}
	return &Error{Kind: KindUnexpectedToken, Sp: tok.Span, Expected: expected, Got: describeToken(tok)}
}

func describeToken(tok token.Token) string {
	if tok.Value != "" && (tok.Type == token.Identifier || tok.Type == token.Number || tok.Type == token.CodePoint || tok.Type == token.String) {
		return tok.Type.String() + " `" + tok.Value + "`"
	}
	return tok.Type.String()
}

func (p *parser) recoverToSemicolon() {
	for !p.atEnd() && p.peek().Type != token.Semicolon {
		p.advance()
	}
	if !p.atEnd() {
		p.advance()
	}
}

func (p *parser) enter(sp span.Span) *Error {
	p.depth++
	if p.depth > p.maxDepth {
		p.depth--
		return &Error{Kind: KindRecursionLimit, Sp: sp}
	}
	return nil
}

func (p *parser) exit() {
	p.depth--
}

var reservedKeywords = map[string]bool{
	"let": true, "lazy": true, "greedy": true, "Grapheme": true,
}

func isReservedKeyword(name string) bool {
	return reservedKeywords[name]
}

func (p *parser) parseLetBinding() *Error {
	p.advance() // "let"

	nameTok := p.peek()
	if nameTok.Type != token.Identifier {
		return p.unexpected("a variable name")
	}
	p.advance()
	name := nameTok.Value

	if isReservedKeyword(name) {
		return &Error{Kind: KindKeywordAfterLet, Sp: nameTok.Span, Name: name}
	}
	if _, exists := p.bindings[name]; exists {
		return &Error{Kind: KindLetBindingExists, Sp: nameTok.Span, Name: name}
	}

	if _, err := p.expect(token.Equals, "`=`"); err != nil {
		return err
	}

	value, err := p.parseAlternation()
	if err != nil {
		return err
	}

	if _, err := p.expect(token.Semicolon, "`;`"); err != nil {
		return err
	}

	p.bindings[name] = value
	p.bindingOrder = append(p.bindingOrder, name)
	return nil
}

// parseAlternation := sequence ('|' sequence)*
func (p *parser) parseAlternation() (ast.Node, *Error) {
	startSp := p.peek().Span
	if err := p.enter(startSp); err != nil {
		return nil, err
	}
	defer p.exit()

	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != token.Pipe {
		return first, nil
	}

	children := []ast.Node{first}
	for p.peek().Type == token.Pipe {
		p.advance()
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	sp := span.Join(children[0].Span(), children[len(children)-1].Span())
	return ast.NewAlternation(children, sp), nil
}

// parseSequence := atomWithRepetition*
func (p *parser) parseSequence() (ast.Node, *Error) {
	startSp := p.peek().Span
	if err := p.enter(startSp); err != nil {
		return nil, err
	}
	defer p.exit()

	var children []ast.Node
	for p.startsAtom() {
		atom, err := p.parseAtomWithRepetition()
		if err != nil {
			return nil, err
		}
		children = append(children, atom)
	}
	if len(children) == 0 {
		return nil, p.unexpected("an expression")
	}
	if len(children) == 1 {
		return children[0], nil
	}
	sp := span.Join(children[0].Span(), children[len(children)-1].Span())
	return &ast.Group{Kind: ast.GroupSequence, Children: children, Sp: sp}, nil
}

func (p *parser) startsAtom() bool {
	switch p.peek().Type {
	case token.String, token.CodePoint, token.OpenBracket, token.OpenParen, token.Colon,
		token.BStart, token.BEnd, token.LookAhead, token.LookBehind, token.BWord,
		token.Backref, token.Not, token.Dot, token.Identifier, token.ErrorMsg, token.Error:
		return true
	default:
		return false
	}
}

func (p *parser) parseAtomWithRepetition() (ast.Node, *Error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.tryParseRepetition(atom)
}

func (p *parser) tryParseRepetition(atom ast.Node) (ast.Node, *Error) {
	tok := p.peek()

	var lower uint32
	var upper *uint32
	switch tok.Type {
	case token.Star:
		p.advance()
		lower, upper = 0, nil
	case token.Plus:
		p.advance()
		lower, upper = 1, nil
	case token.QuestionMark:
		p.advance()
		one := uint32(1)
		lower, upper = 0, &one
	case token.OpenBrace:
		p.advance()
		lo, err := p.parseRepNumber()
		if err != nil {
			return nil, err
		}
		lower = lo
		switch p.peek().Type {
		case token.Comma:
			p.advance()
			if p.peek().Type == token.CloseBrace {
				upper = nil
			} else {
				hi, err := p.parseRepNumber()
				if err != nil {
					return nil, err
				}
				upper = &hi
			}
		default:
			upper = &lo
		}
		if _, err := p.expect(token.CloseBrace, "`}`"); err != nil {
			return nil, err
		}
	default:
		return atom, nil
	}

	greedy := ast.GreedyYes
	if p.atKeyword("lazy") {
		p.advance()
		greedy = ast.GreedyNo
	}

	if p.peek().Type == token.QuestionMark {
		return nil, &Error{Kind: KindRepetitionQuestionMarkAfterRepetition, Sp: p.peek().Span}
	}

	endSp := tok.Span
	if p.pos > 0 {
		endSp = p.tokens[p.pos-1].Span
	}
	sp := span.Join(atom.Span(), endSp)

	rep, err := ast.NewRepetition(atom, lower, upper, greedy, sp)
	if err != nil {
		return nil, &Error{Kind: KindRangeIsNotIncreasing, Sp: sp}
	}
	return rep, nil
}

func (p *parser) parseRepNumber() (uint32, *Error) {
	tok, err := p.expect(token.Number, "a number")
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.ParseUint(tok.Value, 10, 32)
	if convErr != nil {
		return 0, &Error{Kind: KindUnexpectedToken, Sp: tok.Span, Expected: "a valid repetition count", Got: tok.Value}
	}
	return uint32(v), nil
}

func (p *parser) parseAtom() (ast.Node, *Error) {
	tok := p.peek()

	switch tok.Type {
	case token.Not:
		p.advance()
		if p.peek().Type == token.Not {
			return nil, &Error{Kind: KindUnallowedDoubleNot, Sp: p.peek().Span}
		}
		inner, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		negated, ok := negateNode(inner)
		if !ok {
			return nil, &Error{
				Kind: KindUnexpectedToken, Sp: tok.Span,
				Expected: "a negatable expression (character class, word boundary, or lookaround)",
				Got:      describeNode(inner),
			}
		}
		return negated, nil

	case token.Dot:
		p.advance()
		return nil, &Error{Kind: KindDot, Sp: tok.Span}

	case token.String:
		p.advance()
		text, offErr := unescapeString(tok.Value)
		if offErr != nil {
			return nil, &Error{Kind: KindInvalidEscapeInStringAt, Sp: tok.Span, Offset: offErr.offset}
		}
		return &ast.Literal{Text: text, Sp: tok.Span}, nil

	case token.CodePoint:
		p.advance()
		r, ok := parseCodePointValue(tok.Value)
		if !ok {
			return nil, &Error{Kind: KindCharStringTooManyCodePoints, Sp: tok.Span}
		}
		return &ast.CharClass{Items: []ast.CharClassItem{ast.CodePointItem(r)}, Sp: tok.Span}, nil

	case token.OpenBracket:
		return p.parseCharClass()

	case token.OpenParen:
		p.advance()
		return p.parseGroupBody(false, "", tok.Span)

	case token.Colon:
		p.advance()
		name := ""
		if p.peek().Type == token.Identifier {
			name = p.peek().Value
			p.advance()
		}
		if _, err := p.expect(token.OpenParen, "`(`"); err != nil {
			return nil, err
		}
		return p.parseGroupBody(true, name, tok.Span)

	case token.BStart:
		p.advance()
		return &ast.Boundary{Kind: ast.Start, Sp: tok.Span}, nil
	case token.BEnd:
		p.advance()
		return &ast.Boundary{Kind: ast.End, Sp: tok.Span}, nil
	case token.BWord:
		p.advance()
		return &ast.Boundary{Kind: ast.Word, Sp: tok.Span}, nil

	case token.LookAhead, token.LookBehind:
		p.advance()
		return p.parseLookaround(tok)

	case token.Backref:
		p.advance()
		nameTok, err := p.expect(token.Identifier, "a reference name")
		if err != nil {
			return nil, err
		}
		return &ast.Backref{Name: nameTok.Value, Sp: span.Join(tok.Span, nameTok.Span)}, nil

	case token.Identifier:
		p.advance()
		if tok.Value == "Grapheme" {
			return &ast.Grapheme{Sp: tok.Span}, nil
		}
		return &ast.VariableRef{Name: tok.Value, Sp: tok.Span}, nil

	case token.ErrorMsg:
		p.advance()
		return nil, &Error{Kind: KindLexErrorWithMessage, Sp: tok.Span, Hint: tok.Hint}

	case token.Error:
		p.advance()
		return nil, &Error{Kind: KindLexErrorWithMessage, Sp: tok.Span, Hint: token.HintNone}

	default:
		return nil, p.unexpected("an expression")
	}
}

func (p *parser) parseGroupBody(capturing bool, name string, openSp span.Span) (ast.Node, *Error) {
	if err := p.enter(openSp); err != nil {
		return nil, err
	}
	inner, err := p.parseAlternation()
	p.exit()
	if err != nil {
		return nil, err
	}
	closeTok, err := p.expect(token.CloseParen, "`)`")
	if err != nil {
		return nil, err
	}
	kind := ast.GroupPlain
	if capturing {
		kind = ast.GroupCapturing
	}
	return &ast.Group{
		Kind: kind, Capturing: capturing, Name: name,
		Children: []ast.Node{inner}, Sp: span.Join(openSp, closeTok.Span),
	}, nil
}

// parseLookaround parses the single atom a lookaround assertion applies to.
// Multi-atom lookaround content must be explicitly parenthesized, e.g.
// `>> ('a' 'b')`, just as in an atom position anywhere else.
func (p *parser) parseLookaround(tok token.Token) (ast.Node, *Error) {
	inner, err := p.parseAtomWithRepetition()
	if err != nil {
		return nil, err
	}
	kind := ast.GroupLookaheadKind
	if tok.Type == token.LookBehind {
		kind = ast.GroupLookbehindKind
	}
	return &ast.Group{Kind: kind, Children: []ast.Node{inner}, Sp: span.Join(tok.Span, inner.Span())}, nil
}

func negateNode(n ast.Node) (ast.Node, bool) {
	switch v := n.(type) {
	case *ast.CharClass:
		return v.Negate(), true
	case *ast.Boundary:
		return v.Negate()
	case *ast.Group:
		return v.Negate()
	default:
		return nil, false
	}
}

func describeNode(n ast.Node) string {
	switch n.(type) {
	case *ast.CharClass:
		return "a character class"
	case *ast.Boundary:
		return "a word boundary"
	case *ast.Group:
		return "a group"
	case *ast.Literal:
		return "a literal"
	default:
		return "this expression"
	}
}

// parseCharClass := '[' '!'? item+ ']'
func (p *parser) parseCharClass() (ast.Node, *Error) {
	openTok := p.peek()
	if err := p.enter(openTok.Span); err != nil {
		return nil, err
	}
	defer p.exit()

	p.advance() // '['
	negated := false
	if p.peek().Type == token.Not {
		p.advance()
		negated = true
	}

	var items []ast.CharClassItem
	first := true
	for p.peek().Type != token.CloseBracket {
		if p.atEnd() {
			return nil, p.unexpected("`]`")
		}

		tok := p.peek()
		if first && tok.Type == token.ErrorMsg && tok.Hint == token.Caret {
			p.advance()
			return nil, &Error{Kind: KindLexErrorWithMessage, Sp: tok.Span, Hint: token.CaretInGroup}
		}
		first = false

		item, err := p.parseCharClassItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	closeTok := p.advance()

	sp := span.Join(openTok.Span, closeTok.Span)
	if len(items) == 0 {
		return nil, &Error{Kind: KindCharClassEmpty, Sp: sp}
	}
	return &ast.CharClass{Items: items, Negated: negated, Sp: sp}, nil
}

var knownNamedClasses = []string{"w", "d", "s", "h", "v", "n", "r", "word", "digit", "space"}

func isKnownNamedClass(name string) bool {
	for _, k := range knownNamedClasses {
		if k == name {
			return true
		}
	}
	return false
}

// looksLikeShorthand restricts unknown-class validation (and therefore
// similar-name suggestions) to short identifiers, the shape of the Perl-style
// shorthands. Longer identifiers are assumed to name a Unicode script or
// general category and pass through unvalidated — Pomsky defers those to the
// target regex engine rather than hard-coding Unicode's property list.
func looksLikeShorthand(name string) bool {
	return len(name) <= 6
}

func suggestNamedClass(name string) (string, bool) {
	ranked := fuzzy.RankFindFold(name, knownNamedClasses)
	if len(ranked) == 0 {
		return "", false
	}
	sort.Sort(ranked)
	return ranked[0].Target, true
}

func (p *parser) parseCharClassItem() (ast.CharClassItem, *Error) {
	tok := p.peek()

	switch tok.Type {
	case token.OpenBracket:
		nested, err := p.parseCharClass()
		if err != nil {
			return nil, err
		}
		return ast.NestedItem{Class: nested.(*ast.CharClass)}, nil

	case token.CodePoint:
		p.advance()
		r, ok := parseCodePointValue(tok.Value)
		if !ok {
			return nil, &Error{Kind: KindCharStringTooManyCodePoints, Sp: tok.Span}
		}
		return p.maybeRange(r, tok.Span)

	case token.String:
		p.advance()
		text, offErr := unescapeString(tok.Value)
		if offErr != nil {
			return nil, &Error{Kind: KindInvalidEscapeInStringAt, Sp: tok.Span, Offset: offErr.offset}
		}
		runes := []rune(text)
		if len(runes) != 1 {
			return nil, &Error{Kind: KindCharStringTooManyCodePoints, Sp: tok.Span}
		}
		return p.maybeRange(runes[0], tok.Span)

	case token.Identifier:
		p.advance()
		name := tok.Value
		if !isKnownNamedClass(name) && looksLikeShorthand(name) {
			similar, hasSimilar := suggestNamedClass(name)
			return nil, &Error{
				Kind: KindCharClassUnknownNamedClass, Sp: tok.Span,
				Name: name, Similar: similar, HasSimilar: hasSimilar,
			}
		}
		return ast.NamedClassItem(name), nil

	default:
		return nil, p.unexpected("a character, range, or named class")
	}
}

// maybeRange consumes a following `-`, hi bound` pair only when the dash is
// immediately followed by a valid range endpoint; otherwise the dash is left
// unconsumed for the caller's loop to report as an unexpected token.
func (p *parser) maybeRange(lo rune, loSp span.Span) (ast.CharClassItem, *Error) {
	if p.peek().Type != token.Dash {
		return ast.CodePointItem(lo), nil
	}
	save := p.pos
	p.advance() // '-'

	hiTok := p.peek()
	var hi rune
	switch hiTok.Type {
	case token.CodePoint:
		r, ok := parseCodePointValue(hiTok.Value)
		if !ok {
			return nil, &Error{Kind: KindCharStringTooManyCodePoints, Sp: hiTok.Span}
		}
		hi = r
		p.advance()
	case token.String:
		text, offErr := unescapeString(hiTok.Value)
		if offErr != nil {
			return nil, &Error{Kind: KindInvalidEscapeInStringAt, Sp: hiTok.Span, Offset: offErr.offset}
		}
		runes := []rune(text)
		if len(runes) != 1 {
			return nil, &Error{Kind: KindCharStringTooManyCodePoints, Sp: hiTok.Span}
		}
		hi = runes[0]
		p.advance()
	default:
		p.pos = save
		return ast.CodePointItem(lo), nil
	}

	if hi < lo {
		return nil, &Error{Kind: KindCharClassDescendingRange, Sp: span.Join(loSp, hiTok.Span)}
	}
	return ast.RangeItem{Lo: lo, Hi: hi}, nil
}

func parseCodePointValue(raw string) (rune, bool) {
	if len(raw) <= 2 {
		return 0, false
	}
	v, err := strconv.ParseInt(raw[2:], 16, 32)
	if err != nil || v > 0x10FFFF {
		return 0, false
	}
	return rune(v), true
}

type offsetError struct{ offset int }

// unescapeString strips the surrounding quotes and, for double-quoted
// strings only, resolves `\\` and `\"` escapes. Single-quoted strings have
// no escape processing: the first following quote always closes the string.
func unescapeString(raw string) (string, *offsetError) {
	if len(raw) < 2 {
		return "", nil
	}
	quote := raw[0]
	inner := raw[1 : len(raw)-1]
	if quote == '\'' {
		return inner, nil
	}

	var b strings.Builder
	for i := 0; i < len(inner); {
		c := inner[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(inner) {
			return "", &offsetError{offset: i}
		}
		switch inner[i+1] {
		case '\\', '"':
			b.WriteByte(inner[i+1])
			i += 2
		default:
			return "", &offsetError{offset: i}
		}
	}
	return b.String(), nil
}
