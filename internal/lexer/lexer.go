// Package lexer segments Pomsky source into a token stream. It recognizes
// "foreign" regex syntax (backslash escapes, `(?...)` groups, anchors) along
// the way and attaches an ErrorHint explaining the Pomsky equivalent, so
// parsing can continue and the diagnostic engine can offer a precise fix.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/pomsky-lang/pomsky-go/internal/micromatcher"
	"github.com/pomsky-lang/pomsky-go/internal/span"
	"github.com/pomsky-lang/pomsky-go/internal/token"
)

// Lex tokenizes source in full, skipping whitespace and `#` line comments.
func Lex(source string) []token.Token {
	var tokens []token.Token

	input := source
	offset := 0

	for {
		input, offset = skipTrivia(input, offset)
		if input == "" {
			break
		}

		length, typ, hint := dispatch(input)
		start := offset
		offset += length
		sp := span.New(start, offset)
		input = input[length:]

		if typ == token.ErrorMsg {
			tokens = append(tokens, token.NewHint(hint, source, sp))
		} else {
			tokens = append(tokens, token.New(typ, source, sp))
		}
	}

	return tokens
}

// skipTrivia trims leading whitespace and `#`-to-end-of-line comments,
// repeating until neither remains, and returns the advanced offset.
func skipTrivia(input string, offset int) (string, int) {
	for {
		trimmed := strings.TrimLeft(input, " \t\r\n\f\v")
		offset += len(input) - len(trimmed)
		input = trimmed

		if !strings.HasPrefix(input, "#") {
			return input, offset
		}
		if idx := strings.IndexByte(input, '\n'); idx >= 0 {
			offset += idx
			input = input[idx:]
		} else {
			offset += len(input)
			input = ""
		}
	}
}

// dispatch recognizes one token at the start of input and returns its byte
// length, type, and (for ErrorMsg tokens) hint. The ordering mirrors the
// longer-literal-before-shorter-overlap rule (`<%`, `%>`, `>>`, `<<`, `::`
// before their single-character prefixes) and tries foreign-syntax
// recognition only after every legitimate Pomsky token shape has failed.
func dispatch(input string) (int, token.Type, token.Hint) {
	switch {
	case strings.HasPrefix(input, "<%"):
		return 2, token.BStart, token.HintNone
	case strings.HasPrefix(input, "%>"):
		return 2, token.BEnd, token.HintNone
	case strings.HasPrefix(input, ">>"):
		return 2, token.LookAhead, token.HintNone
	case strings.HasPrefix(input, "<<"):
		return 2, token.LookBehind, token.HintNone
	case strings.HasPrefix(input, "::"):
		return 2, token.Backref, token.HintNone
	}

	c, size := utf8.DecodeRuneInString(input)

	if typ, ok := singleCharTokens[c]; ok {
		return 1, typ, token.HintNone
	}

	switch c {
	case '\'':
		if idx := strings.IndexByte(input[1:], '\''); idx >= 0 {
			return idx + 2, token.String, token.HintNone
		}
		return len(input), token.ErrorMsg, token.UnclosedString
	case '"':
		if idx, ok := findUnescapedQuote(input[1:]); ok {
			return idx + 2, token.String, token.HintNone
		}
		return len(input), token.ErrorMsg, token.UnclosedString
	}

	if n, ok := matchCodePoint(input); ok {
		return n, token.CodePoint, token.HintNone
	}
	if n, ok := matchNumber(input); ok {
		return n, token.Number, token.HintNone
	}
	if n, ok := matchIdentifier(input); ok {
		return n, token.Identifier, token.HintNone
	}

	switch c {
	case '^':
		return 1, token.ErrorMsg, token.Caret
	case '$':
		return 1, token.ErrorMsg, token.Dollar
	}

	if n, hint, ok := parseSpecialGroup(input); ok {
		return n, token.ErrorMsg, hint
	}
	if c == '(' {
		return 1, token.OpenParen, token.HintNone
	}
	if n, hint, ok := parseBackslash(input); ok {
		return n, token.ErrorMsg, hint
	}

	return size, token.Error, token.HintNone
}

var singleCharTokens = map[rune]token.Type{
	'%': token.BWord,
	'*': token.Star,
	'+': token.Plus,
	'?': token.QuestionMark,
	'|': token.Pipe,
	':': token.Colon,
	')': token.CloseParen,
	'{': token.OpenBrace,
	'}': token.CloseBrace,
	',': token.Comma,
	'!': token.Not,
	'[': token.OpenBracket,
	'-': token.Dash,
	']': token.CloseBracket,
	'.': token.Dot,
	';': token.Semicolon,
	'=': token.Equals,
}

// findUnescapedQuote finds the offset (relative to input) of the first
// unescaped `"`, treating any character after a backslash as consumed raw.
func findUnescapedQuote(input string) (int, bool) {
	s := input
	for {
		idx := strings.IndexAny(s, "\\\"")
		if idx < 0 {
			return 0, false
		}
		if s[idx] == '"' {
			return idx + (len(input) - len(s)), true
		}
		// backslash: consume one more rune raw, if any
		rest := s[idx+1:]
		if rest == "" {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(rest)
		s = rest[size:]
	}
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAsciiDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAsciiAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || isAsciiDigit(r)
}

func matchCodePoint(input string) (int, bool) {
	m := micromatcher.Sequence(
		micromatcher.Literal("U+"),
		micromatcher.Many1(micromatcher.CharPredicate(isHexDigit)),
	)
	return micromatcher.IsStart(m, input)
}

func matchNumber(input string) (int, bool) {
	return micromatcher.IsStart(micromatcher.Many1(micromatcher.CharPredicate(isAsciiDigit)), input)
}

func matchIdentifier(input string) (int, bool) {
	identStart := micromatcher.CharPredicate(func(r rune) bool {
		return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
	})
	identPart := micromatcher.CharPredicate(func(r rune) bool {
		return r == '_' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	})
	m := micromatcher.Sequence(identStart, micromatcher.Many0(identPart))
	return micromatcher.IsStart(m, input)
}

// parseBackslash recognizes a backslash escape and returns its length and
// the hint describing its Pomsky equivalent.
func parseBackslash(input string) (int, token.Hint, bool) {
	hex := micromatcher.CharPredicate(isHexDigit)
	ident := micromatcher.Many1(micromatcher.CharPredicate(func(r rune) bool {
		return isAsciiAlnum(r) || r == '-' || r == '+' || r == '_'
	}))

	afterGK := micromatcher.Alternatives(
		micromatcher.Sequence(micromatcher.Literal("<"), ident, micromatcher.Literal(">")),
		micromatcher.Sequence(micromatcher.Literal("{"), ident, micromatcher.Literal("}")),
		micromatcher.Sequence(micromatcher.Literal("'"), ident, micromatcher.Literal("'")),
		micromatcher.Sequence(
			micromatcher.Alternatives(micromatcher.Literal("-"), micromatcher.Literal("+"), micromatcher.Literal("")),
			micromatcher.CharPredicate(isAsciiDigit),
		),
	)

	afterP := micromatcher.Alternatives(
		micromatcher.CharPredicate(isAsciiAlnum),
		micromatcher.Sequence(micromatcher.Literal("{"), ident, micromatcher.Literal("}")),
		micromatcher.Sequence(micromatcher.Literal("{^"), ident, micromatcher.Literal("}")),
	)

	afterBackslash := micromatcher.Alternatives(
		micromatcher.Context(micromatcher.Sequence(
			micromatcher.Alternatives(micromatcher.Literal("u{"), micromatcher.Literal("x{")),
			micromatcher.Many1(hex),
			micromatcher.Literal("}"),
		), token.BackslashUnicode),
		micromatcher.Context(micromatcher.Sequence(micromatcher.Literal("u"), hex, hex, hex, hex), token.BackslashU4),
		micromatcher.Context(micromatcher.Sequence(micromatcher.Literal("x"), hex, hex), token.BackslashX2),
		micromatcher.Context(micromatcher.Sequence(
			micromatcher.Alternatives(micromatcher.Literal("k"), micromatcher.Literal("g")),
			afterGK,
		), token.BackslashGK),
		micromatcher.Context(micromatcher.Sequence(
			micromatcher.Alternatives(micromatcher.Literal("p"), micromatcher.Literal("P")),
			afterP,
		), token.BackslashProperty),
		micromatcher.Context(micromatcher.CharPredicate(func(rune) bool { return true }), token.Backslash),
	)

	m := micromatcher.Sequence(micromatcher.Literal("\\"), afterBackslash)
	match, ok := m(input)
	if !ok {
		return 0, token.HintNone, false
	}
	return match.Consumed, match.Value.(token.Hint), true
}

// parseSpecialGroup recognizes a `(?...)` construct and returns its length
// and the hint describing its Pomsky equivalent.
func parseSpecialGroup(input string) (int, token.Hint, bool) {
	ident := micromatcher.Many1(micromatcher.CharPredicate(func(r rune) bool {
		return isAsciiAlnum(r) || r == '-' || r == '+'
	}))

	afterOpen := micromatcher.Alternatives(
		micromatcher.Context(micromatcher.Literal(":"), token.GroupNonCapturing),
		micromatcher.Context(micromatcher.Literal("="), token.GroupLookahead),
		micromatcher.Context(micromatcher.Literal("!"), token.GroupLookaheadNeg),
		micromatcher.Context(micromatcher.Literal(">"), token.GroupAtomic),
		micromatcher.Context(micromatcher.Literal("("), token.GroupConditional),
		micromatcher.Context(micromatcher.Literal("|"), token.GroupBranchReset),
		micromatcher.Context(micromatcher.Literal("<="), token.GroupLookbehind),
		micromatcher.Context(micromatcher.Literal("<!"), token.GroupLookbehindNeg),
		micromatcher.Context(micromatcher.Sequence(
			micromatcher.Alternatives(micromatcher.Literal("P<"), micromatcher.Literal("<")),
			ident,
			micromatcher.Literal(">"),
		), token.GroupNamedCapture),
		micromatcher.Context(micromatcher.Sequence(micromatcher.Literal("'"), ident, micromatcher.Literal("'")), token.GroupNamedCapture),
		micromatcher.Context(micromatcher.Sequence(micromatcher.Literal("P="), ident, micromatcher.Literal(")")), token.GroupPcreBackreference),
		micromatcher.Context(micromatcher.Alternatives(micromatcher.Literal("P>"), micromatcher.Literal("&")), token.GroupSubroutineCall),
		micromatcher.Context(micromatcher.Sequence(
			micromatcher.Literal("#"),
			micromatcher.Many0(micromatcher.CharPredicate(func(r rune) bool { return r != ')' })),
			micromatcher.Literal(")"),
		), token.GroupComment),
		micromatcher.Context(micromatcher.Literal(""), token.GroupOther),
	)

	m := micromatcher.Sequence(micromatcher.Literal("(?"), afterOpen)
	match, ok := m(input)
	if !ok {
		return 0, token.HintNone, false
	}
	return match.Consumed, match.Value.(token.Hint), true
}
