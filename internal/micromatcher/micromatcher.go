// Package micromatcher provides the small declarative matcher vocabulary the
// lexer uses to recognize multi-character foreign-syntax tokens (backslash
// escapes, `(?...)` groups). Each Matcher, given an input string, either
// fails or reports how many bytes it consumed plus a captured value.
//
// Matchers are purely functional: there is no backtracking beyond
// first-match-wins inside Alternatives.
package micromatcher

import "unicode/utf8"

// Match is the result of a successful match: how many bytes were consumed,
// and the value captured by the matcher (nil if the matcher carries none).
type Match struct {
	Consumed int
	Value    any
}

// Matcher attempts to match a prefix of input.
type Matcher func(input string) (Match, bool)

// Literal matches lit as a verbatim byte-for-byte prefix of input. Its
// captured value is lit itself.
func Literal(lit string) Matcher {
	return func(input string) (Match, bool) {
		if len(input) >= len(lit) && input[:len(lit)] == lit {
			return Match{Consumed: len(lit), Value: lit}, true
		}
		return Match{}, false
	}
}

// CharPredicate matches exactly one rune satisfying pred. Its captured
// value is the matched rune.
func CharPredicate(pred func(rune) bool) Matcher {
	return func(input string) (Match, bool) {
		if input == "" {
			return Match{}, false
		}
		r, size := utf8.DecodeRuneInString(input)
		if !pred(r) {
			return Match{}, false
		}
		return Match{Consumed: size, Value: r}, true
	}
}

// Alternatives tries each matcher in order; the first success wins. An
// empty-string literal is a valid last alternative that always matches zero
// bytes.
func Alternatives(ms ...Matcher) Matcher {
	return func(input string) (Match, bool) {
		for _, m := range ms {
			if match, ok := m(input); ok {
				return match, true
			}
		}
		return Match{}, false
	}
}

// Sequence matches each sub-matcher in order. The total consumed length is
// the sum of each step; the captured value is the last sub-matcher's value.
func Sequence(ms ...Matcher) Matcher {
	return func(input string) (Match, bool) {
		total := 0
		var last any
		rest := input
		for _, m := range ms {
			match, ok := m(rest)
			if !ok {
				return Match{}, false
			}
			total += match.Consumed
			last = match.Value
			rest = rest[match.Consumed:]
		}
		return Match{Consumed: total, Value: last}, true
	}
}

// Many0 greedily matches zero or more repetitions of m. Captured value is
// the slice of captured values from each repetition.
func Many0(m Matcher) Matcher {
	return func(input string) (Match, bool) {
		total := 0
		var values []any
		rest := input
		for {
			match, ok := m(rest)
			if !ok || match.Consumed == 0 {
				break
			}
			total += match.Consumed
			values = append(values, match.Value)
			rest = rest[match.Consumed:]
		}
		return Match{Consumed: total, Value: values}, true
	}
}

// Many1 greedily matches one or more repetitions of m; fails if m does not
// match at least once.
func Many1(m Matcher) Matcher {
	many0 := Many0(m)
	return func(input string) (Match, bool) {
		match, _ := many0(input)
		if match.Consumed == 0 {
			return Match{}, false
		}
		return match, true
	}
}

// Capture wraps m, exposing its captured value unchanged. It exists so call
// sites can name the intent of "I want this sub-match's value" even though
// the underlying behavior is identical to m.
func Capture(m Matcher) Matcher {
	return m
}

// Context attaches a constant value to m: on success, ctx is returned in
// place of whatever m itself captured.
func Context(m Matcher, ctx any) Matcher {
	return func(input string) (Match, bool) {
		match, ok := m(input)
		if !ok {
			return Match{}, false
		}
		match.Value = ctx
		return match, true
	}
}

// IsStart reports whether m matches a prefix of input, discarding the
// captured value. Convenience for call sites that only need the consumed
// length.
func IsStart(m Matcher, input string) (int, bool) {
	match, ok := m(input)
	if !ok {
		return 0, false
	}
	return match.Consumed, true
}
