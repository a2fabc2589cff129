// Package span holds byte-range references into compiler source text.
package span

// Span is a half-open byte range [Start, End) into the original source, or
// the distinguished empty span produced by Empty().
type Span struct {
	start int
	end   int
	empty bool
}

// Empty returns the distinguished empty span.
func Empty() Span {
	return Span{empty: true}
}

// New returns the span [start, end). Panics if end < start.
func New(start, end int) Span {
	if end < start {
		panic("span: end before start")
	}
	return Span{start: start, end: end}
}

// IsEmpty reports whether s is the distinguished empty span.
func (s Span) IsEmpty() bool {
	return s.empty
}

// Range returns (start, end, true), or (0, 0, false) if s is empty.
func (s Span) Range() (int, int, bool) {
	if s.empty {
		return 0, 0, false
	}
	return s.start, s.end, true
}

// Start returns the start offset, or 0 if s is empty.
func (s Span) Start() int {
	return s.start
}

// End returns the end offset, or 0 if s is empty.
func (s Span) End() int {
	return s.end
}

// Join composes two spans by taking the min start and max end. An empty
// operand is ignored; Join of two empty spans is empty.
func Join(a, b Span) Span {
	if a.empty {
		return b
	}
	if b.empty {
		return a
	}
	start := a.start
	if b.start < start {
		start = b.start
	}
	end := a.end
	if b.end > end {
		end = b.end
	}
	return Span{start: start, end: end}
}

// Slice returns the substring of source covered by s, or "" if s is empty
// or out of range.
func (s Span) Slice(source string) string {
	if s.empty || s.start < 0 || s.end > len(source) || s.start > s.end {
		return ""
	}
	return source[s.start:s.end]
}

// OrWholeSource returns s if non-empty, otherwise a span covering all of
// source. Used when rendering a diagnostic whose span could not be
// determined.
func (s Span) OrWholeSource(source string) Span {
	if s.empty {
		return New(0, len(source))
	}
	return s
}
