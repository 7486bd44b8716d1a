package types

import "fmt"

// Position is a line:column point in a source file (both 1-based).
// Positions order lexicographically, line first.
type Position struct {
	Line   int
	Column int
}

// Pos is shorthand for Position{Line: line, Column: col}.
func Pos(line, col int) Position {
	return Position{Line: line, Column: col}
}

// Compare returns -1, 0 or +1 depending on whether p sorts before, equal to
// or after q.
func (p Position) Compare(q Position) int {
	switch {
	case p.Line < q.Line:
		return -1
	case p.Line > q.Line:
		return 1
	case p.Column < q.Column:
		return -1
	case p.Column > q.Column:
		return 1
	}
	return 0
}

// Less reports whether p sorts strictly before q.
func (p Position) Less(q Position) bool {
	return p.Compare(q) < 0
}

// String formats the position as line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// OffsetSpan is byte range [Start, End) - half-open interval.
type OffsetSpan struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s OffsetSpan) Len() int {
	return s.End - s.Start
}
