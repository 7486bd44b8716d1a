// Package textpos maps line:column positions onto a source text and trims
// regions to the code they contain.
package textpos

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// ErrPositionNotFound is returned when the text ends before a requested
// position is reached. It usually means the coverage report was produced
// from a different revision of the file.
var ErrPositionNotFound = errors.New("position not found in source text")

// mark is a position and its resolved byte offset.
type mark struct {
	pos    types.Position
	offset int
}

// Index holds resolved offsets for a set of positions, sorted by position.
// Offsets are only meaningful against the text they were resolved from.
type Index struct {
	marks []mark
}

// Resolve finds the byte offset of every position in a single forward pass
// over text.
//
// The cursor advances one column per rune and moves to column 1 of the next
// line after '\n'. A position is assigned the cursor's offset as soon as the
// cursor reaches or passes it, so a column beyond the end of its line
// resolves to the start of the following line.
func Resolve(text string, positions []types.Position) (*Index, error) {
	sorted := slices.Clone(positions)
	slices.SortFunc(sorted, types.Position.Compare)
	sorted = slices.Compact(sorted)

	marks := make([]mark, len(sorted))
	cursor := types.Pos(1, 1)
	offset := 0

	for next := 0; next < len(sorted); {
		if cursor.Compare(sorted[next]) >= 0 {
			marks[next] = mark{pos: sorted[next], offset: offset}
			next++
			continue
		}
		if offset >= len(text) {
			return nil, fmt.Errorf("%s (text ends at %s): %w", sorted[next], cursor, ErrPositionNotFound)
		}

		r, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
		if r == '\n' {
			cursor.Line++
			cursor.Column = 1
		} else {
			cursor.Column++
		}
	}

	return &Index{marks: marks}, nil
}

// Offset returns the resolved offset of p.
func (ix *Index) Offset(p types.Position) (int, bool) {
	i, ok := slices.BinarySearchFunc(ix.marks, p, func(m mark, target types.Position) int {
		return m.pos.Compare(target)
	})
	if !ok {
		return 0, false
	}
	return ix.marks[i].offset, true
}

// Len returns the number of distinct resolved positions.
func (ix *Index) Len() int {
	return len(ix.marks)
}

// RegionSpans resolves both boundaries of every region against text and
// returns one byte span per region, in the same order.
func RegionSpans(text string, regions []types.Region) ([]types.OffsetSpan, error) {
	positions := make([]types.Position, 0, 2*len(regions))
	for _, r := range regions {
		positions = append(positions, r.Start, r.End)
	}

	ix, err := Resolve(text, positions)
	if err != nil {
		return nil, err
	}

	spans := make([]types.OffsetSpan, len(regions))
	for i, r := range regions {
		// Every boundary was resolved above, so both lookups succeed.
		start, _ := ix.Offset(r.Start)
		end, _ := ix.Offset(r.End)
		spans[i] = types.OffsetSpan{Start: start, End: end}
	}
	return spans, nil
}
