package textpos

import (
	"unicode"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// Shrinkwrap trims a region to the code it spans. text must be exactly the
// region's text. Start moves forward past leading whitespace and End moves
// back to just after the last non-whitespace rune. A region with no
// non-whitespace text collapses to a zero-width region at its original start.
func Shrinkwrap(r types.Region, text string) types.Region {
	start := r.Start
	end := r.Start
	running := r.Start
	seenCode := false

	for _, c := range text {
		if !unicode.IsSpace(c) {
			seenCode = true
			running.Column++
			end = running
			continue
		}

		if c == '\n' {
			running.Line++
			running.Column = 1
		} else {
			running.Column++
		}
		if !seenCode {
			start = running
		}
	}

	if !seenCode {
		start = r.Start
	}

	r.Start = start
	r.End = end
	return r
}

// ShrinkwrapAll resolves every region against text and shrinkwraps it.
// The input slice is not modified.
func ShrinkwrapAll(text string, regions []types.Region) ([]types.Region, error) {
	spans, err := RegionSpans(text, regions)
	if err != nil {
		return nil, err
	}

	out := make([]types.Region, len(regions))
	for i, r := range regions {
		s := spans[i]
		if s.End < s.Start {
			s.End = s.Start
		}
		out[i] = Shrinkwrap(r, text[s.Start:s.End])
	}
	return out, nil
}
