package types

import (
	"fmt"
	"slices"
)

// LineHit is one region's contribution to a line.
// StartCol is set only on the line a region starts on, EndCol only on the
// line it ends on; zero means the region runs past that edge of the line.
type LineHit struct {
	StartCol int
	EndCol   int
	Count    uint64
}

// LineCoverage collects every hit recorded for a single line.
type LineCoverage struct {
	Hits []LineHit
}

// Hit records a hit on the line.
func (c *LineCoverage) Hit(h LineHit) {
	c.Hits = append(c.Hits, h)
}

// Summary collapses the hits into a LineSummary for the given line number.
func (c *LineCoverage) Summary(line int) LineSummary {
	s := LineSummary{Line: line, Total: len(c.Hits)}
	for _, h := range c.Hits {
		if h.Count > 0 {
			s.Covered++
		}
		if h.Count > s.Count {
			s.Count = h.Count
		}
	}
	return s
}

// LineStatus classifies a summarized line.
type LineStatus int

const (
	// LineNone means the line carries no coverage data.
	LineNone LineStatus = iota
	// LineHitAll means every hit on the line executed.
	LineHitAll
	// LineMissed means no hit on the line executed.
	LineMissed
	// LinePartial means some, but not all, hits executed.
	LinePartial
)

// LineSummary is the compact form of a line's coverage: how many of its
// hits executed, out of how many, and the highest execution count seen.
type LineSummary struct {
	Line    int
	Covered int
	Total   int
	Count   uint64
}

// Status classifies the line.
func (s LineSummary) Status() LineStatus {
	switch {
	case s.Total == 0:
		return LineNone
	case s.Covered == 0:
		return LineMissed
	case s.Covered == s.Total:
		return LineHitAll
	default:
		return LinePartial
	}
}

// Value returns the Codecov encoding of the line: nil for no data, the
// maximum count when the line is uniformly hit or missed, or "covered/total"
// when it is partially hit.
func (s LineSummary) Value() any {
	switch s.Status() {
	case LineNone:
		return nil
	case LinePartial:
		return fmt.Sprintf("%d/%d", s.Covered, s.Total)
	default:
		return s.Count
	}
}

// FileCoverage is the per-line coverage of one source file.
type FileCoverage struct {
	Filename string
	Lines    map[int]*LineCoverage

	// SourceID is the digest of the source text the regions were aligned
	// against. It is zero when the source could not be used.
	SourceID BlobID

	// Shrinkwrapped is true when region boundaries were trimmed to the
	// source text.
	Shrinkwrapped bool
}

// NewFileCoverage creates an empty FileCoverage.
func NewFileCoverage(filename string) *FileCoverage {
	return &FileCoverage{
		Filename: filename,
		Lines:    make(map[int]*LineCoverage),
	}
}

// Line returns the coverage for a line, creating it on first reference.
func (f *FileCoverage) Line(n int) *LineCoverage {
	lc, ok := f.Lines[n]
	if !ok {
		lc = &LineCoverage{}
		f.Lines[n] = lc
	}
	return lc
}

// LineNumbers returns the referenced line numbers in ascending order.
func (f *FileCoverage) LineNumbers() []int {
	nums := make([]int, 0, len(f.Lines))
	for n := range f.Lines {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}

// Summarize returns one summary per referenced line, ordered by line.
func (f *FileCoverage) Summarize() *FileSummary {
	fs := &FileSummary{
		Filename:      f.Filename,
		SourceID:      f.SourceID,
		Shrinkwrapped: f.Shrinkwrapped,
	}
	for _, n := range f.LineNumbers() {
		fs.Lines = append(fs.Lines, f.Lines[n].Summary(n))
	}
	return fs
}

// FileSummary is the summarized coverage of a file, ordered by line.
type FileSummary struct {
	Filename      string
	SourceID      BlobID
	Shrinkwrapped bool
	Lines         []LineSummary
}
