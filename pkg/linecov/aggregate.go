// Package linecov expands flat regions into per-line hit records.
package linecov

import "github.com/praetorian-inc/llvm2codecov/pkg/types"

// Aggregate records every counted region against the lines it spans.
// Gap regions and regions without a meaningful count are skipped.
func Aggregate(fc *types.FileCoverage, regions []types.Region) {
	for _, r := range regions {
		Add(fc, r)
	}
}

// Add records a single region. The first line of the span gets the region's
// start column, the last line its end column, and lines in between get
// neither.
func Add(fc *types.FileCoverage, r types.Region) {
	if !r.Counted() {
		return
	}

	for line := r.Start.Line; line <= r.End.Line; line++ {
		hit := types.LineHit{Count: r.Count}
		if line == r.Start.Line {
			hit.StartCol = r.Start.Column
		}
		if line == r.End.Line {
			hit.EndCol = r.End.Column
		}
		fc.Line(line).Hit(hit)
	}
}
