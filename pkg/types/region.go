package types

// Region is a flat, non-overlapping slice of a coverage region.
// The ID identifies the llvm region it was carved from and is only kept for
// tracing; several Regions may share one ID.
type Region struct {
	ID       int
	Start    Position
	End      Position
	Count    uint64
	HasCount bool
	IsGap    bool
}

// Counted reports whether the region contributes to line coverage.
func (r Region) Counted() bool {
	return r.HasCount && !r.IsGap
}

// Empty reports whether the region spans no text.
func (r Region) Empty() bool {
	return r.Start == r.End
}
