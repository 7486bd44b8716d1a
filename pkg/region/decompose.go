// Package region flattens nested llvm-cov regions into non-overlapping
// intervals.
//
// llvm-cov describes coverage as a document-ordered list of segments. An
// entry segment opens a region nested inside whatever region is currently
// open; a non-entry segment closes the innermost one. The Decomposer keeps
// the open regions on a stack and emits a Region every time the innermost
// region changes, so the output tiles the outermost region with no overlap.
package region

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

var (
	// ErrUnbalanced is returned when a closing segment arrives with no open region.
	ErrUnbalanced = errors.New("closing segment without an open region")

	// ErrUnclosed is returned by a strict Decomposer when regions are still
	// open after the last segment.
	ErrUnclosed = errors.New("regions left open at end of segments")
)

// openRegion is a region whose closing segment has not been seen yet.
type openRegion struct {
	id       int
	start    types.Position
	count    uint64
	hasCount bool
	isGap    bool
}

func (o openRegion) close(end types.Position) types.Region {
	return types.Region{
		ID:       o.id,
		Start:    o.start,
		End:      end,
		Count:    o.count,
		HasCount: o.hasCount,
		IsGap:    o.isGap,
	}
}

// Decomposer turns a segment stream into flat regions.
// The zero value is ready to use.
type Decomposer struct {
	// Strict makes Finish fail when regions remain open.
	Strict bool

	stack    []openRegion
	regions  []types.Region
	nextID   int
	segments int
}

// Push feeds the next segment in document order.
func (d *Decomposer) Push(seg types.Segment) error {
	pos := seg.Position()
	idx := d.segments
	d.segments++

	if seg.IsRegionEntry {
		if top, ok := d.top(); ok {
			d.regions = append(d.regions, top.close(pos))
		}
		d.stack = append(d.stack, openRegion{
			id:       d.nextID,
			start:    pos,
			count:    seg.Count,
			hasCount: seg.HasCount,
			isGap:    seg.IsGapRegion,
		})
		d.nextID++
		return nil
	}

	top, ok := d.top()
	if !ok {
		return fmt.Errorf("segment %d at %s: %w", idx, pos, ErrUnbalanced)
	}
	d.regions = append(d.regions, top.close(pos))
	d.stack = d.stack[:len(d.stack)-1]
	if len(d.stack) > 0 {
		d.stack[len(d.stack)-1].start = pos
	}
	return nil
}

// Open returns the number of regions currently open.
func (d *Decomposer) Open() int {
	return len(d.stack)
}

// Finish returns the regions emitted so far, in emission order.
// Regions still open produce no interval; a strict Decomposer reports them
// as ErrUnclosed instead.
func (d *Decomposer) Finish() ([]types.Region, error) {
	if d.Strict && len(d.stack) > 0 {
		return nil, fmt.Errorf("%d open, innermost started at %s: %w",
			len(d.stack), d.stack[len(d.stack)-1].start, ErrUnclosed)
	}
	return d.regions, nil
}

func (d *Decomposer) top() (openRegion, bool) {
	if len(d.stack) == 0 {
		return openRegion{}, false
	}
	return d.stack[len(d.stack)-1], true
}

// Decompose flattens a complete segment list. Trailing open regions are
// tolerated.
func Decompose(segments []types.Segment) ([]types.Region, error) {
	var d Decomposer
	for _, seg := range segments {
		if err := d.Push(seg); err != nil {
			return nil, err
		}
	}
	return d.Finish()
}
