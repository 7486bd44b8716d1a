package types

import (
	"encoding/json"
	"fmt"
)

// Segment is a single region boundary from an llvm-cov export.
//
// On the wire a segment is a positional array:
//
//	[line, col, count, hasCount, isRegionEntry, isGapRegion]
//
// Exports older than LLVM 7 omit the trailing gap flag.
type Segment struct {
	Line          int
	Column        int
	Count         uint64
	HasCount      bool
	IsRegionEntry bool
	IsGapRegion   bool
}

// Position returns the segment's line:column point.
func (s Segment) Position() Position {
	return Position{Line: s.Line, Column: s.Column}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("segment must be an array: %w", err)
	}
	if len(fields) != 5 && len(fields) != 6 {
		return fmt.Errorf("segment must have 5 or 6 elements, got %d", len(fields))
	}

	var seg Segment
	targets := []any{&seg.Line, &seg.Column, &seg.Count, &seg.HasCount, &seg.IsRegionEntry, &seg.IsGapRegion}
	for i, raw := range fields {
		if err := json.Unmarshal(raw, targets[i]); err != nil {
			return fmt.Errorf("segment element %d: %w", i, err)
		}
	}

	*s = seg
	return nil
}

// MarshalJSON implements json.Marshaler, always emitting the 6-element form.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Line, s.Column, s.Count, s.HasCount, s.IsRegionEntry, s.IsGapRegion})
}
