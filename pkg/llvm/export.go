// Package llvm decodes the JSON produced by `llvm-cov export`.
//
// Only the fields needed to rebuild line coverage are modelled. Function
// records, summaries and totals are kept raw so they survive decoding
// without being interpreted.
package llvm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// ExportType is the value of the top-level "type" field in llvm-cov exports.
const ExportType = "llvm.coverage.json.export"

// ErrNoData is returned when an export has no data entries.
var ErrNoData = errors.New("export contains no data entries")

// Export is the top-level llvm-cov export document.
type Export struct {
	Type    string  `json:"type"`
	Version string  `json:"version"`
	Data    []Datum `json:"data"`
}

// Datum is one entry of the export's data list.
type Datum struct {
	Files     []File          `json:"files"`
	Functions json.RawMessage `json:"functions,omitempty"`
	Totals    json.RawMessage `json:"totals,omitempty"`
}

// File is the coverage of a single source file.
type File struct {
	Filename   string          `json:"filename"`
	Segments   []types.Segment `json:"segments"`
	Expansions json.RawMessage `json:"expansions,omitempty"`
	Summary    json.RawMessage `json:"summary,omitempty"`
}

// Decode reads an export from r. An export without data entries is
// rejected with ErrNoData.
func Decode(r io.Reader) (*Export, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return nil, fmt.Errorf("decoding llvm-cov export: %w", err)
	}
	if len(exp.Data) == 0 {
		return nil, ErrNoData
	}
	return &exp, nil
}

// Parse decodes an export from a byte slice.
func Parse(data []byte) (*Export, error) {
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("decoding llvm-cov export: %w", err)
	}
	if len(exp.Data) == 0 {
		return nil, ErrNoData
	}
	return &exp, nil
}

// Files returns the files of the first data entry. Later entries are not
// consulted; Ignored reports how many there are.
func (e *Export) Files() []File {
	if len(e.Data) == 0 {
		return nil
	}
	return e.Data[0].Files
}

// Ignored returns the number of data entries beyond the first.
func (e *Export) Ignored() int {
	if len(e.Data) <= 1 {
		return 0
	}
	return len(e.Data) - 1
}
