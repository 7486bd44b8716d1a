// Package codecov reads and writes the Codecov custom coverage JSON format:
//
//	{"coverage": {"<file>": {"<line>": <value>}}}
//
// A value is null (no data), a count (line uniformly hit or missed) or a
// "covered/total" string (line partially hit).
package codecov

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// Report is a Codecov coverage document.
type Report struct {
	Coverage map[string]File `json:"coverage"`
}

// File is the ordered per-line coverage of one file.
type File []types.LineSummary

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{Coverage: make(map[string]File)}
}

// AddFile adds a file's coverage, replacing any earlier entry of the same name.
func (r *Report) AddFile(fc *types.FileCoverage) {
	r.AddSummary(fc.Summarize())
}

// AddSummary adds an already summarized file.
func (r *Report) AddSummary(fs *types.FileSummary) {
	lines := slices.Clone(fs.Lines)
	slices.SortFunc(lines, func(a, b types.LineSummary) int { return a.Line - b.Line })
	r.Coverage[fs.Filename] = lines
}

// Filenames returns the report's filenames in sorted order.
func (r *Report) Filenames() []string {
	names := make([]string, 0, len(r.Coverage))
	for name := range r.Coverage {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ToJSON serializes the report to indented JSON bytes.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Encode writes the indented report to w, followed by a newline.
func (r *Report) Encode(w io.Writer) error {
	data, err := r.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing codecov report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing codecov report: %w", err)
	}
	return nil
}

// Decode reads a report from r.
func Decode(r io.Reader) (*Report, error) {
	report := NewReport()
	if err := json.NewDecoder(r).Decode(report); err != nil {
		return nil, fmt.Errorf("decoding codecov report: %w", err)
	}
	if report.Coverage == nil {
		report.Coverage = make(map[string]File)
	}
	return report, nil
}

// MarshalJSON emits lines in ascending numeric order; encoding/json would
// sort the string keys lexically.
func (f File) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(s.Line)))
		buf.WriteByte(':')
		v, err := json.Marshal(s.Value())
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *File) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lines := make(File, 0, len(raw))
	for key, value := range raw {
		line, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid line number %q", key)
		}
		s, err := parseValue(value)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		s.Line = line
		lines = append(lines, s)
	}
	slices.SortFunc(lines, func(a, b types.LineSummary) int { return a.Line - b.Line })

	*f = lines
	return nil
}

// parseValue rebuilds a summary from its encoded value. A plain count is
// read back as a single hit; the highest count of a partial line is not
// recoverable and stays zero.
func parseValue(raw json.RawMessage) (types.LineSummary, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return types.LineSummary{}, err
	}

	switch val := v.(type) {
	case nil:
		return types.LineSummary{}, nil
	case float64:
		if val < 0 {
			return types.LineSummary{}, fmt.Errorf("negative count %v", val)
		}
		count, err := strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return types.LineSummary{}, fmt.Errorf("invalid count %s", raw)
		}
		s := types.LineSummary{Total: 1, Count: count}
		if count > 0 {
			s.Covered = 1
		}
		return s, nil
	case string:
		hit, total, ok := strings.Cut(val, "/")
		if !ok {
			return types.LineSummary{}, fmt.Errorf("invalid fraction %q", val)
		}
		covered, err1 := strconv.Atoi(hit)
		all, err2 := strconv.Atoi(total)
		if err1 != nil || err2 != nil || covered < 0 || all <= 0 || covered > all {
			return types.LineSummary{}, fmt.Errorf("invalid fraction %q", val)
		}
		return types.LineSummary{Covered: covered, Total: all}, nil
	default:
		return types.LineSummary{}, fmt.Errorf("unexpected value %s", raw)
	}
}
