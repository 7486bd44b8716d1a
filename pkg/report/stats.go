// Package report computes line coverage statistics and renders them for
// people or machines.
package report

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/praetorian-inc/llvm2codecov/pkg/codecov"
	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// FileStats counts the lines of one file by coverage status. Lines without
// coverage data are not counted.
type FileStats struct {
	Filename string `json:"filename"`
	Lines    int    `json:"lines"`
	Hit      int    `json:"hit"`
	Partial  int    `json:"partial"`
	Missed   int    `json:"missed"`
}

// Add counts one line.
func (s *FileStats) Add(l types.LineSummary) {
	switch l.Status() {
	case types.LineHitAll:
		s.Hit++
	case types.LinePartial:
		s.Partial++
	case types.LineMissed:
		s.Missed++
	default:
		return
	}
	s.Lines++
}

// Merge adds the counts of o.
func (s *FileStats) Merge(o FileStats) {
	s.Lines += o.Lines
	s.Hit += o.Hit
	s.Partial += o.Partial
	s.Missed += o.Missed
}

// Percent is the share of fully hit lines, the way Codecov scores a file.
// A file with no counted lines scores 0.
func (s FileStats) Percent() float64 {
	if s.Lines == 0 {
		return 0
	}
	return 100 * float64(s.Hit) / float64(s.Lines)
}

// MarshalJSON adds the percentage, rounded to two decimals.
func (s FileStats) MarshalJSON() ([]byte, error) {
	type plain FileStats
	return json.Marshal(struct {
		plain
		Percent float64 `json:"percent"`
	}{plain(s), math.Round(s.Percent()*100) / 100})
}

// Summary holds per-file statistics and their total.
type Summary struct {
	Files []FileStats `json:"files"`
	Total FileStats   `json:"total"`
}

func newSummary(files []FileStats) *Summary {
	slices.SortFunc(files, func(a, b FileStats) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	s := &Summary{Files: files, Total: FileStats{Filename: "TOTAL"}}
	for _, f := range files {
		s.Total.Merge(f)
	}
	return s
}

func statsOf(filename string, lines []types.LineSummary) FileStats {
	fs := FileStats{Filename: filename}
	for _, l := range lines {
		fs.Add(l)
	}
	return fs
}

// FromReport computes statistics for every file of a Codecov report.
func FromReport(r *codecov.Report) *Summary {
	files := make([]FileStats, 0, len(r.Coverage))
	for name, lines := range r.Coverage {
		files = append(files, statsOf(name, lines))
	}
	return newSummary(files)
}

// FromSummaries computes statistics for stored file summaries.
func FromSummaries(summaries []*types.FileSummary) *Summary {
	files := make([]FileStats, 0, len(summaries))
	for _, f := range summaries {
		files = append(files, statsOf(f.Filename, f.Lines))
	}
	return newSummary(files)
}
