// Package convert turns an llvm-cov export into Codecov line coverage.
//
// Each file is converted independently: its segments are flattened into
// regions, the regions are shrinkwrapped against the file's source text when
// it can be read, and the result is folded into per-line hits. Files are
// fanned out across a worker pool and merged back in input order.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/llvm2codecov/pkg/codecov"
	"github.com/praetorian-inc/llvm2codecov/pkg/filter"
	"github.com/praetorian-inc/llvm2codecov/pkg/linecov"
	"github.com/praetorian-inc/llvm2codecov/pkg/llvm"
	"github.com/praetorian-inc/llvm2codecov/pkg/logging"
	"github.com/praetorian-inc/llvm2codecov/pkg/region"
	"github.com/praetorian-inc/llvm2codecov/pkg/source"
	"github.com/praetorian-inc/llvm2codecov/pkg/textpos"
	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// ErrNotText is the fallback reason for sources that are not UTF-8 text.
var ErrNotText = errors.New("source is not UTF-8 text")

// Config for a Converter.
type Config struct {
	// Source provides file text for shrinkwrapping. Nil disables it.
	Source source.Provider

	// Shrinkwrap trims region boundaries to the code they span.
	Shrinkwrap bool

	// Strict rejects files whose segments leave regions open.
	Strict bool

	// Workers is the number of files converted concurrently
	// (0 = runtime.NumCPU()).
	Workers int

	// Filter drops matching files from the output.
	Filter *filter.Filter

	// Logger receives per-file warnings. Nil discards them.
	Logger *slog.Logger
}

// Converter converts llvm-cov exports.
type Converter struct {
	config Config
	logger *slog.Logger
}

// New creates a Converter.
func New(cfg Config) *Converter {
	return &Converter{
		config: cfg,
		logger: logging.OrDiscard(cfg.Logger),
	}
}

// FileResult is the outcome of converting one file.
type FileResult struct {
	Coverage *types.FileCoverage

	// Regions is the number of flat regions the segments produced.
	Regions int

	// Fallback explains why the regions kept their raw boundaries. It is nil
	// when the file was shrinkwrapped or shrinkwrapping is disabled.
	Fallback error
}

// Stats counts what a conversion did.
type Stats struct {
	Files         int
	Excluded      int
	Shrinkwrapped int
	Fallbacks     int
	Regions       int
	IgnoredData   int
}

// Result is a finished conversion.
type Result struct {
	Report *codecov.Report
	Files  []*FileResult
	Stats  Stats
}

// ConvertFile converts a single file. Only malformed segments are errors;
// a source that cannot be used is recorded in FileResult.Fallback.
func (c *Converter) ConvertFile(ctx context.Context, f llvm.File) (*FileResult, error) {
	d := region.Decomposer{Strict: c.config.Strict}
	for _, seg := range f.Segments {
		if err := d.Push(seg); err != nil {
			return nil, err
		}
	}
	regions, err := d.Finish()
	if err != nil {
		return nil, err
	}

	result := &FileResult{
		Coverage: types.NewFileCoverage(f.Filename),
		Regions:  len(regions),
	}

	if c.config.Shrinkwrap && c.config.Source != nil && len(regions) > 0 {
		wrapped, id, err := c.shrinkwrap(ctx, f.Filename, regions)
		switch {
		case err == nil:
			regions = wrapped
			result.Coverage.Shrinkwrapped = true
			result.Coverage.SourceID = id
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			result.Fallback = err
			c.logger.Warn("using raw region boundaries", "file", f.Filename, "err", err)
		}
	}

	linecov.Aggregate(result.Coverage, regions)
	c.logger.Debug("converted file",
		"file", f.Filename,
		"segments", len(f.Segments),
		"regions", result.Regions,
		"lines", len(result.Coverage.Lines),
		"shrinkwrapped", result.Coverage.Shrinkwrapped)
	return result, nil
}

func (c *Converter) shrinkwrap(ctx context.Context, filename string, regions []types.Region) ([]types.Region, types.BlobID, error) {
	content, err := c.config.Source.Read(ctx, filename)
	if err != nil {
		return nil, types.BlobID{}, err
	}
	if !utf8.Valid(content) || source.IsBinary(content) {
		return nil, types.BlobID{}, ErrNotText
	}

	wrapped, err := textpos.ShrinkwrapAll(string(content), regions)
	if err != nil {
		return nil, types.BlobID{}, err
	}
	return wrapped, types.ComputeBlobID(content), nil
}

// indexedFile pairs a file with its slot in the result slice.
type indexedFile struct {
	index int
	file  llvm.File
}

// Convert converts every file of the export's first data entry.
// Files are converted in parallel; the report is assembled afterwards in
// input order, so a filename reported twice keeps its last entry.
func (c *Converter) Convert(ctx context.Context, exp *llvm.Export) (*Result, error) {
	stats := Stats{IgnoredData: exp.Ignored()}
	if stats.IgnoredData > 0 {
		c.logger.Warn("ignoring extra data entries", "count", stats.IgnoredData)
	}

	var files []llvm.File
	for _, f := range exp.Files() {
		if c.config.Filter.Excluded(f.Filename) {
			stats.Excluded++
			c.logger.Debug("excluded file", "file", f.Filename)
			continue
		}
		files = append(files, f)
	}

	workers := c.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = max(1, min(workers, len(files)))

	results := make([]*FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	filesCh := make(chan indexedFile, workers*2)

	g.Go(func() error {
		defer close(filesCh)
		for i, f := range files {
			select {
			case filesCh <- indexedFile{index: i, file: f}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for item := range filesCh {
				r, err := c.ConvertFile(gctx, item.file)
				if err != nil {
					return fmt.Errorf("converting %s: %w", item.file.Filename, err)
				}
				results[item.index] = r
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := codecov.NewReport()
	for _, r := range results {
		report.AddFile(r.Coverage)
		stats.Files++
		stats.Regions += r.Regions
		if r.Coverage.Shrinkwrapped {
			stats.Shrinkwrapped++
		}
		if r.Fallback != nil {
			stats.Fallbacks++
		}
	}

	return &Result{Report: report, Files: results, Stats: stats}, nil
}
