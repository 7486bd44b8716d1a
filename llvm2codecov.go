// Package llvm2codecov converts llvm-cov export reports into Codecov line
// coverage.
//
// # Basic Usage
//
// Convert an export read from disk, aligning regions against the source
// files found relative to the working directory:
//
//	f, err := os.Open("coverage.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	report, err := llvm2codecov.Convert(ctx, f)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.Encode(os.Stdout)
//
// # Options
//
// Region boundaries are trimmed to the code they cover by default. Use
// WithoutShrinkwrap to keep the raw boundaries, WithSourceRoot or WithSource
// to read sources from elsewhere, and WithExclude to drop files:
//
//	report, err := llvm2codecov.Convert(ctx, f,
//	    llvm2codecov.WithSourceRoot("/build/src"),
//	    llvm2codecov.WithExclude("vendor/", "*.pb.cc"),
//	    llvm2codecov.WithWorkers(8),
//	)
package llvm2codecov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/praetorian-inc/llvm2codecov/pkg/codecov"
	"github.com/praetorian-inc/llvm2codecov/pkg/config"
	"github.com/praetorian-inc/llvm2codecov/pkg/convert"
	"github.com/praetorian-inc/llvm2codecov/pkg/filter"
	"github.com/praetorian-inc/llvm2codecov/pkg/llvm"
	"github.com/praetorian-inc/llvm2codecov/pkg/source"
)

// Re-export commonly used types for convenience.
type (
	// Report is Codecov line coverage keyed by filename.
	Report = codecov.Report

	// Provider supplies source text for shrinkwrapping.
	Provider = source.Provider
)

type options struct {
	workers    int
	source     Provider
	sourceRoot string
	shrinkwrap bool
	strict     bool
	exclude    []string
	logger     *slog.Logger
}

// Option configures a conversion.
type Option func(*options)

// WithWorkers sets the number of files converted concurrently.
// Default is runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSource reads source text from p.
func WithSource(p Provider) Option {
	return func(o *options) {
		o.source = p
	}
}

// WithSourceRoot resolves relative filenames against root instead of the
// working directory.
func WithSourceRoot(root string) Option {
	return func(o *options) {
		o.sourceRoot = root
	}
}

// WithoutShrinkwrap keeps region boundaries as reported.
func WithoutShrinkwrap() Option {
	return func(o *options) {
		o.shrinkwrap = false
	}
}

// WithStrict rejects files whose segments leave regions open.
func WithStrict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// WithExclude drops files matching the gitignore-style patterns.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithLogger receives per-file warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newConverter(opts []Option) (*convert.Converter, error) {
	o := &options{shrinkwrap: true}
	for _, opt := range opts {
		opt(o)
	}

	if o.shrinkwrap && o.source == nil {
		p, err := source.New(source.Config{Root: o.sourceRoot, MaxFileSize: config.DefaultMaxFileSize})
		if err != nil {
			return nil, fmt.Errorf("creating source provider: %w", err)
		}
		o.source = p
	}

	return convert.New(convert.Config{
		Source:     o.source,
		Shrinkwrap: o.shrinkwrap,
		Strict:     o.strict,
		Workers:    o.workers,
		Filter:     filter.New(o.sourceRoot, o.exclude...),
		Logger:     o.logger,
	}), nil
}

// Convert reads an llvm-cov export from r and returns its line coverage.
func Convert(ctx context.Context, r io.Reader, opts ...Option) (*Report, error) {
	c, err := newConverter(opts)
	if err != nil {
		return nil, err
	}

	exp, err := llvm.Decode(r)
	if err != nil {
		return nil, err
	}

	res, err := c.Convert(ctx, exp)
	if err != nil {
		return nil, err
	}
	return res.Report, nil
}

// ConvertFile converts the llvm-cov export stored at path.
func ConvertFile(ctx context.Context, path string, opts ...Option) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	return Convert(ctx, f, opts...)
}
