package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/praetorian-inc/llvm2codecov/pkg/filter"
	"github.com/praetorian-inc/llvm2codecov/pkg/llvm"
	"github.com/praetorian-inc/llvm2codecov/pkg/logging"
	"github.com/praetorian-inc/llvm2codecov/pkg/region"
	"github.com/praetorian-inc/llvm2codecov/pkg/source"
	"github.com/praetorian-inc/llvm2codecov/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(line, col int, count uint64) types.Segment {
	return types.Segment{Line: line, Column: col, Count: count, HasCount: true, IsRegionEntry: true}
}

func exit(line, col int) types.Segment {
	return types.Segment{Line: line, Column: col}
}

func exportOf(files ...llvm.File) *llvm.Export {
	return &llvm.Export{Type: llvm.ExportType, Data: []llvm.Datum{{Files: files}}}
}

func lineValues(t *testing.T, res *Result, filename string) map[int]any {
	t.Helper()
	file, ok := res.Report.Coverage[filename]
	require.True(t, ok, "missing %s", filename)
	out := make(map[int]any)
	for _, s := range file {
		out[s.Line] = s.Value()
	}
	return out
}

func TestConvert_SingleRegionBlankLine(t *testing.T) {
	src := source.Static{"a.c": "int x = 1;\n\nint y;\n"}
	file := llvm.File{Filename: "a.c", Segments: []types.Segment{entry(1, 1, 7), exit(3, 7)}}

	c := New(Config{Source: src, Shrinkwrap: true})
	res, err := c.Convert(context.Background(), exportOf(file))
	require.NoError(t, err)

	assert.Equal(t, map[int]any{1: uint64(7), 2: uint64(7), 3: uint64(7)}, lineValues(t, res, "a.c"))

	fc := res.Files[0].Coverage
	assert.Equal(t, []types.LineHit{{StartCol: 1, Count: 7}}, fc.Lines[1].Hits)
	assert.Equal(t, []types.LineHit{{Count: 7}}, fc.Lines[2].Hits)
	assert.Equal(t, []types.LineHit{{EndCol: 7, Count: 7}}, fc.Lines[3].Hits)
	assert.True(t, fc.Shrinkwrapped)
	assert.Equal(t, types.ComputeBlobID([]byte("int x = 1;\n\nint y;\n")), fc.SourceID)
}

func TestConvert_ShrinkwrapTrimsTrailingLines(t *testing.T) {
	text := "fn main() {\n    if x {\n        y();\n    }\n}\n\n"
	segs := []types.Segment{
		entry(1, 11, 1),
		entry(2, 10, 0),
		exit(4, 6),
		exit(7, 1),
	}
	file := llvm.File{Filename: "main.rs", Segments: segs}

	raw, err := New(Config{}).Convert(context.Background(), exportOf(file))
	require.NoError(t, err)
	assert.Equal(t, map[int]any{
		1: uint64(1),
		2: "1/2",
		3: uint64(0),
		4: "1/2",
		5: uint64(1),
		6: uint64(1),
		7: uint64(1),
	}, lineValues(t, raw, "main.rs"))

	wrapped, err := New(Config{Source: source.Static{"main.rs": text}, Shrinkwrap: true}).
		Convert(context.Background(), exportOf(file))
	require.NoError(t, err)
	assert.Equal(t, map[int]any{
		1: uint64(1),
		2: "1/2",
		3: uint64(0),
		4: uint64(0),
		5: uint64(1),
	}, lineValues(t, wrapped, "main.rs"))
	assert.Equal(t, 1, wrapped.Stats.Shrinkwrapped)
}

func TestConvert_SkipsGapRegions(t *testing.T) {
	gap := types.Segment{Line: 2, Column: 1, HasCount: true, IsRegionEntry: true, IsGapRegion: true}
	file := llvm.File{Filename: "g.c", Segments: []types.Segment{entry(1, 1, 3), exit(1, 9), gap, exit(3, 1)}}

	res, err := New(Config{}).Convert(context.Background(), exportOf(file))
	require.NoError(t, err)
	assert.Equal(t, map[int]any{1: uint64(3)}, lineValues(t, res, "g.c"))
}

func TestConvert_SourceFallbacks(t *testing.T) {
	file := func(name string) llvm.File {
		return llvm.File{Filename: name, Segments: []types.Segment{entry(1, 1, 2), exit(3, 1)}}
	}
	src := source.Static{
		"binary.c": "int\x00x;\n\n",
		"latin1.c": "caf\xe9\n\n",
		"short.c":  "x\n",
		"good.c":   "x;\n\n",
	}

	var logs bytes.Buffer
	c := New(Config{
		Source:     src,
		Shrinkwrap: true,
		Logger:     logging.New(&logs, logging.LevelWarn, logging.FormatText),
	})
	res, err := c.Convert(context.Background(), exportOf(
		file("missing.c"), file("binary.c"), file("latin1.c"), file("short.c"), file("good.c"),
	))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Stats.Files)
	assert.Equal(t, 4, res.Stats.Fallbacks)
	assert.Equal(t, 1, res.Stats.Shrinkwrapped)

	assert.ErrorIs(t, res.Files[0].Fallback, source.ErrNotFound)
	assert.ErrorIs(t, res.Files[1].Fallback, ErrNotText)
	assert.ErrorIs(t, res.Files[2].Fallback, ErrNotText)
	assert.Error(t, res.Files[3].Fallback)
	assert.NoError(t, res.Files[4].Fallback)

	// Raw boundaries still produce coverage for every line of the region.
	assert.Equal(t, map[int]any{1: uint64(2), 2: uint64(2), 3: uint64(2)}, lineValues(t, res, "missing.c"))
	// The shrinkwrapped file stops at the last character of code.
	assert.Equal(t, map[int]any{1: uint64(2)}, lineValues(t, res, "good.c"))
	assert.False(t, res.Files[0].Coverage.Shrinkwrapped)
	assert.True(t, res.Files[0].Coverage.SourceID.IsZero())

	assert.Contains(t, logs.String(), "file=missing.c")
	assert.Contains(t, logs.String(), "using raw region boundaries")
}

func TestConvert_Unbalanced(t *testing.T) {
	good := llvm.File{Filename: "ok.c", Segments: []types.Segment{entry(1, 1, 1), exit(2, 1)}}
	bad := llvm.File{Filename: "bad.c", Segments: []types.Segment{exit(1, 1)}}

	_, err := New(Config{Workers: 2}).Convert(context.Background(), exportOf(good, bad))
	require.Error(t, err)
	assert.ErrorIs(t, err, region.ErrUnbalanced)
	assert.Contains(t, err.Error(), "bad.c")
}

func TestConvert_Strict(t *testing.T) {
	open := llvm.File{Filename: "open.c", Segments: []types.Segment{entry(1, 1, 1), entry(1, 5, 0), exit(1, 9)}}

	res, err := New(Config{}).Convert(context.Background(), exportOf(open))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Regions)

	_, err = New(Config{Strict: true}).Convert(context.Background(), exportOf(open))
	assert.ErrorIs(t, err, region.ErrUnclosed)
}

func TestConvert_Excluded(t *testing.T) {
	keep := llvm.File{Filename: "src/a.c", Segments: []types.Segment{entry(1, 1, 1), exit(1, 4)}}
	drop := llvm.File{Filename: "vendor/b.c", Segments: []types.Segment{entry(1, 1, 1), exit(1, 4)}}

	c := New(Config{Filter: filter.New("", "vendor/")})
	res, err := c.Convert(context.Background(), exportOf(keep, drop))
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.c"}, res.Report.Filenames())
	assert.Equal(t, 1, res.Stats.Excluded)
	assert.Equal(t, 1, res.Stats.Files)
}

func TestConvert_IgnoresExtraData(t *testing.T) {
	exp := exportOf(llvm.File{Filename: "a.c", Segments: []types.Segment{entry(1, 1, 1), exit(1, 2)}})
	exp.Data = append(exp.Data, llvm.Datum{Files: []llvm.File{{Filename: "b.c"}}})

	res, err := New(Config{}).Convert(context.Background(), exp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c"}, res.Report.Filenames())
	assert.Equal(t, 1, res.Stats.IgnoredData)
}

func TestConvert_ParallelMatchesSequential(t *testing.T) {
	var files []llvm.File
	src := source.Static{}
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("f%02d.c", i)
		src[name] = "int f() {\n  return 1;\n}\n\nint g() { return 0; }\n"
		files = append(files, llvm.File{Filename: name, Segments: []types.Segment{
			entry(1, 9, uint64(i)),
			exit(4, 1),
			entry(5, 9, uint64(i%3)),
			exit(5, 22),
		}})
	}

	encode := func(workers int, input []llvm.File) string {
		res, err := New(Config{Source: src, Shrinkwrap: true, Workers: workers}).
			Convert(context.Background(), exportOf(input...))
		require.NoError(t, err)
		data, err := json.Marshal(res.Report)
		require.NoError(t, err)
		return string(data)
	}

	sequential := encode(1, files)
	assert.Equal(t, sequential, encode(8, files))

	reversed := make([]llvm.File, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}
	assert.Equal(t, sequential, encode(4, reversed))
}

func TestConvert_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	file := llvm.File{Filename: "a.c", Segments: []types.Segment{entry(1, 1, 1), exit(1, 2)}}
	_, err := New(Config{Source: source.Static{"a.c": "x"}, Shrinkwrap: true}).Convert(ctx, exportOf(file))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertFile_NoSegments(t *testing.T) {
	r, err := New(Config{Source: source.Static{}, Shrinkwrap: true}).
		ConvertFile(context.Background(), llvm.File{Filename: "empty.c"})
	require.NoError(t, err)
	assert.Empty(t, r.Coverage.Lines)
	assert.NoError(t, r.Fallback)
}
