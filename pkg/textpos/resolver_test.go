package textpos

import (
	"testing"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "fn main() {\n    let x = 1;\n}\n"

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		pos  types.Position
		want int
	}{
		{name: "start of text", pos: types.Pos(1, 1), want: 0},
		{name: "mid first line", pos: types.Pos(1, 4), want: 3},
		{name: "start of second line", pos: types.Pos(2, 1), want: 12},
		{name: "indented code", pos: types.Pos(2, 5), want: 16},
		{name: "on the newline", pos: types.Pos(1, 12), want: 11},
		{name: "closing brace", pos: types.Pos(3, 1), want: 27},
		{name: "end of text", pos: types.Pos(4, 1), want: len(sample)},
		{name: "column past end of line", pos: types.Pos(1, 40), want: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := Resolve(sample, []types.Position{tt.pos})
			require.NoError(t, err)

			got, ok := ix.Offset(tt.pos)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_Batch(t *testing.T) {
	positions := []types.Position{
		types.Pos(3, 1), types.Pos(1, 1), types.Pos(2, 5), types.Pos(1, 1), types.Pos(2, 15),
	}

	ix, err := Resolve(sample, positions)
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Len(), "duplicates collapse")

	again, err := Resolve(sample, positions)
	require.NoError(t, err)

	for _, p := range positions {
		a, ok := ix.Offset(p)
		require.True(t, ok)
		b, ok := again.Offset(p)
		require.True(t, ok)
		assert.Equal(t, a, b, "resolution of %s is deterministic", p)
	}

	off, _ := ix.Offset(types.Pos(2, 15))
	assert.Equal(t, 26, off)

	_, ok := ix.Offset(types.Pos(9, 9))
	assert.False(t, ok, "unrequested positions are not in the index")
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve(sample, []types.Position{types.Pos(1, 1), types.Pos(7, 1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPositionNotFound)
	assert.Contains(t, err.Error(), "7:1")
}

func TestResolve_EmptyText(t *testing.T) {
	ix, err := Resolve("", []types.Position{types.Pos(1, 1)})
	require.NoError(t, err)
	off, ok := ix.Offset(types.Pos(1, 1))
	require.True(t, ok)
	assert.Equal(t, 0, off)

	_, err = Resolve("", []types.Position{types.Pos(1, 2)})
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestResolve_MultiByte(t *testing.T) {
	// "é" is two bytes but one column.
	text := "é = 1\nx"
	ix, err := Resolve(text, []types.Position{types.Pos(1, 2), types.Pos(2, 1)})
	require.NoError(t, err)

	off, _ := ix.Offset(types.Pos(1, 2))
	assert.Equal(t, 2, off)
	off, _ = ix.Offset(types.Pos(2, 1))
	assert.Equal(t, 7, off)
}

func TestRegionSpans(t *testing.T) {
	regions := []types.Region{
		{Start: types.Pos(1, 1), End: types.Pos(2, 5)},
		{Start: types.Pos(2, 5), End: types.Pos(2, 15)},
		{Start: types.Pos(2, 15), End: types.Pos(4, 1)},
	}

	spans, err := RegionSpans(sample, regions)
	require.NoError(t, err)
	require.Len(t, spans, 3)

	assert.Equal(t, "fn main() {\n    ", sample[spans[0].Start:spans[0].End])
	assert.Equal(t, "let x = 1;", sample[spans[1].Start:spans[1].End])
	assert.Equal(t, "\n}\n", sample[spans[2].Start:spans[2].End])
	assert.Equal(t, 10, spans[1].Len())
}
