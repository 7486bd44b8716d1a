package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Excluded(t *testing.T) {
	f := New("/work", "vendor/", "*.h", "  ", "")
	require.NotNil(t, f)
	assert.Equal(t, []string{"vendor/", "*.h"}, f.Patterns())

	tests := []struct {
		filename string
		excluded bool
	}{
		{filename: "/work/vendor/lib.c", excluded: true},
		{filename: "vendor/lib.c", excluded: true},
		{filename: "/work/src/main.c", excluded: false},
		{filename: "src/main.c", excluded: false},
		{filename: "/usr/include/stdio.h", excluded: true},
		{filename: "/work/src/util.h", excluded: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.excluded, f.Excluded(tt.filename))
		})
	}
}

func TestFilter_Nil(t *testing.T) {
	f := New("", "", "   ")
	assert.Nil(t, f)
	assert.False(t, f.Excluded("anything.c"))
	assert.Nil(t, f.Patterns())
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".covignore")
	require.NoError(t, os.WriteFile(path, []byte("# generated code\ngen/\n"), 0644))

	f, err := FromFile(dir, path, "*_test.go")
	require.NoError(t, err)
	assert.True(t, f.Excluded(filepath.Join(dir, "gen", "api.go")))
	assert.True(t, f.Excluded("pkg/x_test.go"))
	assert.False(t, f.Excluded("pkg/x.go"))

	_, err = FromFile(dir, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
