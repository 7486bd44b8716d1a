package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/llvm2codecov/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCodecov = `{"coverage": {"a.c": {"1": 2, "2": 0, "3": "1/2"}, "b.c": {"4": 1}}}`

func TestRunReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codecov.json")
	require.NoError(t, os.WriteFile(path, []byte(testCodecov), 0644))

	stdout, _ := resetCommand(t, reportCmd)
	require.NoError(t, reportCmd.Flags().Set("color", "never"))

	require.NoError(t, runReport(reportCmd, []string{path}))
	out := stdout.String()
	assert.Contains(t, out, "a.c")
	assert.Contains(t, out, "33.33%")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "50.00%")
	assert.NotContains(t, out, "\x1b[")
}

func TestRunReport_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codecov.json")
	require.NoError(t, os.WriteFile(path, []byte(testCodecov), 0644))

	stdout, _ := resetCommand(t, reportCmd)
	require.NoError(t, reportCmd.Flags().Set("format", "json"))

	require.NoError(t, runReport(reportCmd, []string{path}))

	var decoded struct {
		Total struct {
			Lines   int     `json:"lines"`
			Hit     int     `json:"hit"`
			Percent float64 `json:"percent"`
		} `json:"total"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, 4, decoded.Total.Lines)
	assert.Equal(t, 2, decoded.Total.Hit)
	assert.Equal(t, 50.0, decoded.Total.Percent)
}

func TestRunReport_LatestRun(t *testing.T) {
	dir, input := fixture(t)
	db := filepath.Join(dir, "runs.db")

	resetCommand(t, convertCmd)
	require.NoError(t, convertCmd.Flags().Set("datastore", db))
	require.NoError(t, convertCmd.Flags().Set("source-root", dir))
	require.NoError(t, runConvert(convertCmd, []string{input}))

	stdout, _ := resetCommand(t, reportCmd)
	require.NoError(t, reportCmd.Flags().Set("datastore", db))
	require.NoError(t, reportCmd.Flags().Set("color", "never"))

	require.NoError(t, runReport(reportCmd, nil))
	out := stdout.String()
	assert.Contains(t, out, "Run ")
	assert.Contains(t, out, "main.c")
	assert.Contains(t, out, "vendor/dep.c")
}

func TestRunReport_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codecov.json")
	require.NoError(t, os.WriteFile(path, []byte(testCodecov), 0644))

	tests := []struct {
		name  string
		flags map[string]string
		args  []string
	}{
		{name: "no input"},
		{name: "both inputs", flags: map[string]string{"datastore": filepath.Join(dir, "runs.db")}, args: []string{path}},
		{name: "bad format", flags: map[string]string{"format": "xml"}, args: []string{path}},
		{name: "bad color", flags: map[string]string{"color": "rainbow"}, args: []string{path}},
		{name: "missing datastore", flags: map[string]string{"datastore": filepath.Join(dir, "absent.db")}},
		{name: "memory datastore", flags: map[string]string{"datastore": ":memory:"}},
		{name: "missing file", args: []string{filepath.Join(dir, "absent.json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCommand(t, reportCmd)
			for k, v := range tt.flags {
				require.NoError(t, reportCmd.Flags().Set(k, v))
			}
			assert.Error(t, runReport(reportCmd, tt.args))
		})
	}
}

func TestRunRuns_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	s, err := store.NewSQLite(db)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	stdout, _ := resetCommand(t, runsCmd)
	require.NoError(t, runsCmd.Flags().Set("datastore", db))
	require.NoError(t, runRuns(runsCmd, nil))
	assert.Contains(t, stdout.String(), "No runs recorded")
}

func TestRunRuns_NoDatastore(t *testing.T) {
	resetCommand(t, runsCmd)
	assert.Error(t, runRuns(runsCmd, nil))
}
