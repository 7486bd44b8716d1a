// Package filter drops report files by gitignore-style patterns.
package filter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Filter excludes filenames matching any of its patterns.
// A nil *Filter excludes nothing.
type Filter struct {
	patterns []string
	ignore   *gitignore.GitIgnore
	root     string
}

// New compiles patterns. Filenames are matched relative to root when they
// are absolute and inside it, and as reported otherwise.
func New(root string, patterns ...string) *Filter {
	var clean []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	return &Filter{
		patterns: clean,
		ignore:   gitignore.CompileIgnoreLines(clean...),
		root:     root,
	}
}

// FromFile compiles the patterns of an ignore file plus any extra patterns.
func FromFile(root, path string, extra ...string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	lines := strings.Split(string(data), "\n")
	return New(root, append(lines, extra...)...), nil
}

// Excluded reports whether filename should be dropped from the report.
func (f *Filter) Excluded(filename string) bool {
	if f == nil {
		return false
	}

	path := filename
	if f.root != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(f.root, path); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return f.ignore.MatchesPath(filepath.ToSlash(path))
}

// Patterns returns the compiled patterns.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	return f.patterns
}
