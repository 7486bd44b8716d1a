// Package source reads the text of files named in a coverage report.
package source

import (
	"bytes"
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a provider has no file by that name.
	ErrNotFound = errors.New("source file not found")

	// ErrTooLarge is returned when a file exceeds the provider's size limit.
	ErrTooLarge = errors.New("source file too large")
)

// Provider returns the full content of a source file by its reported name.
type Provider interface {
	Read(ctx context.Context, filename string) ([]byte, error)
}

// Config for source providers.
type Config struct {
	// Root is the directory relative filenames are resolved against.
	// Empty means the process working directory.
	Root string

	// Revision reads sources from this git revision instead of the working
	// tree. The repository is discovered from Root.
	Revision string

	// MaxFileSize is the maximum file size to read (0 = no limit).
	MaxFileSize int64
}

// New returns the provider described by cfg.
func New(cfg Config) (Provider, error) {
	if cfg.Revision != "" {
		return NewGit(cfg)
	}
	return NewFilesystem(cfg), nil
}

// Static serves sources from memory, keyed by filename.
type Static map[string]string

// Read implements Provider.
func (s Static) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, ok := s[filename]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(text), nil
}

// IsBinary detects binary content by checking the first 8KB for null bytes.
func IsBinary(content []byte) bool {
	checkSize := min(len(content), 8192)
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
