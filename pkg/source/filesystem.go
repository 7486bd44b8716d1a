package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem reads sources from the working tree.
type Filesystem struct {
	config Config
}

// NewFilesystem creates a working-tree provider.
func NewFilesystem(cfg Config) *Filesystem {
	return &Filesystem{config: cfg}
}

// Read implements Provider. Absolute filenames are used as they are;
// relative ones are joined to the configured root.
func (p *Filesystem) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filename
	if !filepath.IsAbs(path) && p.config.Root != "" {
		path = filepath.Join(p.config.Root, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}
	if p.config.MaxFileSize > 0 && info.Size() > p.config.MaxFileSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrTooLarge)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return content, nil
}
