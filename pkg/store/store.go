// Package store persists conversion runs so their coverage can be reported
// on later.
package store

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// ErrRunNotFound is returned when no run matches the requested ID, or when
// the store holds no runs at all.
var ErrRunNotFound = errors.New("run not found")

// Store provides persistence for conversion runs.
type Store interface {
	// AddRun records a new run.
	AddRun(run *types.Run) error

	// AddFile stores the line summaries of one converted file. Adding the
	// same filename twice to a run replaces the earlier entry.
	AddFile(runID string, f *types.FileSummary) error

	// GetRuns lists runs, newest first. Files holds each run's file count.
	GetRuns() ([]*types.Run, error)

	// GetRun retrieves one run by ID.
	GetRun(id string) (*types.Run, error)

	// LatestRun retrieves the most recently created run.
	LatestRun() (*types.Run, error)

	// GetFiles retrieves a run's files sorted by filename.
	GetFiles(runID string) ([]*types.FileSummary, error)

	// Close releases the underlying resources.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for a store that lives only as long as the process.
	Path string
}

// New creates a Store. ":memory:" gives a MemoryStore, any other path an
// SQLite database.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
