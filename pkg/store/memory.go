package store

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  map[string]*types.Run
	files map[string]map[string]*types.FileSummary // run ID -> filename
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		runs:  make(map[string]*types.Run),
		files: make(map[string]map[string]*types.FileSummary),
	}
}

// AddRun records a new run.
func (m *MemoryStore) AddRun(run *types.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}

	stored := *run
	stored.Files = 0
	m.runs[run.ID] = &stored
	m.files[run.ID] = make(map[string]*types.FileSummary)
	return nil
}

// AddFile stores the line summaries of one converted file.
func (m *MemoryStore) AddFile(runID string, f *types.FileSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	files, ok := m.files[runID]
	if !ok {
		return fmt.Errorf("adding %s: %w", f.Filename, ErrRunNotFound)
	}

	// Deep copy so callers can reuse their summary.
	stored := *f
	stored.Lines = slices.Clone(f.Lines)
	files[f.Filename] = &stored
	return nil
}

// GetRuns lists runs, newest first.
func (m *MemoryStore) GetRuns() ([]*types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Run, 0, len(m.runs))
	for id, run := range m.runs {
		r := *run
		r.Files = len(m.files[id])
		result = append(result, &r)
	}
	slices.SortFunc(result, func(a, b *types.Run) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result, nil
}

// GetRun retrieves one run by ID.
func (m *MemoryStore) GetRun(id string) (*types.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	r := *run
	r.Files = len(m.files[id])
	return &r, nil
}

// LatestRun retrieves the most recently created run.
func (m *MemoryStore) LatestRun() (*types.Run, error) {
	runs, err := m.GetRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return runs[0], nil
}

// GetFiles retrieves a run's files sorted by filename.
func (m *MemoryStore) GetFiles(runID string) ([]*types.FileSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files, ok := m.files[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}

	result := make([]*types.FileSummary, 0, len(files))
	for _, f := range files {
		c := *f
		c.Lines = slices.Clone(f.Lines)
		result = append(result, &c)
	}
	slices.SortFunc(result, func(a, b *types.FileSummary) int {
		return cmp.Compare(a.Filename, b.Filename)
	})
	return result, nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error {
	return nil
}
