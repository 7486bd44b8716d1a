package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/praetorian-inc/llvm2codecov/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddRun records a new run.
func (s *SQLiteStore) AddRun(run *types.Run) error {
	_, err := s.db.Exec("INSERT INTO runs (id, input, created_at) VALUES (?, ?, ?)",
		run.ID, run.Input, run.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// AddFile stores the line summaries of one converted file.
func (s *SQLiteStore) AddFile(runID string, f *types.FileSummary) error {
	if _, err := s.GetRun(runID); err != nil {
		return fmt.Errorf("adding %s: %w", f.Filename, err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM lines WHERE run_id = ? AND filename = ?", runID, f.Filename); err != nil {
		return fmt.Errorf("clearing lines: %w", err)
	}

	var sourceID any
	if !f.SourceID.IsZero() {
		sourceID = f.SourceID.Hex()
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO files (run_id, filename, source_id, shrinkwrapped)
		VALUES (?, ?, ?, ?)
	`, runID, f.Filename, sourceID, f.Shrinkwrapped)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO lines (run_id, filename, line, covered, total, count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing lines: %w", err)
	}
	defer stmt.Close()

	for _, l := range f.Lines {
		if _, err := stmt.Exec(runID, f.Filename, l.Line, l.Covered, l.Total, int64(l.Count)); err != nil {
			return fmt.Errorf("inserting line %d: %w", l.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const runColumns = `
	SELECT r.id, r.input, r.created_at,
	       (SELECT COUNT(*) FROM files f WHERE f.run_id = r.id)
	FROM runs r
`

func scanRun(row interface{ Scan(...any) error }) (*types.Run, error) {
	var run types.Run
	var created int64
	if err := row.Scan(&run.ID, &run.Input, &created, &run.Files); err != nil {
		return nil, err
	}
	run.CreatedAt = time.Unix(0, created).UTC()
	return &run, nil
}

// GetRuns lists runs, newest first.
func (s *SQLiteStore) GetRuns() ([]*types.Run, error) {
	rows, err := s.db.Query(runColumns + " ORDER BY r.created_at DESC, r.id")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun retrieves one run by ID.
func (s *SQLiteStore) GetRun(id string) (*types.Run, error) {
	run, err := scanRun(s.db.QueryRow(runColumns+" WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// LatestRun retrieves the most recently created run.
func (s *SQLiteStore) LatestRun() (*types.Run, error) {
	run, err := scanRun(s.db.QueryRow(runColumns + " ORDER BY r.created_at DESC, r.id LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	return run, nil
}

// GetFiles retrieves a run's files sorted by filename.
func (s *SQLiteStore) GetFiles(runID string) ([]*types.FileSummary, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT filename, source_id, shrinkwrapped FROM files
		WHERE run_id = ? ORDER BY filename
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}

	var files []*types.FileSummary
	byName := make(map[string]*types.FileSummary)
	for rows.Next() {
		var f types.FileSummary
		if err := rows.Scan(&f.Filename, &f.SourceID, &f.Shrinkwrapped); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, &f)
		byName[f.Filename] = &f
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	lines, err := s.db.Query(`
		SELECT filename, line, covered, total, count FROM lines
		WHERE run_id = ? ORDER BY filename, line
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying lines: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var filename string
		var l types.LineSummary
		var count int64
		if err := lines.Scan(&filename, &l.Line, &l.Covered, &l.Total, &count); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		l.Count = uint64(count)
		if f, ok := byName[filename]; ok {
			f.Lines = append(f.Lines, l)
		}
	}
	return files, lines.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
