package results

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("results: run not found")

// Fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one archived solve: its settings, convergence record and flux vector
// in cell index order.
type Run struct {
	ID         string
	Title      string
	Method     string
	Omega      float64
	Tolerance  float64
	Iterations int
	Converged  bool
	Change     float64
	NX, NY     int
	DX, DY     float64
	Flux       []float64
	CreatedAt  time.Time
}

// Store keeps runs in a single SQLite file
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		title TEXT,
		method TEXT NOT NULL,
		omega REAL,
		tolerance REAL,
		iterations INTEGER NOT NULL,
		converged INTEGER NOT NULL,
		rel_change REAL,
		nx INTEGER NOT NULL,
		ny INTEGER NOT NULL,
		dx REAL,
		dy REAL,
		flux_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := s.db.Exec(runsTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts the run, assigning an ID and timestamp when they are unset
func (s *Store) Save(run *Run) (id string, err error) {
	var flux []byte
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if flux, err = json.Marshal(run.Flux); err != nil {
		return "", fmt.Errorf("failed to encode flux: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO runs
		(id, title, method, omega, tolerance, iterations, converged, rel_change, nx, ny, dx, dy, flux_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Title, run.Method, run.Omega, run.Tolerance, run.Iterations, run.Converged,
		run.Change, run.NX, run.NY, run.DX, run.DY, string(flux), run.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	return run.ID, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner, withFlux bool) (run *Run, err error) {
	var (
		flux, created string
		converged     int
	)
	run = &Run{}
	dest := []any{&run.ID, &run.Title, &run.Method, &run.Omega, &run.Tolerance, &run.Iterations,
		&converged, &run.Change, &run.NX, &run.NY, &run.DX, &run.DY, &created}
	if withFlux {
		dest = append(dest, &flux)
	}
	if err = row.Scan(dest...); err != nil {
		return nil, err
	}
	run.Converged = converged != 0
	if run.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("bad timestamp for run %s: %w", run.ID, err)
	}
	if withFlux {
		if err = json.Unmarshal([]byte(flux), &run.Flux); err != nil {
			return nil, fmt.Errorf("bad flux for run %s: %w", run.ID, err)
		}
	}
	return
}

const runColumns = `id, title, method, omega, tolerance, iterations, converged, rel_change, nx, ny, dx, dy, created_at`

func (s *Store) Load(id string) (run *Run, err error) {
	row := s.db.QueryRow(`SELECT `+runColumns+`, flux_json FROM runs WHERE id = ?`, id)
	if run, err = scanRun(row, true); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return
}

// List returns every run without its flux, oldest first
func (s *Store) List() (runs []*Run, err error) {
	var rows *sql.Rows
	if rows, err = s.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var run *Run
		if run, err = scanRun(rows, false); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
