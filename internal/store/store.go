// Package store records runs in an optional SQLite artefact: run metadata,
// the aggregated grid cells and per-frame statistics. The schema is managed
// by embedded migrations.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/location.report/internal/frames"
	"github.com/banshee-data/location.report/internal/grid"
	"github.com/banshee-data/location.report/internal/timeutil"
	"github.com/banshee-data/location.report/internal/version"
)

// Run kinds.
const (
	KindGrid    = "grid"
	KindHeatmap = "heatmap"
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store is a migrated SQLite database.
type Store struct {
	*sql.DB
	Clock timeutil.Clock
}

// Run is one recorded invocation.
type Run struct {
	ID         uuid.UUID
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Params     json.RawMessage
	Version    string
}

// Open opens or creates the database at path and migrates it.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{DB: db, Clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return s, nil
}

// BeginRun records the start of a run with its parameters as JSON.
func (s *Store) BeginRun(kind string, params any) (Run, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return Run{}, fmt.Errorf("encode run params: %w", err)
	}
	run := Run{
		ID:        uuid.New(),
		Kind:      kind,
		StartedAt: s.Clock.Now().UTC().Truncate(time.Second),
		Params:    data,
		Version:   version.String(),
	}
	_, err = s.Exec(
		`INSERT INTO runs (run_id, kind, started_at, params, version) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), run.Kind, run.StartedAt.Unix(), string(run.Params), run.Version,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the end time of a run.
func (s *Store) FinishRun(id uuid.UUID) error {
	res, err := s.Exec(`UPDATE runs SET finished_at = ? WHERE run_id = ?`, s.Clock.Now().UTC().Unix(), id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun loads one run.
func (s *Store) GetRun(id uuid.UUID) (Run, error) {
	var (
		run      Run
		rawID    string
		started  int64
		finished sql.NullInt64
		params   string
	)
	err := s.QueryRow(
		`SELECT run_id, kind, started_at, finished_at, params, version FROM runs WHERE run_id = ?`, id.String(),
	).Scan(&rawID, &run.Kind, &started, &finished, &params, &run.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	if run.ID, err = uuid.Parse(rawID); err != nil {
		return Run{}, fmt.Errorf("run %q: %w", rawID, err)
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		run.FinishedAt = time.Unix(finished.Int64, 0).UTC()
	}
	run.Params = json.RawMessage(params)
	return run, nil
}

// InsertCells stores every cell of totals, AllActivities included, in one
// transaction and returns the number of rows written.
func (s *Store) InsertCells(id uuid.UUID, totals grid.Totals) (n int, err error) {
	tx, err := s.Begin()
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO grid_cells (run_id, activity_type, lat, lng, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, typ := range totals.Types() {
		for cell, count := range totals[typ] {
			if _, err = stmt.Exec(id.String(), typ, cell.Lat, cell.Lng, count); err != nil {
				return n, fmt.Errorf("insert %s cell %v: %w", typ, cell, err)
			}
			n++
		}
	}
	err = tx.Commit()
	return n, err
}

// CellCounts loads the counts of one activity type of a run.
func (s *Store) CellCounts(id uuid.UUID, activityType string) (grid.Counts, error) {
	rows, err := s.Query(
		`SELECT lat, lng, count FROM grid_cells WHERE run_id = ? AND activity_type = ?`, id.String(), activityType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(grid.Counts)
	for rows.Next() {
		var (
			c grid.Cell
			n int
		)
		if err := rows.Scan(&c.Lat, &c.Lng, &n); err != nil {
			return nil, err
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

// InsertFrame stores the statistics of one rendered frame.
func (s *Store) InsertFrame(id uuid.UUID, sum frames.Summary, file string) error {
	_, err := s.Exec(`
		INSERT INTO frames (run_id, frame_index, label, baseline, empty, processed, skipped,
			min_value, mean_value, max_value, file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), sum.Index, sum.Label, sum.Baseline, sum.Empty, sum.Processed, sum.Skipped,
		sum.Min, sum.Mean, sum.Max, file,
	)
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", sum.Index, err)
	}
	return nil
}

// Frames loads the frame statistics of a run in frame order.
func (s *Store) Frames(id uuid.UUID) ([]frames.Summary, error) {
	rows, err := s.Query(`
		SELECT frame_index, label, baseline, empty, processed, skipped, min_value, mean_value, max_value
		FROM frames WHERE run_id = ? ORDER BY frame_index`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []frames.Summary
	for rows.Next() {
		var f frames.Summary
		if err := rows.Scan(&f.Index, &f.Label, &f.Baseline, &f.Empty, &f.Processed, &f.Skipped,
			&f.Min, &f.Mean, &f.Max); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
