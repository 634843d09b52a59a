// Package store persists crossing runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/nvr-ai/go-linecount/crossing"
)

// Logf is the package-level diagnostic logger.
var Logf func(format string, v ...interface{}) = log.Printf

// Store is a SQLite database of runs, their counters and their events.
type Store struct {
	db *sql.DB
}

// Run summarizes one processed stream.
type Run struct {
	ID        uuid.UUID
	Source    string
	StartedAt time.Time
	Frames    int
	Counters  map[string]int
}

// Open opens (or creates) the database at path and applies the migrations.
//
// Arguments:
//   - path: The database file.
//
// Returns:
//   - *Store: The store. The caller must Close it.
//   - error: If the database cannot be opened or migrated.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores a run with its events in one transaction. A zero run id is
// replaced by a new random one.
//
// Arguments:
//   - ctx: The context.
//   - run: The run summary.
//   - events: The events in emission order.
//
// Returns:
//   - uuid.UUID: The id of the stored run.
//   - error: If the transaction fails.
func (s *Store) SaveRun(ctx context.Context, run Run, events []crossing.CrossingEvent) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at, frames) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Source, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Frames,
	); err != nil {
		return uuid.Nil, errors.Wrap(err, "insert run")
	}

	for dir, n := range run.Counters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_counters (run_id, direction, count) VALUES (?, ?, ?)`,
			run.ID.String(), dir, n,
		); err != nil {
			return uuid.Nil, errors.Wrapf(err, "insert counter %s", dir)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO crossing_events (run_id, seq, track_id, timestamp, direction) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "prepare event insert")
	}
	defer stmt.Close()
	for i, e := range events {
		if _, err := stmt.ExecContext(ctx, run.ID.String(), i, e.TrackID, e.FormatTimestamp(), e.Direction.String()); err != nil {
			return uuid.Nil, errors.Wrapf(err, "insert event %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, errors.Wrap(err, "commit")
	}
	return run.ID, nil
}

// Events returns the events of a run in emission order.
func (s *Store) Events(ctx context.Context, runID uuid.UUID) ([]crossing.CrossingEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id, timestamp, direction FROM crossing_events WHERE run_id = ? ORDER BY seq`,
		runID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []crossing.CrossingEvent
	for rows.Next() {
		var (
			e        crossing.CrossingEvent
			ts, dirs string
		)
		if err := rows.Scan(&e.TrackID, &ts, &dirs); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		if e.Timestamp, err = time.ParseInLocation(crossing.TimestampLayout, ts, time.UTC); err != nil {
			return nil, errors.Wrap(err, "parse event timestamp")
		}
		if e.Direction, err = crossing.ParseDirection(dirs); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, errors.Wrap(rows.Err(), "iterate events")
}

// GetRun returns a stored run and its counters.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (Run, error) {
	run := Run{ID: runID, Counters: map[string]int{}}

	var started string
	err := s.db.QueryRowContext(ctx,
		`SELECT source, started_at, frames FROM runs WHERE id = ?`, runID.String(),
	).Scan(&run.Source, &started, &run.Frames)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, errors.Errorf("run %s not found", runID)
	}
	if err != nil {
		return Run{}, errors.Wrap(err, "query run")
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, errors.Wrap(err, "parse run start")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT direction, count FROM run_counters WHERE run_id = ?`, runID.String())
	if err != nil {
		return Run{}, errors.Wrap(err, "query counters")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			dir string
			n   int
		)
		if err := rows.Scan(&dir, &n); err != nil {
			return Run{}, errors.Wrap(err, "scan counter")
		}
		run.Counters[dir] = n
	}
	return run, errors.Wrap(rows.Err(), "iterate counters")
}

// RunIDs returns the ids of all stored runs, oldest first.
func (s *Store) RunIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "scan run id")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parse run id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterate runs")
}
