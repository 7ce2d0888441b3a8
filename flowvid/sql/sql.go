// Package sql persists endpoint error statistics in a SQLite database so
// that runs over different estimators or parameters can be compared.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnknownRun is returned for run ids the store has never seen.
var ErrUnknownRun = errors.New("unknown run")

// Scanner is a function that scans a row into a value.
type Scanner[T any] func(*sql.Rows) (T, error)

// Query executes a query and scans every row.
func Query[T any](ctx context.Context, db *sql.DB, query string, scanner Scanner[T], args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Transaction executes fn within a database transaction. If fn returns an
// error the transaction is rolled back, otherwise it is committed.
func Transaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	preset     TEXT NOT NULL,
	started_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS frames (
	run_id TEXT NOT NULL REFERENCES runs(id),
	idx    INTEGER NOT NULL,
	width  INTEGER NOT NULL,
	height INTEGER NOT NULL,
	mean   REAL NOT NULL,
	max    REAL NOT NULL,
	stddev REAL NOT NULL,
	median REAL NOT NULL,
	PRIMARY KEY (run_id, idx)
);`

// Store is a SQLite database of runs and their per-frame statistics.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn, any DSN accepted by
// go-sqlite3 such as a file path or ":memory:".
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying database for ad hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// Run is one recorded pipeline execution.
type Run struct {
	ID      uuid.UUID
	Preset  string
	Started time.Time
}

// BeginRun registers a new run of preset and returns it.
func (s *Store) BeginRun(ctx context.Context, preset string) (Run, error) {
	r := Run{ID: uuid.New(), Preset: preset, Started: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, preset, started_at) VALUES (?, ?, ?)`,
		r.ID.String(), r.Preset, r.Started.Format(time.RFC3339Nano))
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var id, started string
	var r Run
	if err := rows.Scan(&id, &r.Preset, &started); err != nil {
		return Run{}, err
	}
	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return Run{}, err
	}
	if r.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, err
	}
	return r, nil
}

// Runs lists every run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	return Query(ctx, s.db, `SELECT id, preset, started_at FROM runs ORDER BY started_at, id`, scanRun)
}

func (s *Store) checkRun(ctx context.Context, id uuid.UUID) error {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, id.String()).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	return nil
}

// Frames returns the statistics recorded for a run, in frame order.
func (s *Store) Frames(ctx context.Context, id uuid.UUID) ([]FrameStats, error) {
	if err := s.checkRun(ctx, id); err != nil {
		return nil, err
	}
	return Query(ctx, s.db,
		`SELECT idx, width, height, mean, max, stddev, median FROM frames WHERE run_id = ? ORDER BY idx`,
		func(rows *sql.Rows) (FrameStats, error) {
			var f FrameStats
			err := rows.Scan(&f.Index, &f.Width, &f.Height, &f.Mean, &f.Max, &f.StdDev, &f.Median)
			return f, err
		}, id.String())
}
