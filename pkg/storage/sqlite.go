// Package storage persists finished traces in SQLite so recorded runs can
// be reloaded and scrubbed later without re-running the simulator.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/WebSims/jstrace/pkg/trace"
)

// ErrNotFound reports a run ID with no stored trace.
var ErrNotFound = errors.New("storage: run not found")

// TraceStore is a SQLite-backed archive of recorded runs. Run IDs live in
// the metadata row only; the steps stay a pure function of the program.
type TraceStore struct {
	db *sql.DB
}

// Open opens (or creates) the trace database at path.
func Open(path string) (*TraceStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	// SQLite works best over a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: initialize schema: %w", err)
	}
	return &TraceStore{db: db}, nil
}

func (s *TraceStore) Close() error {
	return s.db.Close()
}

// RunMeta is the stored metadata of one run.
type RunMeta struct {
	ID        string
	Label     string
	Outcome   trace.Outcome
	StepCount int
	CreatedAt time.Time
}

// SaveTrace stores a finished trace under a fresh run ID and returns it.
func (s *TraceStore) SaveTrace(ctx context.Context, label string, tr *trace.Trace) (string, error) {
	steps, err := json.Marshal(tr.Steps)
	if err != nil {
		return "", fmt.Errorf("storage: marshal steps: %w", err)
	}
	var errVal []byte
	if tr.ErrorValue != nil {
		errVal, err = json.Marshal(tr.ErrorValue)
		if err != nil {
			return "", fmt.Errorf("storage: marshal error value: %w", err)
		}
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label, outcome, step_count, error_value, steps, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, label, string(tr.Outcome), len(tr.Steps), errVal, steps, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: insert run: %w", err)
	}
	return id, nil
}

// LoadTrace reloads a stored trace by run ID.
func (s *TraceStore) LoadTrace(ctx context.Context, id string) (*trace.Trace, error) {
	var outcome string
	var errVal, steps []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT outcome, error_value, steps FROM runs WHERE id = ?`, id,
	).Scan(&outcome, &errVal, &steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load run %s: %w", id, err)
	}
	tr := &trace.Trace{Outcome: trace.Outcome(outcome)}
	if err := json.Unmarshal(steps, &tr.Steps); err != nil {
		return nil, fmt.Errorf("storage: unmarshal steps: %w", err)
	}
	if len(errVal) > 0 {
		tr.ErrorValue = &trace.ValueSnapshot{}
		if err := json.Unmarshal(errVal, tr.ErrorValue); err != nil {
			return nil, fmt.Errorf("storage: unmarshal error value: %w", err)
		}
	}
	return tr, nil
}

// LoadStepsJSON returns the stored steps exactly as persisted, for byte
// round-trip checks and for piping to downstream UIs.
func (s *TraceStore) LoadStepsJSON(ctx context.Context, id string) ([]byte, error) {
	var steps []byte
	err := s.db.QueryRowContext(ctx, `SELECT steps FROM runs WHERE id = ?`, id).Scan(&steps)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load run %s: %w", id, err)
	}
	return steps, nil
}

// ListRuns returns run metadata, newest first.
func (s *TraceStore) ListRuns(ctx context.Context, limit int) ([]RunMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, outcome, step_count, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunMeta
	for rows.Next() {
		var m RunMeta
		var outcome string
		if err := rows.Scan(&m.ID, &m.Label, &outcome, &m.StepCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		m.Outcome = trace.Outcome(outcome)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate runs: %w", err)
	}
	return out, nil
}

// DeleteRun removes a stored run.
func (s *TraceStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete run %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
