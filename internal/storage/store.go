package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divijg19/hw2/internal/core"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Store provides SQLite-backed persistence for simulation runs.
type Store struct {
	db *sql.DB
}

const appStateKeyLastRunID = "last_run_id"

// New returns a Store bound to an existing database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db}, nil
}

// CreateRun records a new run with its initial population as step 0 and returns its ID.
func (s *Store) CreateRun(label string, initial []core.Agent) (uuid.UUID, error) {
	if s == nil {
		return uuid.Nil, fmt.Errorf("create run: store is nil")
	}
	if s.db == nil {
		return uuid.Nil, fmt.Errorf("create run: db is nil")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return uuid.Nil, fmt.Errorf("create run: label is empty")
	}

	id := uuid.New()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("create run: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`INSERT INTO runs (id, label, created_at, steps) VALUES (?, ?, ?, 0)`, id.String(), label, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create run: insert: %w", err)
	}

	if err := insertSnapshot(tx, id, 0, initial); err != nil {
		return uuid.Nil, fmt.Errorf("create run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("create run: commit: %w", err)
	}
	slog.Debug("created run", "run", id, "label", label, "agents", len(initial))
	return id, nil
}

// AppendStep stores the population after the given step and bumps the run's step count.
func (s *Store) AppendStep(runID uuid.UUID, step int, agents []core.Agent) error {
	if s == nil {
		return fmt.Errorf("append step: store is nil")
	}
	if s.db == nil {
		return fmt.Errorf("append step: db is nil")
	}
	if runID == uuid.Nil {
		return fmt.Errorf("append step: invalid run ID")
	}
	if step <= 0 {
		return fmt.Errorf("append step: step must be > 0")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append step: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var steps int
	err = tx.QueryRow(`SELECT steps FROM runs WHERE id = ?`, runID.String()).Scan(&steps)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("append step: run %s: %w", runID, ErrNotFound)
		}
		return fmt.Errorf("append step: read run: %w", err)
	}
	if step != steps+1 {
		return fmt.Errorf("append step: expected step %d, got %d", steps+1, step)
	}

	if err := insertSnapshot(tx, runID, step, agents); err != nil {
		return fmt.Errorf("append step: %w", err)
	}

	_, err = tx.Exec(`UPDATE runs SET steps = ? WHERE id = ?`, step, runID.String())
	if err != nil {
		return fmt.Errorf("append step: update run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append step: commit: %w", err)
	}
	return nil
}

func insertSnapshot(tx *sql.Tx, runID uuid.UUID, step int, agents []core.Agent) error {
	stmt, err := tx.Prepare(`INSERT INTO snapshots (run_id, step, position, name, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	for position, agent := range agents {
		if !agent.Category.Valid() {
			return fmt.Errorf("insert snapshot: agent %q: %w", agent.Name, core.ErrUnknownCondition)
		}
		_, err = stmt.Exec(runID.String(), step, position, agent.Name, string(agent.Category))
		if err != nil {
			return fmt.Errorf("insert snapshot: step %d position %d: %w", step, position, err)
		}
	}
	return nil
}

// GetRun returns the run metadata and every stored snapshot ordered by step.
func (s *Store) GetRun(id uuid.UUID) (core.Run, [][]core.Agent, error) {
	if s == nil {
		return core.Run{}, nil, fmt.Errorf("get run: store is nil")
	}
	if s.db == nil {
		return core.Run{}, nil, fmt.Errorf("get run: db is nil")
	}
	if id == uuid.Nil {
		return core.Run{}, nil, fmt.Errorf("get run: invalid run ID")
	}

	var run core.Run
	var idStr, createdAtStr string
	err := s.db.QueryRow(`SELECT id, label, created_at, steps FROM runs WHERE id = ?`, id.String()).
		Scan(&idStr, &run.Label, &createdAtStr, &run.Steps)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Run{}, nil, fmt.Errorf("get run: %s: %w", id, ErrNotFound)
		}
		return core.Run{}, nil, fmt.Errorf("get run: scan: %w", err)
	}
	run, err = finishRun(run, idStr, createdAtStr)
	if err != nil {
		return core.Run{}, nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.db.Query(`SELECT step, name, category FROM snapshots WHERE run_id = ? ORDER BY step ASC, position ASC`, id.String())
	if err != nil {
		return core.Run{}, nil, fmt.Errorf("get run: query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([][]core.Agent, run.Steps+1)
	for rows.Next() {
		var step int
		var agent core.Agent
		var categoryStr string
		if err := rows.Scan(&step, &agent.Name, &categoryStr); err != nil {
			return core.Run{}, nil, fmt.Errorf("get run: scan snapshot: %w", err)
		}
		if step < 0 || step > run.Steps {
			return core.Run{}, nil, fmt.Errorf("get run: snapshot step %d outside 0..%d", step, run.Steps)
		}
		agent.Category = core.Condition(categoryStr)
		snapshots[step] = append(snapshots[step], agent)
	}
	if err := rows.Err(); err != nil {
		return core.Run{}, nil, fmt.Errorf("get run: snapshot rows: %w", err)
	}

	return run, snapshots, nil
}

// ListRunsByPagination returns a page of runs, newest first.
func (s *Store) ListRunsByPagination(limit, offset int) ([]core.Run, error) {
	if s == nil {
		return nil, fmt.Errorf("list runs: store is nil")
	}
	if s.db == nil {
		return nil, fmt.Errorf("list runs: db is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("list runs: limit must be > 0")
	}
	if offset < 0 {
		return nil, fmt.Errorf("list runs: offset must be >= 0")
	}

	rows, err := s.db.Query(`SELECT id, label, created_at, steps
	                         FROM runs
	                         ORDER BY created_at DESC, id ASC
	                         LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: query: %w", err)
	}
	defer rows.Close()

	runs := make([]core.Run, 0, limit)
	for rows.Next() {
		var run core.Run
		var idStr, createdAtStr string
		if err := rows.Scan(&idStr, &run.Label, &createdAtStr, &run.Steps); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		run, err = finishRun(run, idStr, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: rows: %w", err)
	}
	return runs, nil
}

func finishRun(run core.Run, idStr, createdAtStr string) (core.Run, error) {
	var err error
	run.ID, err = uuid.Parse(idStr)
	if err != nil {
		return core.Run{}, fmt.Errorf("parse id: %w", err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return core.Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	return run, nil
}

// DeleteRun permanently deletes a run and its snapshots.
func (s *Store) DeleteRun(id uuid.UUID) error {
	if s == nil {
		return fmt.Errorf("delete run: store is nil")
	}
	if s.db == nil {
		return fmt.Errorf("delete run: db is nil")
	}
	if id == uuid.Nil {
		return fmt.Errorf("delete run: invalid run ID")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete run: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`DELETE FROM snapshots WHERE run_id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete run: delete snapshots: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete run: delete run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete run: %s: %w", id, ErrNotFound)
	}

	_, err = tx.Exec(`DELETE FROM app_state WHERE key = ? AND value = ?`, appStateKeyLastRunID, id.String())
	if err != nil {
		return fmt.Errorf("delete run: clear last run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete run: commit: %w", err)
	}
	return nil
}

// SetLastRunID remembers id as the most recent run.
func (s *Store) SetLastRunID(id uuid.UUID) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("set last run: store/db is nil")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO app_state(key, value, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		appStateKeyLastRunID,
		id.String(),
		now,
	)
	if err != nil {
		return fmt.Errorf("set last run: upsert: %w", err)
	}
	return nil
}

// LastRunID returns the most recent run ID, or ErrNotFound if none is recorded.
func (s *Store) LastRunID() (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, fmt.Errorf("last run: store/db is nil")
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, appStateKeyLastRunID).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("last run: %w", ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("last run: query: %w", err)
	}
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("last run: parse: %w", err)
	}
	return id, nil
}

// ResolveRunID accepts a full run ID or a unique prefix of one.
func (s *Store) ResolveRunID(ref string) (uuid.UUID, error) {
	if s == nil || s.db == nil {
		return uuid.Nil, fmt.Errorf("resolve run: store/db is nil")
	}
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return uuid.Nil, fmt.Errorf("resolve run: empty reference")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	if !isRunIDPrefix(ref) {
		return uuid.Nil, fmt.Errorf("resolve run: %q is not a run ID prefix", ref)
	}

	rows, err := s.db.Query(`SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(ref), ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve run: query: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return uuid.Nil, fmt.Errorf("resolve run: scan: %w", err)
		}
		matches = append(matches, idStr)
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("resolve run: rows: %w", err)
	}

	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("resolve run: %q: %w", ref, ErrNotFound)
	case 1:
		return uuid.Parse(matches[0])
	default:
		return uuid.Nil, fmt.Errorf("resolve run: %q is ambiguous", ref)
	}
}

// isRunIDPrefix reports whether ref only holds characters of a canonical
// lower-case UUID.
func isRunIDPrefix(ref string) bool {
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r == '-':
		default:
			return false
		}
	}
	return true
}
