// Package store keeps a history of planning runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded planning run.
type Run struct {
	ID            string
	BatchID       string
	Problem       string
	Domain        string
	PlanLength    int
	Failed        bool
	Duration      time.Duration
	NodesExpanded int
	Error         string
	CreatedAt     time.Time
}

// SqlStore records runs in a SQLite database.
type SqlStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates a SQLite DB at path and creates the schema.
// The parent directory is created if it does not exist. ":memory:" opens
// a private in-memory database.
func Open(path string) (*SqlStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case v != schemaVersion:
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// SaveRuns records runs in one transaction. A zero CreatedAt is stamped
// with the current time.
func (s *SqlStore) SaveRuns(ctx context.Context, runs []Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO runs
		(id, batch_id, problem, domain, plan_length, failed, duration_sec, nodes_expanded, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range runs {
		created := r.CreatedAt
		if created.IsZero() {
			created = s.now()
		}
		var errText sql.NullString
		if r.Error != "" {
			errText = sql.NullString{String: r.Error, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.BatchID, r.Problem, r.Domain, r.PlanLength, boolInt(r.Failed),
			r.Duration.Seconds(), r.NodesExpanded, errText, created.UTC().Format(timeLayout)); err != nil {
			return fmt.Errorf("insert run %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *SqlStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, batch_id, problem, domain, plan_length, failed,
		duration_sec, nodes_expanded, error, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			failed  int
			secs    float64
			errText sql.NullString
			created string
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Problem, &r.Domain, &r.PlanLength, &failed,
			&secs, &r.NodesExpanded, &errText, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Failed = failed != 0
		r.Duration = time.Duration(secs * float64(time.Second))
		if errText.Valid {
			r.Error = errText.String
		}
		if t, err := time.Parse(timeLayout, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FailureRate returns the fraction of recorded runs that failed, and the
// number of runs it was computed over.
func (s *SqlStore) FailureRate(ctx context.Context) (float64, int, error) {
	var total, failed int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(failed), 0) FROM runs").Scan(&total, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("failure rate: %w", err)
	}
	if total == 0 {
		return 0, 0, nil
	}
	return float64(failed) / float64(total), total, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
