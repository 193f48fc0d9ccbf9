/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements store.AssessmentStore using SQLite. The HTTP server persists
  every assessment it runs so it can be listed, fetched and replayed.

INTERFACES IMPLEMENTED:
  store.AssessmentStore: assessment history

KEY TABLES:
  assessments: one row per assessment, request and result as JSON

INDEXES:
  - idx_assessments_created_at: newest-first listing (hot path)
  - idx_assessments_period:     period filter

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is pinned to a
  single connection, since every new connection to ":memory:" would open a
  fresh, empty database.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging) so readers do not
  block the single writer.

USAGE:
  st, err := sqlite.New("./data/flyingstar.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  rec, err := st.Save(ctx, store.Record{...})

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Interface definition
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/qiflow/flyingstar/store"
	"github.com/qiflow/flyingstar/xuankong"
)

// Store implements store.AssessmentStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.AssessmentStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	st := &Store{db: db}
	if err := st.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		facing_degrees REAL NOT NULL,
		period INTEGER NOT NULL,
		overall_score TEXT NOT NULL,
		request_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_created_at
		ON assessments(created_at DESC, id);
	CREATE INDEX IF NOT EXISTS idx_assessments_period
		ON assessments(period);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSESSMENTS
// =============================================================================

// Save inserts a record, replacing any record with the same ID.
func (s *Store) Save(ctx context.Context, rec store.Record) (store.Record, error) {
	rec = store.Prepare(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO assessments (id, facing_degrees, period, overall_score, request_json, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			facing_degrees = excluded.facing_degrees,
			period = excluded.period,
			overall_score = excluded.overall_score,
			request_json = excluded.request_json,
			result_json = excluded.result_json
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.FacingDegrees, int(rec.Period),
		rec.OverallScore.String(),
		string(rec.Request), string(rec.Result),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to save assessment: %w", err)
	}
	return rec, nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, id string) (store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, facing_degrees, period, overall_score, request_json, result_json, created_at
		FROM assessments WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return store.Record{}, store.ErrAssessmentNotFound
	}
	if err != nil {
		return store.Record{}, err
	}
	return rec, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, filter store.ListFilter) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, facing_degrees, period, overall_score, request_json, result_json, created_at
		FROM assessments`
	var args []any
	if filter.Period != 0 {
		query += " WHERE period = ?"
		args = append(args, int(filter.Period))
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []store.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM assessments WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAssessmentNotFound
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (store.Record, error) {
	var rec store.Record
	var period int
	var score, request, result, createdAt string

	if err := sc.Scan(&rec.ID, &rec.FacingDegrees, &period, &score, &request, &result, &createdAt); err != nil {
		return store.Record{}, err
	}

	rec.Period = xuankong.Period(period)
	rec.OverallScore, _ = decimal.NewFromString(score)
	rec.Request = []byte(request)
	rec.Result = []byte(result)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}
