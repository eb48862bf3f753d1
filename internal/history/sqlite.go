package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/pubtime/internal/schedule"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		entry_id TEXT NOT NULL,
		previous INTEGER,
		scheduled INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		revision TEXT,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assignments_entry ON assignments(entry_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_run ON assignments(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores records in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO assignments (run_id, entry_id, previous, scheduled, status, error, revision, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var prev sql.NullInt64
		if r.Previous != nil {
			prev = sql.NullInt64{Int64: r.Previous.Unix(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.EntryID, prev, r.Scheduled.Unix(), string(r.Status), r.Error, r.Revision, r.RecordedAt.Unix(),
		); err != nil {
			return fmt.Errorf("insert record for %s: %w", r.EntryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns records matching q, newest first.
func (s *SQLiteStore) List(ctx context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if q.EntryID != "" {
		where = append(where, "entry_id = ?")
		args = append(args, q.EntryID)
	}
	if q.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, q.RunID)
	}

	query := "SELECT id, run_id, entry_id, previous, scheduled, status, error, revision, recorded_at FROM assignments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                     Record
			errText, revision     sql.NullString
			prevUnix              sql.NullInt64
			scheduled, recordedAt int64
			status                string
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.EntryID, &prevUnix, &scheduled, &status, &errText, &revision, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		if prevUnix.Valid {
			t := time.Unix(prevUnix.Int64, 0).UTC()
			r.Previous = &t
		}
		r.Scheduled = time.Unix(scheduled, 0).UTC()
		r.RecordedAt = time.Unix(recordedAt, 0).UTC()
		r.Status = schedule.Status(status)
		r.Error = errText.String
		r.Revision = revision.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
