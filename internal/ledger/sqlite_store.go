package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/fsutil"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS progress (
	task_id    TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	remote_id  TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_progress_status ON progress(status);
`

// A success row is never touched again.
const upsertProgress = `
INSERT INTO progress (task_id, status, reason, remote_id, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(task_id) DO UPDATE SET
	status     = excluded.status,
	reason     = excluded.reason,
	remote_id  = CASE WHEN excluded.remote_id <> '' THEN excluded.remote_id ELSE progress.remote_id END,
	updated_at = excluded.updated_at
WHERE progress.status <> 'success'
`

// SQLiteStore is a Ledger with one row per task.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	readOnly bool
}

// OpenSQLiteStore opens (or creates) the database at path. Pass ":memory:"
// for an in-memory database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), fsutil.DirPerm); err != nil {
			return nil, fmt.Errorf("%w: creating ledger directory: %w", errors.ErrLedgerWrite, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", errors.ErrLedgerCorrupted, err)
	}

	// One connection avoids "database is locked" between our own statements.
	db.SetMaxOpenConns(1)

	// Rollback journaling leaves no side files behind once a write commits,
	// so read-only opens find a single self-contained database file.
	if err := execAll(db, path,
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = DELETE",
		"PRAGMA synchronous = FULL",
		sqliteSchema,
	); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// OpenSQLiteStoreReadOnly opens an existing database without creating or
// changing anything on disk. RecordOutcome fails on the returned store.
func OpenSQLiteStoreReadOnly(path string) (*SQLiteStore, error) {
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", errors.ErrLedgerCorrupted, err)
	}
	db.SetMaxOpenConns(1)

	if err := execAll(db, path, "PRAGMA busy_timeout = 5000"); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, path: path, readOnly: true}, nil
}

func execAll(db *sql.DB, path string, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("%w: %s: %w", errors.ErrLedgerCorrupted, path, err)
		}
	}
	return nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// RecordOutcome implements Ledger.
func (s *SQLiteStore) RecordOutcome(ctx context.Context, rec domain.ProgressRecord) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	if s.readOnly {
		return fmt.Errorf("%w: %s is open read-only", errors.ErrLedgerWrite, s.path)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", errors.ErrLedgerWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, upsertProgress,
		rec.TaskID,
		string(rec.Status),
		rec.Reason,
		rec.RemoteID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", errors.ErrLedgerWrite, rec.TaskID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", errors.ErrLedgerWrite, err)
	}
	return nil
}

// LoadCompleted implements Ledger.
func (s *SQLiteStore) LoadCompleted(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id FROM progress WHERE status = 'success'`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
	}
	defer func() { _ = rows.Close() }()

	done := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
		}
		done[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
	}
	return done, nil
}

// Snapshot implements Ledger. Rows are returned in first-recorded order.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, status, reason, remote_id, updated_at FROM progress ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
	}
	defer func() { _ = rows.Close() }()

	snap := &domain.LedgerSnapshot{
		Completed: []string{},
		Failed:    []domain.ProgressRecord{},
		Skipped:   []domain.ProgressRecord{},
		RemoteIDs: map[string]string{},
	}
	for rows.Next() {
		var (
			rec     domain.ProgressRecord
			status  string
			updated string
		)
		if err := rows.Scan(&rec.TaskID, &status, &rec.Reason, &rec.RemoteID, &updated); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
		}
		rec.Status = domain.ProgressStatus(status)
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("%w: %s timestamp: %w", errors.ErrLedgerCorrupted, rec.TaskID, err)
		}
		if rec.Timestamp.After(snap.UpdatedAt) {
			snap.UpdatedAt = rec.Timestamp
		}
		if rec.RemoteID != "" {
			snap.RemoteIDs[rec.TaskID] = rec.RemoteID
		}

		switch rec.Status {
		case domain.StatusSuccess:
			snap.Completed = append(snap.Completed, rec.TaskID)
		case domain.StatusError:
			snap.Failed = append(snap.Failed, rec)
		case domain.StatusSkipped:
			snap.Skipped = append(snap.Skipped, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
	}
	return snap, nil
}

// Close implements Ledger.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Ledger = (*SQLiteStore)(nil)
