// Package ledger records per-task outcomes so an interrupted or partially
// failed run can be resumed without recreating goals.
//
// Two stores are provided: JSONStore, a single document rewritten atomically
// on every outcome, and SQLiteStore, one row per task. Both follow the same
// merge rule: a success is never overwritten, and error or skipped records
// replace each other.
//
// Import rules:
//   - CAN import: internal/clock, internal/constants, internal/domain,
//     internal/errors, internal/flock, internal/fsutil, std lib
//   - MUST NOT import: internal/batch, internal/cli
package ledger

import (
	"context"
	"fmt"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Ledger is the durable record of task outcomes.
type Ledger interface {
	// RecordOutcome durably merges one record. It returns only after the
	// record is on disk.
	RecordOutcome(ctx context.Context, rec domain.ProgressRecord) error

	// LoadCompleted returns the keys of every successful task.
	LoadCompleted(ctx context.Context) (map[string]struct{}, error)

	// Snapshot returns everything the ledger holds.
	Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error)

	// Close releases any resources held by the store.
	Close() error
}

// Open returns the store for backend at path.
func Open(backend, path string, clk clock.Clock) (Ledger, error) {
	switch backend {
	case "", BackendJSON:
		return OpenJSONStore(path, clk)
	case BackendSQLite:
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: ledger backend %q", errors.ErrInvalidArgument, backend)
	}
}

// OpenReadOnly returns the store for backend at path for reading only.
// Nothing on disk is created or modified.
func OpenReadOnly(backend, path string, clk clock.Clock) (Ledger, error) {
	if backend == BackendSQLite {
		return OpenSQLiteStoreReadOnly(path)
	}
	return Open(backend, path, clk)
}

// checkRecord rejects records that must never reach the ledger.
func checkRecord(rec domain.ProgressRecord) error {
	if rec.TaskID == "" {
		return fmt.Errorf("%w: task id", errors.ErrEmptyValue)
	}
	switch rec.Status {
	case domain.StatusSuccess, domain.StatusError, domain.StatusSkipped:
		return nil
	default:
		return fmt.Errorf("%w: status %q cannot be recorded", errors.ErrInvalidArgument, rec.Status)
	}
}
