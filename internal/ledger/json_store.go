package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/constants"
	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/flock"
	"github.com/mrz1836/goalsync/internal/fsutil"
)

// document is the on-disk ledger.
//
//	{
//	  "schema_version": "1.0",
//	  "completed": ["B07Y5L9WLP"],
//	  "failed": [{"id": "B08...", "reason": "HTTP 422: ...", "timestamp": "..."}],
//	  "skipped": [{"id": "B09...", "reason": "product not found", "timestamp": "..."}],
//	  "remote_ids": {"B07Y5L9WLP": "98765"},
//	  "updated_at": "..."
//	}
type document struct {
	SchemaVersion string            `json:"schema_version"`
	Completed     []string          `json:"completed"`
	Failed        []entry           `json:"failed"`
	Skipped       []entry           `json:"skipped"`
	RemoteIDs     map[string]string `json:"remote_ids"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type entry struct {
	ID        string    `json:"id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func newDocument() *document {
	return &document{
		SchemaVersion: constants.LedgerSchemaVersion,
		Completed:     []string{},
		Failed:        []entry{},
		Skipped:       []entry{},
		RemoteIDs:     map[string]string{},
	}
}

// apply merges rec into the document and reports whether anything changed.
func (d *document) apply(rec domain.ProgressRecord) bool {
	if slices.Contains(d.Completed, rec.TaskID) {
		return false
	}

	isID := func(e entry) bool { return e.ID == rec.TaskID }
	e := entry{ID: rec.TaskID, Reason: rec.Reason, Timestamp: rec.Timestamp.UTC()}

	switch rec.Status {
	case domain.StatusSuccess:
		d.Completed = append(d.Completed, rec.TaskID)
		d.Failed = slices.DeleteFunc(d.Failed, isID)
		d.Skipped = slices.DeleteFunc(d.Skipped, isID)
		if rec.RemoteID != "" {
			d.RemoteIDs[rec.TaskID] = rec.RemoteID
		}
	case domain.StatusError:
		d.Skipped = slices.DeleteFunc(d.Skipped, isID)
		d.Failed = upsert(d.Failed, e)
	case domain.StatusSkipped:
		d.Failed = slices.DeleteFunc(d.Failed, isID)
		d.Skipped = upsert(d.Skipped, e)
	default:
		return false
	}
	return true
}

func upsert(list []entry, e entry) []entry {
	if i := slices.IndexFunc(list, func(x entry) bool { return x.ID == e.ID }); i >= 0 {
		list[i] = e
		return list
	}
	return append(list, e)
}

func (d *document) snapshot() *domain.LedgerSnapshot {
	toRecords := func(list []entry, status domain.ProgressStatus) []domain.ProgressRecord {
		out := make([]domain.ProgressRecord, 0, len(list))
		for _, e := range list {
			out = append(out, domain.ProgressRecord{
				TaskID:    e.ID,
				Status:    status,
				Reason:    e.Reason,
				RemoteID:  d.RemoteIDs[e.ID],
				Timestamp: e.Timestamp,
			})
		}
		return out
	}
	return &domain.LedgerSnapshot{
		Completed: slices.Clone(d.Completed),
		Failed:    toRecords(d.Failed, domain.StatusError),
		Skipped:   toRecords(d.Skipped, domain.StatusSkipped),
		RemoteIDs: maps.Clone(d.RemoteIDs),
		UpdatedAt: d.UpdatedAt,
	}
}

// JSONStore is a Ledger persisted as one JSON document. Every write takes
// the file lock, re-reads the document, merges and atomically replaces it.
type JSONStore struct {
	path  string
	clock clock.Clock
	mu    sync.Mutex
}

// OpenJSONStore returns a store for the document at path. The document is
// read eagerly so corruption is reported before a run starts.
func OpenJSONStore(path string, clk clock.Clock) (*JSONStore, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if _, err := readDocument(path); err != nil {
		return nil, err
	}
	return &JSONStore{path: path, clock: clk}, nil
}

// Path returns the document location.
func (s *JSONStore) Path() string {
	return s.path
}

func readDocument(path string) (*document, error) {
	data, err := fsutil.ReadIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrLedgerCorrupted, err)
	}
	doc := newDocument()
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrLedgerCorrupted, path, err)
	}
	if doc.RemoteIDs == nil {
		doc.RemoteIDs = map[string]string{}
	}
	return doc, nil
}

// RecordOutcome implements Ledger.
func (s *JSONStore) RecordOutcome(ctx context.Context, rec domain.ProgressRecord) error {
	if err := checkRecord(rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := flock.Acquire(ctx, s.path+constants.LockFileSuffix, constants.LockTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrLedgerWrite, err)
	}
	defer func() { _ = lock.Release() }()

	doc, err := readDocument(s.path)
	if err != nil {
		return err
	}
	if !doc.apply(rec) {
		return nil
	}
	doc.SchemaVersion = constants.LedgerSchemaVersion
	doc.UpdatedAt = s.clock.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrLedgerWrite, err)
	}
	if err := fsutil.AtomicWrite(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrLedgerWrite, err)
	}
	return nil
}

// LoadCompleted implements Ledger.
func (s *JSONStore) LoadCompleted(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument(s.path)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(doc.Completed))
	for _, id := range doc.Completed {
		done[id] = struct{}{}
	}
	return done, nil
}

// Snapshot implements Ledger.
func (s *JSONStore) Snapshot(_ context.Context) (*domain.LedgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readDocument(s.path)
	if err != nil {
		return nil, err
	}
	return doc.snapshot(), nil
}

// Close implements Ledger.
func (s *JSONStore) Close() error {
	return nil
}

var _ Ledger = (*JSONStore)(nil)
