package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/domain"
	gserrors "github.com/mrz1836/goalsync/internal/errors"
)

var testStart = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func rec(id string, status domain.ProgressStatus, reason, remoteID string) domain.ProgressRecord {
	return domain.ProgressRecord{TaskID: id, Status: status, Reason: reason, RemoteID: remoteID, Timestamp: testStart}
}

// stores runs fn against each backend.
func stores(t *testing.T, fn func(t *testing.T, l Ledger)) {
	t.Helper()

	t.Run("json", func(t *testing.T) {
		l, err := OpenJSONStore(filepath.Join(t.TempDir(), "progress.json"), clock.NewFake(testStart))
		require.NoError(t, err)
		defer func() { _ = l.Close() }()
		fn(t, l)
	})

	t.Run("sqlite", func(t *testing.T) {
		l, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "progress.db"))
		require.NoError(t, err)
		defer func() { _ = l.Close() }()
		fn(t, l)
	})
}

func TestLedger_SuccessIsNeverOverwritten(t *testing.T) {
	stores(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "987")))
		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusError, "HTTP 500: boom", "")))
		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSkipped, "product not found", "")))

		snap, err := l.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, snap.Completed)
		assert.Empty(t, snap.Failed)
		assert.Empty(t, snap.Skipped)
		assert.Equal(t, map[string]string{"A": "987"}, snap.RemoteIDs)
	})
}

func TestLedger_ErrorThenSuccess(t *testing.T) {
	stores(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusError, "HTTP 422: bad", "")))
		require.NoError(t, l.RecordOutcome(ctx, rec("B", domain.StatusSkipped, "no keywords found", "")))

		done, err := l.LoadCompleted(ctx)
		require.NoError(t, err)
		assert.Empty(t, done)

		snap, err := l.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snap.Failed, 1)
		assert.Equal(t, "A", snap.Failed[0].TaskID)
		assert.Equal(t, "HTTP 422: bad", snap.Failed[0].Reason)
		require.Len(t, snap.Skipped, 1)
		assert.Equal(t, "no keywords found", snap.Skipped[0].Reason)

		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "55")))
		done, err = l.LoadCompleted(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"A": {}}, done)

		snap, err = l.Snapshot(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Failed)
		assert.Len(t, snap.Skipped, 1)
	})
}

func TestLedger_ErrorReplacesSkip(t *testing.T) {
	stores(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSkipped, "product not found", "")))
		require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusError, "HTTP 400: nope", "")))

		snap, err := l.Snapshot(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Skipped)
		require.Len(t, snap.Failed, 1)
		assert.Equal(t, "HTTP 400: nope", snap.Failed[0].Reason)
	})
}

func TestLedger_RejectsUnrecordableStatus(t *testing.T) {
	stores(t, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		err := l.RecordOutcome(ctx, rec("A", domain.StatusPlanned, "", ""))
		require.ErrorIs(t, err, gserrors.ErrInvalidArgument)

		err = l.RecordOutcome(ctx, rec("", domain.StatusSuccess, "", ""))
		require.ErrorIs(t, err, gserrors.ErrEmptyValue)
	})
}

func TestJSONStore_Document(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	clk := clock.NewFake(testStart)
	l, err := OpenJSONStore(path, clk)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "987")))
	require.NoError(t, l.RecordOutcome(ctx, rec("B", domain.StatusError, "HTTP 500: boom", "")))

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1.0", doc["schema_version"])
	assert.Equal(t, []any{"A"}, doc["completed"])
	assert.Equal(t, map[string]any{"A": "987"}, doc["remote_ids"])
	assert.Equal(t, "2026-10-15T09:00:00Z", doc["updated_at"])
	assert.Equal(t, []any{}, doc["skipped"])

	failed, ok := doc["failed"].([]any)
	require.True(t, ok)
	require.Len(t, failed, 1)
	assert.Equal(t, map[string]any{
		"id":        "B",
		"reason":    "HTTP 500: boom",
		"timestamp": "2026-10-15T09:00:00Z",
	}, failed[0])
}

func TestJSONStore_SurvivesInterruptedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	l, err := OpenJSONStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "1")))

	// A process killed mid-write leaves only a partial temp file behind.
	require.NoError(t, os.WriteFile(path+".tmp", []byte(`{"schema_version":"1.0","compl`), 0o600))

	reopened, err := OpenJSONStore(path, nil)
	require.NoError(t, err)
	done, err := reopened.LoadCompleted(ctx)
	require.NoError(t, err)
	assert.Contains(t, done, "A")

	// The next write replaces the stale temp file.
	require.NoError(t, reopened.RecordOutcome(ctx, rec("B", domain.StatusSuccess, "", "2")))
	done, err = reopened.LoadCompleted(ctx)
	require.NoError(t, err)
	assert.Len(t, done, 2)
}

func TestJSONStore_MergesWithOtherWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	first, err := OpenJSONStore(path, nil)
	require.NoError(t, err)
	second, err := OpenJSONStore(path, nil)
	require.NoError(t, err)

	require.NoError(t, first.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "")))
	require.NoError(t, second.RecordOutcome(ctx, rec("B", domain.StatusSuccess, "", "")))

	done, err := first.LoadCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"A": {}, "B": {}}, done)
}

func TestJSONStore_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenJSONStore(path, nil)
	require.ErrorIs(t, err, gserrors.ErrLedgerCorrupted)
}

func TestJSONStore_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the document should be makes the rename fail.
	path := filepath.Join(dir, "progress.json")
	l, err := OpenJSONStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(path, 0o750))

	err = l.RecordOutcome(context.Background(), rec("A", domain.StatusSuccess, "", ""))
	require.Error(t, err)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.db")
	ctx := context.Background()

	l, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "1")))
	require.NoError(t, l.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	done, err := reopened.LoadCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"A": {}}, done)

	snap, err := reopened.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, testStart.Equal(snap.UpdatedAt))
}

func TestSQLiteStore_ReadOnlyLeavesFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "progress.db")
	ctx := context.Background()

	l, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, l.RecordOutcome(ctx, rec("A", domain.StatusSuccess, "", "1")))
	require.NoError(t, l.RecordOutcome(ctx, rec("B", domain.StatusError, "HTTP 400: nope", "")))
	require.NoError(t, l.Close())

	before := dirState(t, dir)

	ro, err := OpenReadOnly(BackendSQLite, path, nil)
	require.NoError(t, err)

	done, err := ro.LoadCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"A": {}}, done)

	snap, err := ro.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Failed, 1)
	assert.Equal(t, "B", snap.Failed[0].TaskID)

	err = ro.RecordOutcome(ctx, rec("C", domain.StatusSuccess, "", "3"))
	require.ErrorIs(t, err, gserrors.ErrLedgerWrite)
	require.NoError(t, ro.Close())

	assert.Equal(t, before, dirState(t, dir))
}

func TestSQLiteStore_ReadOnlyMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenSQLiteStoreReadOnly(filepath.Join(dir, "progress.db"))
	require.ErrorIs(t, err, gserrors.ErrLedgerCorrupted)
	assert.Empty(t, dirState(t, dir))
}

// dirState maps each file in dir to its size and modification time.
func dirState(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	state := make(map[string]string, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		require.NoError(t, err)
		state[e.Name()] = fmt.Sprintf("%d@%s", info.Size(), info.ModTime().Format(time.RFC3339Nano))
	}
	return state
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	l, err := Open(BackendJSON, filepath.Join(dir, "progress.json"), nil)
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, l)

	l, err = Open(BackendSQLite, filepath.Join(dir, "progress.db"), nil)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, l)
	require.NoError(t, l.Close())

	_, err = Open("redis", filepath.Join(dir, "x"), nil)
	require.ErrorIs(t, err, gserrors.ErrInvalidArgument)
}
