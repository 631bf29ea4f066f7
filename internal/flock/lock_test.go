//go:build unix

package flock_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/flock"
)

func TestAcquire(t *testing.T) {
	t.Run("creates missing directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "progress.json.lock")

		lock, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
		assert.FileExists(t, path)
	})

	t.Run("times out while another holder has the lock", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.lock")

		held, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		defer func() { _ = held.Release() }()

		_, err = flock.Acquire(context.Background(), path, 100*time.Millisecond)
		require.ErrorIs(t, err, gserrors.ErrLockTimeout)
	})

	t.Run("reacquires after release", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.lock")

		first, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, first.Release())

		second, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, second.Release())
	})

	t.Run("honors canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := flock.Acquire(ctx, filepath.Join(t.TempDir(), "x.lock"), time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("release is nil safe and idempotent", func(t *testing.T) {
		var nilLock *flock.Lock
		require.NoError(t, nilLock.Release())

		lock, err := flock.Acquire(context.Background(), filepath.Join(t.TempDir(), "y.lock"), time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
		require.NoError(t, lock.Release())
	})
}
