package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWrite(t *testing.T) {
	t.Run("creates parent directories and file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "nested", "doc.json")

		require.NoError(t, AtomicWrite(path, []byte(`{"a":1}`)))

		data, err := os.ReadFile(path) //#nosec G304 -- test path
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(data))
	})

	t.Run("replaces existing content and leaves no temp file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.json")
		require.NoError(t, AtomicWrite(path, []byte("first")))
		require.NoError(t, AtomicWrite(path, []byte("second")))

		data, err := os.ReadFile(path) //#nosec G304 -- test path
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
		assert.NoFileExists(t, path+".tmp")
	})

	t.Run("stale temp file does not block a write", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.json")
		require.NoError(t, os.WriteFile(path+".tmp", []byte("half-written"), 0o600))

		require.NoError(t, AtomicWrite(path, []byte("whole")))
		data, err := os.ReadFile(path) //#nosec G304 -- test path
		require.NoError(t, err)
		assert.Equal(t, "whole", string(data))
	})

	t.Run("fails when the target is a directory", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "taken")
		require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o750))

		err := AtomicWrite(target, []byte("x"))
		require.Error(t, err)
		assert.NoFileExists(t, target+".tmp")
	})
}

func TestReadIfExists(t *testing.T) {
	dir := t.TempDir()

	data, err := ReadIfExists(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, data)

	path := filepath.Join(dir, "present.json")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	data, err = ReadIfExists(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}
