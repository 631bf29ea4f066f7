package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/mrz1836/goalsync/internal/errors"
)

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads values without overriding existing env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("GOALSYNC_TEST_NEW=from-file\nGOALSYNC_TEST_SET=from-file\n"), 0o600))

		t.Setenv("GOALSYNC_TEST_SET", "from-env")
		t.Setenv("GOALSYNC_TEST_NEW", "")
		require.NoError(t, os.Unsetenv("GOALSYNC_TEST_NEW"))

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-file", os.Getenv("GOALSYNC_TEST_NEW"))
		assert.Equal(t, "from-env", os.Getenv("GOALSYNC_TEST_SET"))
	})
}

func TestAPIConfig_Token(t *testing.T) {
	api := &APIConfig{TokenEnv: "GOALSYNC_TEST_TOKEN"}

	t.Run("missing token", func(t *testing.T) {
		t.Setenv("GOALSYNC_TEST_TOKEN", "")
		_, err := api.Token()
		require.ErrorIs(t, err, gserrors.ErrMissingToken)
		assert.Contains(t, err.Error(), "GOALSYNC_TEST_TOKEN")
	})

	t.Run("bare token", func(t *testing.T) {
		t.Setenv("GOALSYNC_TEST_TOKEN", "  abc123  ")
		tok, err := api.Token()
		require.NoError(t, err)
		assert.Equal(t, "abc123", tok)
	})

	t.Run("bearer prefix stripped", func(t *testing.T) {
		t.Setenv("GOALSYNC_TEST_TOKEN", "Bearer abc123")
		tok, err := api.Token()
		require.NoError(t, err)
		assert.Equal(t, "abc123", tok)
	})
}
