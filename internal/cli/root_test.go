package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/goalsync/internal/errors"
)

func TestRootCmd_Help(t *testing.T) {
	t.Parallel()

	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "goalsync")
	assert.Contains(t, output, "PERPETUA_TOKEN")
	for _, want := range []string{"--output", "--verbose", "--quiet", "--config", "--version"} {
		assert.Contains(t, output, want)
	}
	for _, sub := range []string{"run", "status", "cache", "tasks", "version"} {
		assert.Contains(t, output, sub)
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		info           BuildInfo
		expectContains []string
	}{
		{
			name:           "full version info",
			info:           BuildInfo{Version: "1.0.0", Commit: "abc1234", Date: "2026-10-01"},
			expectContains: []string{"1.0.0", "abc1234", "2026-10-01"},
		},
		{
			name:           "default dev version",
			info:           BuildInfo{},
			expectContains: []string{"dev", "none", "unknown"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cmd := newRootCmd(&GlobalFlags{}, tc.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"--version"})

			require.NoError(t, cmd.Execute())
			for _, expected := range tc.expectContains {
				assert.Contains(t, buf.String(), expected)
			}
		})
	}
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"status", "--output", "yaml"})

	err := cmd.Execute()
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_VerboseQuietExclusive(t *testing.T) {
	newTestEnv(t, nil)

	_, err := execute(t, "status", "--verbose", "--quiet")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.2.3 (commit: abc, built: today)", formatVersion(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"}))
	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
}

func TestVersionCommand(t *testing.T) {
	newTestEnv(t, nil)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "goalsync test (commit: none, built: unknown)\n", out)

	out, err = execute(t, "version", "--output", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, map[string]string{"version": "test", "commit": "none", "date": "unknown"}, info)
}

func TestOutputFormatFromEnv(t *testing.T) {
	newTestEnv(t, nil)
	t.Setenv("GOALSYNC_OUTPUT", "json")

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "test"`)

	out, err = execute(t, "version", "--output", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "goalsync test")
}
