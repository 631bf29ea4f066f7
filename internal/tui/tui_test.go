package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/domain"
	gserrors "github.com/mrz1836/goalsync/internal/errors"
)

func TestNewOutput_SelectsFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONOutput{}, NewOutput(&buf, FormatJSON))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, FormatText))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, ""))
}

func TestTTYOutput_Messages(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Success("created 3 goals")
	out.Warning("2 tasks skipped")
	out.Info("dry run")

	got := buf.String()
	assert.Contains(t, got, "✓ created 3 goals")
	assert.Contains(t, got, "⚠ 2 tasks skipped")
	assert.Contains(t, got, "ℹ dry run")
}

func TestTTYOutput_ErrorShowsAction(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Error(fmt.Errorf("create goal: %w", gserrors.ErrAuthRejected))
	got := buf.String()
	assert.Contains(t, got, "✗ Perpetua rejected the API credential")
	assert.Contains(t, got, "▸ Try: Re-authenticate")

	buf.Reset()
	out.Error(errors.New("something odd"))
	assert.Contains(t, buf.String(), "✗ something odd")
	assert.NotContains(t, buf.String(), "Try:")
}

func TestTTYOutput_TableAlignsWideCharacters(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Table([]string{"ASIN", "PRODUCT"}, [][]string{
		{"B07Y5L9WLP", "42"},
		{"日本語", "7"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ASIN        PRODUCT", lines[0])
	assert.Equal(t, "B07Y5L9WLP  42", lines[1])
	assert.Equal(t, "日本語      7", lines[2])
}

func TestJSONOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)

	out.Success("ok")
	out.Error(fmt.Errorf("limit: %w", gserrors.ErrAccountLimit))
	out.Table([]string{"A"}, nil)

	dec := json.NewDecoder(&buf)

	var msg map[string]any
	require.NoError(t, dec.Decode(&msg))
	assert.Equal(t, map[string]any{"type": "success", "message": "ok"}, msg)

	var errMsg map[string]any
	require.NoError(t, dec.Decode(&errMsg))
	assert.Equal(t, "error", errMsg["type"])
	assert.Equal(t, "limit: account resource limit reached", errMsg["details"])
	assert.Contains(t, errMsg["suggestion"], "Contact Perpetua")

	var table map[string]any
	require.NoError(t, dec.Decode(&table))
	assert.Equal(t, []any{}, table["rows"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "日本…", Truncate("日本語テキスト", 5))
	assert.Empty(t, Truncate("anything", 0))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{45 * time.Second, "45s"},
		{2*time.Minute + 15*time.Second, "2m15s"},
		{time.Hour + 5*time.Minute, "1h05m"},
		{1499 * time.Millisecond, "1s"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatDuration(tc.in), tc.in.String())
	}
}

func TestEstimateRemaining(t *testing.T) {
	_, ok := EstimateRemaining(time.Minute, 0, 10)
	assert.False(t, ok)

	remaining, ok := EstimateRemaining(time.Minute, 2, 10)
	assert.True(t, ok)
	assert.Equal(t, 4*time.Minute, remaining)

	remaining, ok = EstimateRemaining(time.Minute, 10, 10)
	assert.True(t, ok)
	assert.Zero(t, remaining)
}

func TestStatusIcon(t *testing.T) {
	assert.Equal(t, "✓", StatusIcon(domain.StatusSuccess))
	assert.Equal(t, "✗", StatusIcon(domain.StatusError))
	assert.Equal(t, "⊘", StatusIcon(domain.StatusSkipped))
	assert.Equal(t, "○", StatusIcon(domain.StatusPlanned))
	assert.Equal(t, ColorError, StatusColor(domain.StatusError))
}

func TestRunProgress(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFake(start)
	var buf bytes.Buffer
	p := NewRunProgress(&buf, 10, clk)

	task := &domain.Task{ASIN: "B07Y5L9WLP"}
	p.TaskStarted(0, 4, task)
	assert.Contains(t, buf.String(), "0/4")
	assert.NotContains(t, buf.String(), "remaining")

	clk.Advance(30 * time.Second)
	p.TaskFinished(0, 4, domain.Outcome{TaskID: "B07Y5L9WLP", Status: domain.StatusSuccess})
	p.TaskFinished(1, 4, domain.Outcome{TaskID: "B0SKIPPED1", Status: domain.StatusSkipped})

	got := buf.String()
	assert.Contains(t, got, "2/4")
	assert.Contains(t, got, "50%")
	assert.Contains(t, got, "elapsed 30s")
	assert.Contains(t, got, "remaining ~30s")
	assert.Equal(t, map[domain.ProgressStatus]int{domain.StatusSuccess: 1, domain.StatusSkipped: 1}, p.Counts())

	p.Finish()
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressBar_Render(t *testing.T) {
	bar := NewProgressBar(20)
	assert.Equal(t, 20, bar.Width())
	assert.NotEmpty(t, bar.Render(-1))
	assert.NotEmpty(t, bar.Render(0.5))
	assert.NotEmpty(t, bar.Render(2))
}
