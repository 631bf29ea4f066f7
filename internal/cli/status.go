package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/tui"
)

// SnapshotReader is the part of the ledger the status command needs.
type SnapshotReader interface {
	Snapshot(ctx context.Context) (*domain.LedgerSnapshot, error)
}

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the progress ledger has recorded",
		Long: `Display the progress ledger: how many tasks have completed, and every
task whose last attempt failed or was skipped together with the reason.

Failed and skipped tasks are retried by the next run; completed tasks
never are.

Examples:
  goalsync status
  goalsync status --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}
	root.AddCommand(cmd)
}

// runStatus executes the status command with production dependencies.
func runStatus(ctx context.Context, w io.Writer, flags *GlobalFlags) error {
	factory, err := newServiceFactory(ctx, flags.ConfigFile)
	if err != nil {
		return err
	}

	out := newOutput(w, flags.Output)
	l, err := factory.ExistingLedger()
	if err != nil {
		return err
	}
	if l == nil {
		if flags.Output == OutputJSON {
			return out.JSON(&domain.LedgerSnapshot{
				Completed: []string{},
				Failed:    []domain.ProgressRecord{},
				Skipped:   []domain.ProgressRecord{},
				RemoteIDs: map[string]string{},
			})
		}
		out.Info(fmt.Sprintf("No progress recorded yet (%s)", factory.cfg.LedgerPath()))
		return nil
	}
	defer func() { _ = l.Close() }()

	return runStatusWithDeps(ctx, out, flags, l)
}

// runStatusWithDeps renders the snapshot from reader.
func runStatusWithDeps(ctx context.Context, out tui.Output, flags *GlobalFlags, reader SnapshotReader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	snap, err := reader.Snapshot(ctx)
	if err != nil {
		return err
	}

	if flags.Output == OutputJSON {
		return out.JSON(snap)
	}

	if !flags.Quiet {
		out.Info(fmt.Sprintf("%s %d   %s %d   %s %d",
			tui.RenderStatus(domain.StatusSuccess), len(snap.Completed),
			tui.RenderStatus(domain.StatusError), len(snap.Failed),
			tui.RenderStatus(domain.StatusSkipped), len(snap.Skipped)))
		if !snap.UpdatedAt.IsZero() {
			out.Info("Last updated " + snap.UpdatedAt.Local().Format(time.RFC1123))
		}
	}

	rows := make([][]string, 0, len(snap.Failed)+len(snap.Skipped))
	for _, rec := range snap.Failed {
		rows = append(rows, statusRow(rec))
	}
	for _, rec := range snap.Skipped {
		rows = append(rows, statusRow(rec))
	}
	if len(rows) > 0 {
		out.Table([]string{"STATUS", "TASK", "WHEN", "REASON"}, rows)
	}
	return nil
}

func statusRow(rec domain.ProgressRecord) []string {
	when := ""
	if !rec.Timestamp.IsZero() {
		when = rec.Timestamp.Local().Format(time.DateTime)
	}
	return []string{statusCell(rec.Status), rec.TaskID, when, tui.Truncate(rec.Reason, 80)}
}
