package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/goalsync/internal/batch"
	"github.com/mrz1836/goalsync/internal/config"
	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/ledger"
	"github.com/mrz1836/goalsync/internal/signal"
	"github.com/mrz1836/goalsync/internal/tasksource"
	"github.com/mrz1836/goalsync/internal/tui"
)

// progressBarWidth is the width of the run progress bar in cells.
const progressBarWidth = 30

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newRunCmd(flags))
}

// runOptions contains the options for the run command. Zero values and unset
// flags leave the configured values in place.
type runOptions struct {
	tasksFile   string
	startRow    int
	maxTasks    int
	delay       time.Duration
	dryRun      bool
	setStartRow bool
	setMaxTasks bool
	setDelay    bool
}

// newRunCmd creates the run command.
func newRunCmd(flags *GlobalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create goals for every pending task in a task file",
		Long: `Create a Perpetua goal for every task in the task file that the progress
ledger does not already list as completed.

Tasks run strictly in file order. Skips and rejected goals are recorded and
the run continues; a rejected credential or an exhausted account limit
halts it. Rerunning the same file resumes where the last run stopped.

Examples:
  goalsync run --tasks goals.yaml
  goalsync run --tasks goals.json --dry-run
  goalsync run --tasks goals.toml --start-row 100 --max-tasks 50
  goalsync run --tasks goals.yaml --delay 5s --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.setStartRow = cmd.Flags().Changed("start-row")
			opts.setMaxTasks = cmd.Flags().Changed("max-tasks")
			opts.setDelay = cmd.Flags().Changed("delay")
			return runRun(cmd.Context(), cmd.OutOrStdout(), flags, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tasksFile, "tasks", "t", "",
		"Task file (.json, .yaml, .yml or .toml)")
	cmd.Flags().IntVar(&opts.startRow, "start-row", 0,
		"Skip this many tasks from the start of the file")
	cmd.Flags().IntVar(&opts.maxTasks, "max-tasks", 0,
		"Process at most this many pending tasks (0 = all)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0,
		"Pause between tasks (default from run.delay)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"Resolve and build goals without creating them or writing state")
	_ = cmd.MarkFlagRequired("tasks")

	return cmd
}

// applyRunOverrides layers explicitly set flags over the configuration.
func applyRunOverrides(cfg *config.Config, opts runOptions) error {
	if opts.setStartRow {
		if opts.startRow < 0 {
			return errors.NewExitCode2Error(fmt.Errorf("%w: --start-row must not be negative", errors.ErrValueOutOfRange))
		}
		cfg.Run.StartRow = opts.startRow
	}
	if opts.setMaxTasks {
		if opts.maxTasks < 0 {
			return errors.NewExitCode2Error(fmt.Errorf("%w: --max-tasks must not be negative", errors.ErrValueOutOfRange))
		}
		cfg.Run.MaxTasks = opts.maxTasks
	}
	if opts.setDelay {
		if opts.delay < 0 {
			return errors.NewExitCode2Error(fmt.Errorf("%w: --delay must not be negative", errors.ErrValueOutOfRange))
		}
		cfg.Run.Delay = opts.delay
	}
	return nil
}

// runRun executes the run command with production dependencies.
func runRun(ctx context.Context, w io.Writer, flags *GlobalFlags, opts runOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "cli").Logger()

	factory, err := newServiceFactory(ctx, flags.ConfigFile)
	if err != nil {
		return err
	}
	if err := applyRunOverrides(factory.cfg, opts); err != nil {
		return err
	}

	tasks, err := tasksource.LoadFile(opts.tasksFile)
	if err != nil {
		return err
	}

	client, err := factory.Client()
	if err != nil {
		return err
	}
	cache, err := factory.Cache(opts.dryRun)
	if err != nil {
		return err
	}
	builder, err := factory.Builder()
	if err != nil {
		return err
	}

	var l ledger.Ledger
	if opts.dryRun {
		l, err = factory.ExistingLedger()
	} else {
		l, err = factory.Ledger()
	}
	if err != nil {
		return err
	}
	if l != nil {
		defer func() {
			if cerr := l.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("failed to close ledger")
			}
		}()
	}

	sigHandler := signal.NewHandler(ctx)
	defer sigHandler.Stop()

	var progress *tui.RunProgress
	var observer batch.Observer = batch.NopObserver{}
	if showProgress(flags) {
		progress = tui.NewRunProgress(os.Stderr, progressBarWidth, factory.clock)
		observer = progress
	}

	driver := batch.New(factory.Resolver(client, cache), builder, client, l, batch.Options{
		Delay:         factory.cfg.Run.Delay,
		RetryAttempts: factory.cfg.Run.RetryAttempts,
		RetryBackoff:  factory.cfg.Run.RetryBackoff,
		StartRow:      factory.cfg.Run.StartRow,
		MaxTasks:      factory.cfg.Run.MaxTasks,
		DryRun:        opts.dryRun,
		Clock:         factory.clock,
		Observer:      observer,
	})

	logger.Info().
		Str("tasks_file", opts.tasksFile).
		Int("tasks", len(tasks)).
		Str("ledger", factory.cfg.LedgerPath()).
		Msg("starting run")

	summary, runErr := driver.Run(sigHandler.Context(), tasks)
	if progress != nil {
		progress.Finish()
	}

	if err := renderSummary(newOutput(w, flags.Output), flags, summary); err != nil {
		return err
	}
	return runErr
}

// showProgress reports whether a live progress line should be drawn.
func showProgress(flags *GlobalFlags) bool {
	return flags.Output == OutputText && !flags.Quiet && term.IsTerminal(int(os.Stderr.Fd()))
}

// renderSummary prints the run summary: the whole document in JSON mode, or
// the totals plus a table of every task that did not succeed in text mode.
func renderSummary(out tui.Output, flags *GlobalFlags, s *batch.Summary) error {
	if flags.Output == OutputJSON {
		return out.JSON(s)
	}

	if s.DryRun {
		out.Info(fmt.Sprintf("Dry run: %d goal(s) would be created, %d skipped", countStatus(s, domain.StatusPlanned), s.Skipped))
	} else {
		out.Success(fmt.Sprintf("Created %d goal(s): %d skipped, %d failed", s.Succeeded, s.Skipped, s.Failed))
	}
	if s.AlreadyCompleted > 0 {
		out.Info(fmt.Sprintf("%d task(s) already completed in an earlier run", s.AlreadyCompleted))
	}
	if s.Interrupted {
		out.Warning(fmt.Sprintf("Interrupted after %d of %d task(s); rerun to resume", s.Attempted, s.Planned))
	}

	rows := make([][]string, 0, len(s.Records))
	for _, rec := range s.Records {
		if rec.Status == domain.StatusSuccess && !flags.Verbose {
			continue
		}
		rows = append(rows, []string{
			statusCell(rec.Status),
			rec.TaskID,
			rec.RemoteID,
			tui.Truncate(rec.Reason, 80),
		})
	}
	if len(rows) > 0 && !flags.Quiet {
		out.Table([]string{"STATUS", "TASK", "GOAL", "REASON"}, rows)
	}
	return nil
}

func countStatus(s *batch.Summary, status domain.ProgressStatus) int {
	n := 0
	for _, rec := range s.Records {
		if rec.Status == status {
			n++
		}
	}
	return n
}

// statusCell is the plain "icon status" text used in tables; styled cells
// would break column alignment.
func statusCell(status domain.ProgressStatus) string {
	return tui.StatusIcon(status) + " " + string(status)
}
