package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/goalsync/internal/domain"
	"github.com/mrz1836/goalsync/internal/payload"
	"github.com/mrz1836/goalsync/internal/tasksource"
	"github.com/mrz1836/goalsync/internal/tui"
)

// AddTasksCommand adds the tasks command group to the root command.
func AddTasksCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with task files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a task file without contacting Perpetua",
		Long: `Parse and validate a task file, then report how its tasks break down by
segment and targeting mode and how many the ledger already lists as
completed. Nothing is resolved or created.

Examples:
  goalsync tasks check goals.yaml
  goalsync tasks check goals.json --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasksCheck(cmd.Context(), cmd.OutOrStdout(), flags, args[0])
		},
	})

	root.AddCommand(cmd)
}

// taskCheckReport summarises a validated task file.
type taskCheckReport struct {
	File      string         `json:"file"`
	Tasks     int            `json:"tasks"`
	Completed int            `json:"completed"`
	Pending   int            `json:"pending"`
	Segments  map[string]int `json:"segments"`
	Modes     map[string]int `json:"modes"`
	Titles    []string       `json:"titles"`
}

// runTasksCheck executes tasks check with production dependencies. The
// ledger is consulted only when it already exists.
func runTasksCheck(ctx context.Context, w io.Writer, flags *GlobalFlags, path string) error {
	tasks, err := tasksource.LoadFile(path)
	if err != nil {
		return err
	}

	completed := map[string]struct{}{}
	factory, err := newServiceFactory(ctx, flags.ConfigFile)
	if err != nil {
		return err
	}
	l, err := factory.ExistingLedger()
	if err != nil {
		return err
	}
	if l != nil {
		defer func() { _ = l.Close() }()
		if completed, err = l.LoadCompleted(ctx); err != nil {
			return err
		}
	}

	report := buildTaskCheckReport(path, tasks, completed)
	return renderTaskCheck(newOutput(w, flags.Output), flags, report)
}

// buildTaskCheckReport counts tasks per segment and mode in input order.
func buildTaskCheckReport(path string, tasks []domain.Task, completed map[string]struct{}) *taskCheckReport {
	report := &taskCheckReport{
		File:     path,
		Tasks:    len(tasks),
		Segments: map[string]int{},
		Modes:    map[string]int{},
		Titles:   make([]string, 0, len(tasks)),
	}
	for i := range tasks {
		task := &tasks[i]
		if _, done := completed[task.Key()]; done {
			report.Completed++
		}
		report.Segments[string(task.Segment)]++
		report.Modes[string(task.Mode)]++
		report.Titles = append(report.Titles, payload.Title(task.SKU, task.Segment))
	}
	report.Pending = report.Tasks - report.Completed
	return report
}

func renderTaskCheck(out tui.Output, flags *GlobalFlags, r *taskCheckReport) error {
	if flags.Output == OutputJSON {
		return out.JSON(r)
	}

	out.Success(fmt.Sprintf("%s: %d valid task(s), %d pending, %d already completed",
		r.File, r.Tasks, r.Pending, r.Completed))
	if flags.Quiet || r.Tasks == 0 {
		return nil
	}

	segments := make([]string, 0, len(r.Segments))
	for seg := range r.Segments {
		segments = append(segments, seg)
	}
	slices.Sort(segments)

	rows := make([][]string, 0, len(segments)+len(r.Modes))
	for _, seg := range segments {
		rows = append(rows, []string{"segment", seg, strconv.Itoa(r.Segments[seg])})
	}
	modes := make([]string, 0, len(r.Modes))
	for mode := range r.Modes {
		modes = append(modes, mode)
	}
	slices.Sort(modes)
	for _, mode := range modes {
		rows = append(rows, []string{"mode", mode, strconv.Itoa(r.Modes[mode])})
	}
	out.Table([]string{"KIND", "VALUE", "TASKS"}, rows)

	if flags.Verbose {
		titleRows := make([][]string, 0, len(r.Titles))
		for i, title := range r.Titles {
			titleRows = append(titleRows, []string{strconv.Itoa(i), title})
		}
		out.Table([]string{"ROW", "GOAL TITLE"}, titleRows)
	}
	return nil
}
