// Package batch drives one synchronization run: it plans the task list
// against the progress ledger, then processes tasks strictly in order,
// recording every outcome before moving on.
//
// Per task the driver resolves the ASIN, builds the payload, and creates the
// goal. Transient remote failures are retried with exponential backoff.
// Auth and account-limit failures halt the run, as does any failure to write
// the ledger. Everything else is recorded and the run continues.
//
// Import rules:
//   - CAN import: internal/clock, internal/constants, internal/domain,
//     internal/errors, internal/ledger, internal/payload, internal/perpetua
//   - MUST NOT import: internal/cli, internal/tui
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/domain"
	gserrors "github.com/mrz1836/goalsync/internal/errors"
	"github.com/mrz1836/goalsync/internal/ledger"
	"github.com/mrz1836/goalsync/internal/payload"
	"github.com/mrz1836/goalsync/internal/perpetua"
)

// Resolver maps an ASIN to a remote product id.
type Resolver interface {
	Resolve(ctx context.Context, asin string) (int64, error)
}

// Builder turns a task into a goal payload or a skip reason.
type Builder interface {
	Build(task *domain.Task, productID int64) (*domain.GoalPayload, *payload.SkipReason)
}

// Creator creates a goal remotely and returns its id.
type Creator interface {
	CreateGoal(ctx context.Context, p *domain.GoalPayload) (string, error)
}

// Options configures a Driver.
type Options struct {
	// Delay is the pause after every task except the last one and a halt.
	Delay time.Duration

	// RetryAttempts is the total number of create attempts for transient
	// failures. Values below 1 mean a single attempt.
	RetryAttempts int

	// RetryBackoff is the wait before the first retry; it doubles per retry.
	RetryBackoff time.Duration

	// StartRow skips that many tasks from the front of the input.
	StartRow int

	// MaxTasks caps the plan. 0 means no cap.
	MaxTasks int

	// DryRun resolves and builds but never creates goals or writes the ledger.
	DryRun bool

	// RunID identifies the run in logs. Generated when empty.
	RunID string

	Clock    clock.Clock
	Observer Observer
}

// Driver runs batches. A Driver is not safe for concurrent Run calls.
type Driver struct {
	resolver Resolver
	builder  Builder
	creator  Creator
	ledger   ledger.Ledger
	opts     Options
}

// New creates a Driver. The ledger may be nil only for dry runs.
func New(res Resolver, b Builder, c Creator, l ledger.Ledger, opts Options) *Driver {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}
	return &Driver{resolver: res, builder: b, creator: c, ledger: l, opts: opts}
}

// Plan applies start_row, drops tasks the ledger lists as completed and
// applies max_tasks. Input order is preserved. It returns the plan and the
// number of completed tasks that were dropped.
func (d *Driver) Plan(ctx context.Context, tasks []domain.Task) ([]domain.Task, int, error) {
	if d.opts.StartRow >= len(tasks) {
		return []domain.Task{}, 0, nil
	}
	tasks = tasks[max(d.opts.StartRow, 0):]

	completed := map[string]struct{}{}
	if d.ledger != nil {
		var err error
		if completed, err = d.ledger.LoadCompleted(ctx); err != nil {
			return nil, 0, err
		}
	}

	plan := make([]domain.Task, 0, len(tasks))
	dropped := 0
	for _, task := range tasks {
		if _, done := completed[task.Key()]; done {
			dropped++
			continue
		}
		plan = append(plan, task)
		if d.opts.MaxTasks > 0 && len(plan) == d.opts.MaxTasks {
			break
		}
	}
	return plan, dropped, nil
}

// Run processes tasks and returns the run summary. The returned error is
// non-nil when the run halted or was interrupted; the summary is always
// returned and reflects everything recorded so far.
func (d *Driver) Run(ctx context.Context, tasks []domain.Task) (*Summary, error) {
	runID := d.opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := zerolog.Ctx(ctx).With().
		Str("component", "batch").
		Str("run_id", runID).
		Bool("dry_run", d.opts.DryRun).
		Logger()
	ctx = logger.WithContext(ctx)

	summary := &Summary{RunID: runID, DryRun: d.opts.DryRun, Records: []domain.Outcome{}}

	if !d.opts.DryRun && d.ledger == nil {
		return summary, fmt.Errorf("%w: ledger is required outside dry runs", gserrors.ErrInvalidArgument)
	}

	plan, dropped, err := d.Plan(ctx, tasks)
	if err != nil {
		summary.halt(err.Error())
		return summary, err
	}
	summary.Planned = len(plan)
	summary.AlreadyCompleted = dropped

	logger.Info().
		Int("tasks", len(tasks)).
		Int("planned", len(plan)).
		Int("already_completed", dropped).
		Msg("run started")

	for i := range plan {
		task := &plan[i]

		if err := ctx.Err(); err != nil {
			return d.interrupted(ctx, summary)
		}

		d.opts.Observer.TaskStarted(i, len(plan), task)
		out := d.processTask(ctx, task)
		if out.Status == domain.StatusPending {
			return d.interrupted(ctx, summary)
		}

		if !d.opts.DryRun {
			// The outcome reached the remote side; record it even if the run
			// is being interrupted.
			rec := out.Record(d.opts.Clock.Now())
			if err := d.ledger.RecordOutcome(context.WithoutCancel(ctx), rec); err != nil {
				logger.Error().Err(err).Str("task", out.TaskID).Msg("ledger write failed")
				summary.halt(err.Error())
				return summary, err
			}
		}

		summary.add(out.Outcome)
		d.opts.Observer.TaskFinished(i, len(plan), out.Outcome)
		d.logOutcome(ctx, out.Outcome)

		if out.Fatal {
			summary.halt(out.Reason)
			logger.Error().Str("task", out.TaskID).Str("reason", out.Reason).Msg("run halted")
			return summary, out.err
		}

		if i < len(plan)-1 {
			if err := d.opts.Clock.Sleep(ctx, d.opts.Delay); err != nil {
				return d.interrupted(ctx, summary)
			}
		}
	}

	logger.Info().
		Int("attempted", summary.Attempted).
		Int("succeeded", summary.Succeeded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("run finished")
	return summary, nil
}

func (d *Driver) interrupted(ctx context.Context, summary *Summary) (*Summary, error) {
	summary.Interrupted = true
	cause := context.Cause(ctx)
	if cause == nil {
		cause = gserrors.ErrRunInterrupted
	}
	zerolog.Ctx(ctx).Warn().
		Err(cause).
		Int("attempted", summary.Attempted).
		Int("remaining", summary.Planned-summary.Attempted).
		Msg("run interrupted")
	return summary, cause
}

// result wraps an outcome with the error behind it, if any.
type result struct {
	domain.Outcome
	err error
}

// processTask runs resolve, build and create for one task. A pending status
// means the context was canceled before the task reached an outcome.
func (d *Driver) processTask(ctx context.Context, task *domain.Task) result {
	logger := zerolog.Ctx(ctx).With().Str("task", task.Key()).Str("asin", task.ASIN).Logger()
	res := result{Outcome: domain.Outcome{TaskID: task.Key(), Status: domain.StatusPending}}

	productID, err := d.resolver.Resolve(ctx, task.ASIN)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return res
		case gserrors.IsFatalRemote(err), isLocalIOFailure(err):
			return res.fail(err, true)
		default:
			logger.Debug().Err(err).Msg("resolution failed")
			res.Status = domain.StatusSkipped
			res.Reason = payload.ReasonProductNotFound
			return res
		}
	}

	p, skip := d.builder.Build(task, productID)
	if skip != nil {
		res.Status = domain.StatusSkipped
		res.Reason = skip.Reason
		return res
	}

	if d.opts.DryRun {
		res.Status = domain.StatusPlanned
		return res
	}

	backoff := d.opts.RetryBackoff
	for attempt := 1; ; attempt++ {
		res.Attempts = attempt
		remoteID, err := d.creator.CreateGoal(ctx, p)
		if err == nil {
			res.Status = domain.StatusSuccess
			res.RemoteID = remoteID
			return res
		}
		if ctx.Err() != nil {
			res.Status = domain.StatusPending
			return res
		}

		if perpetua.ClassOf(err) != perpetua.ClassTransient || attempt >= d.opts.RetryAttempts {
			return res.fail(err, gserrors.IsFatalRemote(err))
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("transient failure, retrying")
		if err := d.opts.Clock.Sleep(ctx, backoff); err != nil {
			res.Status = domain.StatusPending
			return res
		}
		backoff *= 2
	}
}

func (r result) fail(err error, fatal bool) result {
	r.Status = domain.StatusError
	r.Reason = err.Error()
	r.Fatal = fatal
	r.err = err
	return r
}

func isLocalIOFailure(err error) bool {
	return errors.Is(err, gserrors.ErrCacheWrite) ||
		errors.Is(err, gserrors.ErrCacheCorrupted) ||
		errors.Is(err, gserrors.ErrLedgerWrite) ||
		errors.Is(err, gserrors.ErrLedgerCorrupted)
}

func (d *Driver) logOutcome(ctx context.Context, out domain.Outcome) {
	logger := zerolog.Ctx(ctx)
	var event *zerolog.Event
	switch out.Status {
	case domain.StatusError:
		event = logger.Error()
	case domain.StatusSkipped:
		event = logger.Warn()
	default:
		event = logger.Info()
	}
	event.
		Str("task", out.TaskID).
		Str("status", string(out.Status)).
		Str("reason", out.Reason).
		Str("remote_id", out.RemoteID).
		Int("attempts", out.Attempts).
		Msg("task finished")
}
