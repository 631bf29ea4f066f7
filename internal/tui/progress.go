package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/mrz1836/goalsync/internal/clock"
	"github.com/mrz1836/goalsync/internal/domain"
)

// ProgressBar wraps the charmbracelet/bubbles progress bar with goalsync styling.
// Supports NO_COLOR compatibility.
type ProgressBar struct {
	bar   progress.Model
	width int
}

// NewProgressBar creates a new progress bar.
// Uses the ColorPrimary gradient when color is available, a solid fill otherwise.
func NewProgressBar(width int) *ProgressBar {
	var bar progress.Model
	if HasColorSupport() {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithScaledGradient("#0087AF", "#00D7FF"),
			progress.WithoutPercentage(),
		)
	} else {
		bar = progress.New(
			progress.WithWidth(width),
			progress.WithSolidFill("#808080"),
			progress.WithoutPercentage(),
		)
	}
	return &ProgressBar{bar: bar, width: width}
}

// Render returns the bar for percent (0.0-1.0) without animation.
func (pb *ProgressBar) Render(percent float64) string {
	return pb.bar.ViewAs(min(max(percent, 0), 1))
}

// Width returns the current width of the progress bar.
func (pb *ProgressBar) Width() int {
	return pb.width
}

// labelWidth bounds the task label shown next to the bar.
const labelWidth = 24

// RunProgress renders a single redrawn status line for a batch run:
//
//	[██████░░░░░░] 12/40  30%  B07Y5L9WLP  elapsed 1m02s  remaining ~2m25s
//
// It satisfies the batch driver's observer contract.
type RunProgress struct {
	w     io.Writer
	bar   *ProgressBar
	clock clock.Clock

	mu      sync.Mutex
	started time.Time
	done    int
	counts  map[domain.ProgressStatus]int
}

// NewRunProgress creates a progress line writer. A nil clock uses the system clock.
func NewRunProgress(w io.Writer, barWidth int, clk clock.Clock) *RunProgress {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &RunProgress{
		w:      w,
		bar:    NewProgressBar(barWidth),
		clock:  clk,
		counts: map[domain.ProgressStatus]int{},
	}
}

// TaskStarted redraws the line with the task about to be processed.
func (p *RunProgress) TaskStarted(index, total int, task *domain.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	if p.started.IsZero() || index == 0 {
		p.started = now
	}
	p.draw(total, task.Key(), now)
}

// TaskFinished records the outcome and redraws the line.
func (p *RunProgress) TaskFinished(_, total int, out domain.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.counts[out.Status]++
	p.draw(total, out.TaskID, p.clock.Now())
}

// Finish ends the status line.
func (p *RunProgress) Finish() {
	_, _ = fmt.Fprintln(p.w)
}

// Counts returns how many tasks finished in each status.
func (p *RunProgress) Counts() map[domain.ProgressStatus]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[domain.ProgressStatus]int, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out
}

func (p *RunProgress) draw(total int, label string, now time.Time) {
	_, _ = fmt.Fprint(p.w, "\r\033[K"+p.line(total, label, now.Sub(p.started)))
}

func (p *RunProgress) line(total int, label string, elapsed time.Duration) string {
	var percent float64
	if total > 0 {
		percent = float64(p.done) / float64(total)
	}

	line := fmt.Sprintf("%s %d/%d %3d%%  %s  elapsed %s",
		p.bar.Render(percent),
		p.done, total,
		int(percent*100),
		Truncate(label, labelWidth),
		FormatDuration(elapsed),
	)
	if remaining, ok := EstimateRemaining(elapsed, p.done, total); ok {
		line += "  remaining ~" + FormatDuration(remaining)
	}
	return line
}
