package batch

import (
	"github.com/mrz1836/goalsync/internal/domain"
)

// Summary describes one run.
type Summary struct {
	RunID  string `json:"run_id"`
	DryRun bool   `json:"dry_run,omitempty"`

	// Planned is the number of tasks left after start_row, the completed
	// filter and max_tasks were applied.
	Planned int `json:"planned"`

	// Attempted counts tasks that reached an outcome.
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// AlreadyCompleted counts tasks removed from the plan because the ledger
	// lists them as successful.
	AlreadyCompleted int `json:"already_completed"`

	Halted      bool   `json:"halted"`
	HaltReason  string `json:"halt_reason,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`

	Records []domain.Outcome `json:"records"`
}

func (s *Summary) add(out domain.Outcome) {
	s.Attempted++
	switch out.Status {
	case domain.StatusSuccess:
		s.Succeeded++
	case domain.StatusSkipped:
		s.Skipped++
	case domain.StatusError:
		s.Failed++
	}
	s.Records = append(s.Records, out)
}

func (s *Summary) halt(reason string) {
	s.Halted = true
	s.HaltReason = reason
}
