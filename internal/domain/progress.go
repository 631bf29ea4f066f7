package domain

import "time"

// ProgressStatus is the outcome state of one task in the ledger.
//
//	pending -> success | skipped | error
//	skipped -> success | skipped | error   (on a later run)
//	error   -> success | skipped | error   (on a later run)
//	success is terminal
type ProgressStatus string

// Progress statuses.
const (
	StatusPending ProgressStatus = "pending"
	StatusSuccess ProgressStatus = "success"
	StatusSkipped ProgressStatus = "skipped"
	StatusError   ProgressStatus = "error"

	// StatusPlanned is reported by dry runs in place of a create attempt.
	// It is never written to the ledger.
	StatusPlanned ProgressStatus = "planned"
)

// Terminal reports whether a task in this status is never reprocessed.
func (s ProgressStatus) Terminal() bool {
	return s == StatusSuccess
}

// ProgressRecord is the ledger entry for one task attempt.
type ProgressRecord struct {
	TaskID    string         `json:"id"`
	Status    ProgressStatus `json:"status"`
	Reason    string         `json:"reason,omitempty"`
	RemoteID  string         `json:"remote_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// LedgerSnapshot is a read-only view of everything the ledger holds.
type LedgerSnapshot struct {
	Completed []string          `json:"completed"`
	Failed    []ProgressRecord  `json:"failed"`
	Skipped   []ProgressRecord  `json:"skipped"`
	RemoteIDs map[string]string `json:"remote_ids"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Outcome is the result of processing one task in a run.
type Outcome struct {
	TaskID   string         `json:"id"`
	Status   ProgressStatus `json:"status"`
	Reason   string         `json:"reason,omitempty"`
	RemoteID string         `json:"remote_id,omitempty"`
	// Attempts counts create calls made for the task.
	Attempts int `json:"attempts"`
	// Fatal marks the outcome that halted the run.
	Fatal bool `json:"fatal,omitempty"`
}

// Record converts the outcome into a ledger entry stamped at ts.
func (o Outcome) Record(ts time.Time) ProgressRecord {
	return ProgressRecord{
		TaskID:    o.TaskID,
		Status:    o.Status,
		Reason:    o.Reason,
		RemoteID:  o.RemoteID,
		Timestamp: ts.UTC(),
	}
}
