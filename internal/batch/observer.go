package batch

import "github.com/mrz1836/goalsync/internal/domain"

// Observer receives progress events. Calls happen on the driver goroutine
// in task order.
type Observer interface {
	// TaskStarted is called before a task is processed. index is 0-based
	// within the plan.
	TaskStarted(index, total int, task *domain.Task)

	// TaskFinished is called once the task's outcome is known and recorded.
	TaskFinished(index, total int, out domain.Outcome)
}

// NopObserver ignores every event.
type NopObserver struct{}

// TaskStarted implements Observer.
func (NopObserver) TaskStarted(int, int, *domain.Task) {}

// TaskFinished implements Observer.
func (NopObserver) TaskFinished(int, int, domain.Outcome) {}

var _ Observer = NopObserver{}
