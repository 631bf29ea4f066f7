package tui

import (
	"fmt"
	"time"
)

// FormatDuration renders d compactly: "45s", "2m15s", "1h05m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// EstimateRemaining projects the time left from the average time per
// finished task. It returns false until at least one task has finished.
func EstimateRemaining(elapsed time.Duration, done, total int) (time.Duration, bool) {
	if done <= 0 || total <= done {
		return 0, done > 0
	}
	perTask := elapsed / time.Duration(done)
	return perTask * time.Duration(total-done), true
}
