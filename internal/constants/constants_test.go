package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoalTitleLimit(t *testing.T) {
	assert.Equal(t, 60, MaxGoalTitleLength)
}

func TestLockConstants(t *testing.T) {
	t.Run("LockRetryInterval is reasonable", func(t *testing.T) {
		assert.Equal(t, 50*time.Millisecond, LockRetryInterval)
		assert.Less(t, LockRetryInterval, LockTimeout, "should retry several times before timing out")
	})
}

func TestRunDefaults(t *testing.T) {
	t.Run("delay is positive", func(t *testing.T) {
		assert.Positive(t, DefaultTaskDelay)
	})

	t.Run("retry attempts include the first attempt", func(t *testing.T) {
		assert.GreaterOrEqual(t, DefaultRetryAttempts, 1)
	})

	t.Run("lookback window is a whole number of days", func(t *testing.T) {
		assert.Zero(t, DefaultLookbackWindow%(24*time.Hour))
	})
}

func TestBidRange(t *testing.T) {
	assert.Less(t, DefaultMinBid, DefaultMaxBid)
}
