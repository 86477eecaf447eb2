package service

import (
	"testing"
	"time"

	"github.com/berfenger/tibber2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTrackerInitial(t *testing.T) {

	tracker := NewResetTracker()
	ts := time.Date(2024, 3, 12, 14, 25, 11, 0, time.UTC)

	last, changed := tracker.Observe("accumulatedConsumption", domain.ResetDaily, 10.5, ts)
	assert.True(t, changed)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), last)

	last, changed = tracker.Observe("accumulatedConsumptionLastHour", domain.ResetHourly, 0.2, ts)
	assert.True(t, changed)
	assert.Equal(t, time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC), last)

	last, changed = tracker.Observe("lastMeterConsumption", domain.ResetNever, 22310.5, ts)
	assert.True(t, changed)
	assert.Equal(t, time.Unix(0, 0).UTC(), last)
}

func TestResetTrackerIncreasingKeepsReset(t *testing.T) {

	tracker := NewResetTracker()
	ts := time.Date(2024, 3, 12, 14, 25, 11, 0, time.UTC)

	first, _ := tracker.Observe("accumulatedConsumption", domain.ResetDaily, 10.5, ts)

	last, changed := tracker.Observe("accumulatedConsumption", domain.ResetDaily, 10.8, ts.Add(10*time.Second))
	assert.False(t, changed)
	assert.Equal(t, first, last)
}

func TestResetTrackerDailyRollover(t *testing.T) {

	tracker := NewResetTracker()
	day1 := time.Date(2024, 3, 12, 23, 59, 55, 0, time.UTC)
	day2 := time.Date(2024, 3, 13, 0, 0, 5, 0, time.UTC)

	tracker.Observe("accumulatedCost", domain.ResetDaily, 41.2, day1)

	// counter dropped: day rolled over
	last, changed := tracker.Observe("accumulatedCost", domain.ResetDaily, 0.01, day2)
	require.True(t, changed)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), last)
}

func TestResetTrackerHourlyRollover(t *testing.T) {

	tracker := NewResetTracker()
	hour1 := time.Date(2024, 3, 12, 14, 59, 58, 0, time.UTC)
	hour2 := time.Date(2024, 3, 12, 15, 0, 2, 0, time.UTC)

	tracker.Observe("accumulatedConsumptionLastHour", domain.ResetHourly, 1.2, hour1)

	last, changed := tracker.Observe("accumulatedConsumptionLastHour", domain.ResetHourly, 0.001, hour2)
	require.True(t, changed)
	assert.Equal(t, time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC), last)
}

func TestResetTrackerNeverKind(t *testing.T) {

	tracker := NewResetTracker()
	ts := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)

	tracker.Observe("lastMeterConsumption", domain.ResetNever, 100, ts)

	// meter counters do not reset even when a lower value shows up
	last, changed := tracker.Observe("lastMeterConsumption", domain.ResetNever, 99, ts.Add(time.Minute))
	assert.False(t, changed)
	assert.Equal(t, time.Unix(0, 0).UTC(), last)
}
