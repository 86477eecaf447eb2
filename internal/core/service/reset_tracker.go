package service

import (
	"time"

	"github.com/berfenger/tibber2mqtt/internal/core/domain"
)

// ResetTracker keeps the last-reset timestamp of cumulative counters. A
// counter is considered reset when a reading is lower than the previous one;
// the reset then moves to the start of the day/hour of that reading.
type ResetTracker struct {
	prev      map[string]float64
	lastReset map[string]time.Time
}

func NewResetTracker() *ResetTracker {
	return &ResetTracker{
		prev:      make(map[string]float64),
		lastReset: make(map[string]time.Time),
	}
}

// Observe records a reading and returns the current last-reset timestamp and
// whether it changed with this reading.
func (t *ResetTracker) Observe(key string, kind domain.ResetKind, value float64, ts time.Time) (time.Time, bool) {
	last, known := t.lastReset[key]
	changed := false

	if !known {
		last = initialReset(kind, ts)
		changed = true
	} else if value < t.prev[key] {
		if reset := resetAt(kind, ts); reset.After(last) {
			last = reset
			changed = true
		}
	}

	t.prev[key] = value
	t.lastReset[key] = last
	return last, changed
}

func initialReset(kind domain.ResetKind, now time.Time) time.Time {
	if kind == domain.ResetNever {
		return time.Unix(0, 0).UTC()
	}
	return resetAt(kind, now)
}

func resetAt(kind domain.ResetKind, ts time.Time) time.Time {
	switch kind {
	case domain.ResetDaily:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
	case domain.ResetHourly:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, ts.Location())
	default:
		return time.Unix(0, 0).UTC()
	}
}
