package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPolicy() PricePolicy {
	return PricePolicy{
		MinFetchInterval: 5 * time.Minute,
		StaleWindow:      5 * time.Hour,
		Spread:           0,
	}
}

func TestNeedsData(t *testing.T) {

	policy := testPolicy()
	now := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)

	// no data yet
	assert.True(t, policy.NeedsData(now, time.Time{}, false))
	// unavailable sensor always refetches
	assert.True(t, policy.NeedsData(now, now.Add(9*time.Hour), false))
	// data runs out within the stale window
	assert.True(t, policy.NeedsData(now, now.Add(3*time.Hour), true))
	// plenty of data left
	assert.False(t, policy.NeedsData(now, now.Add(9*time.Hour), true))
}

func TestNeedsDataSpread(t *testing.T) {

	policy := testPolicy()
	policy.Spread = time.Hour
	now := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)

	// 5h30m left is fresh without spread but stale with it
	assert.True(t, policy.NeedsData(now, now.Add(5*time.Hour+30*time.Minute), true))
}

func TestCanFetch(t *testing.T) {

	policy := testPolicy()
	now := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)

	assert.True(t, policy.CanFetch(now, time.Time{}))
	assert.False(t, policy.CanFetch(now, now.Add(-time.Minute)))
	assert.True(t, policy.CanFetch(now, now.Add(-6*time.Minute)))
}

func TestUpToDate(t *testing.T) {

	policy := testPolicy()
	now := time.Date(2024, 3, 12, 14, 40, 0, 0, time.UTC)

	assert.False(t, policy.UpToDate(now, time.Time{}, true))
	assert.False(t, policy.UpToDate(now, now.Add(-20*time.Minute), false))
	assert.True(t, policy.UpToDate(now, now.Add(-20*time.Minute), true))
	// same wall-clock hour of a different day does not count
	assert.False(t, policy.UpToDate(now, now.Add(-24*time.Hour), true))
	// hour rolled over
	assert.False(t, policy.UpToDate(now, now.Add(-time.Hour), true))
}
