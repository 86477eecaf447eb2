package service

import (
	"math/rand"
	"time"
)

// PricePolicy decides when the price poller talks to the vendor. Data is
// refreshed when it runs out within the stale window (plus a per-home random
// spread, so a fleet of homes does not hit the API in the same second) and
// never more often than MinFetchInterval.
type PricePolicy struct {
	MinFetchInterval time.Duration
	StaleWindow      time.Duration
	Spread           time.Duration
}

func NewPricePolicy(minFetchInterval, staleWindow time.Duration) PricePolicy {
	return PricePolicy{
		MinFetchInterval: minFetchInterval,
		StaleWindow:      staleWindow,
		Spread:           time.Duration(rand.Int63n(5000)) * time.Second,
	}
}

// NeedsData reports whether the loaded price data is missing or about to run
// out.
func (p PricePolicy) NeedsData(now, lastData time.Time, available bool) bool {
	if lastData.IsZero() || !available {
		return true
	}
	return lastData.Sub(now) < p.StaleWindow+p.Spread
}

// CanFetch throttles vendor calls.
func (p PricePolicy) CanFetch(now, lastFetch time.Time) bool {
	return lastFetch.IsZero() || now.Sub(lastFetch) >= p.MinFetchInterval
}

// UpToDate reports whether the published state already covers the hour of
// now, in which case a tick is a no-op.
func (p PricePolicy) UpToDate(now, lastUpdated time.Time, hasCurrent bool) bool {
	if !hasCurrent || lastUpdated.IsZero() {
		return false
	}
	return lastUpdated.Hour() == now.Hour() && now.Sub(lastUpdated) < time.Hour
}
