package tibber

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentPrice(t *testing.T) {

	now := time.Date(2024, 3, 12, 14, 25, 0, 0, time.UTC)
	info := TestPriceInfo(now)

	price := info.CurrentPrice(now)
	require.NotNil(t, price)
	assert.Equal(t, 14, price.StartsAt.Hour())
	assert.InDelta(t, 0.34, price.Total, 1e-9)
}

func TestCurrentPriceOutsideData(t *testing.T) {

	now := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)
	info := TestPriceInfo(now)

	price := info.CurrentPrice(now.Add(24 * time.Hour))
	assert.Nil(t, price)
}

func TestLastStartsAt(t *testing.T) {

	now := time.Date(2024, 3, 12, 14, 0, 0, 0, time.UTC)
	info := TestPriceInfo(now)

	last := info.LastStartsAt()
	assert.Equal(t, 23, last.Hour())
	assert.Equal(t, now.Day(), last.Day())

	empty := &PriceInfo{}
	assert.True(t, empty.LastStartsAt().IsZero())
}

func TestDayStats(t *testing.T) {

	info := TestPriceInfo(time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	max, avg, min, ok := info.DayStats()
	require.True(t, ok)
	assert.InDelta(t, 0.43, max, 1e-9)
	assert.InDelta(t, 0.20, min, 1e-9)
	assert.InDelta(t, 0.315, avg, 1e-9)
}

func TestHourRangeAverage(t *testing.T) {

	info := TestPriceInfo(time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))

	// hours 0..7: totals 0.20..0.27
	offPeak, ok := info.HourRangeAverage(0, 8)
	require.True(t, ok)
	assert.InDelta(t, 0.235, offPeak, 1e-9)

	_, ok = info.HourRangeAverage(24, 30)
	assert.False(t, ok)
}

func TestPriceUnit(t *testing.T) {

	info := TestPriceInfo(time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, "NOK/kWh", info.PriceUnit())

	empty := &PriceInfo{}
	assert.Equal(t, "", empty.PriceUnit())
}
