package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"
)

func TestLiveMeasurementToUpdateEvents(t *testing.T) {

	m := tibber.TestMeasurement(time.Date(2024, 3, 12, 14, 25, 11, 0, time.UTC))
	events := LiveMeasurementToUpdateEvents("a1b2c3d4", &m)

	byId := map[string]domain.FloatSensorUpdateEvent{}
	for _, event := range events {
		fe, ok := event.(domain.FloatSensorUpdateEvent)
		assert.True(t, ok)
		byId[fe.Id] = fe
	}
	// one event per non-nil field
	assert.Equal(t, 17, len(byId))

	power, ok := byId[domain.LiveSensorId("a1b2c3d4", "power")]
	assert.True(t, ok)
	assert.Equal(t, 1563.0, power.Value)
	assert.Equal(t, uint(2), power.Decimals)

	// power factor is reported as a fraction, published as a percentage
	pf, ok := byId[domain.LiveSensorId("a1b2c3d4", domain.SENSOR_KEY_POWER_FACTOR)]
	assert.True(t, ok)
	assert.InDelta(t, 87.0, pf.Value, 0.001)

	// nil fields produce no event
	_, ok = byId[domain.LiveSensorId("a1b2c3d4", "accumulatedProduction")]
	assert.False(t, ok)
}

func TestLastResetUpdateEvent(t *testing.T) {

	reset := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	event := LastResetUpdateEvent("a1b2c3d4", domain.SENSOR_KEY_ACCUMULATED_COST, reset)

	attrs, ok := event.(domain.AttributesUpdateEvent)
	assert.True(t, ok)
	assert.Equal(t, domain.LiveSensorId("a1b2c3d4", domain.SENSOR_KEY_ACCUMULATED_COST), attrs.Id)
	assert.Equal(t, "2024-03-12T00:00:00Z", attrs.Attributes["last_reset"])
}

func TestPriceUpdateEvents(t *testing.T) {

	now := time.Date(2024, 3, 12, 14, 40, 0, 0, time.UTC)
	info := tibber.TestPriceInfo(now)

	events := PriceUpdateEvents("a1b2c3d4", info.Current, map[string]any{"price_level": "NORMAL"})
	assert.Equal(t, 2, len(events))

	state, ok := events[0].(domain.FloatSensorUpdateEvent)
	assert.True(t, ok)
	assert.Equal(t, domain.PriceSensorId("a1b2c3d4"), state.Id)
	assert.InDelta(t, 0.34, state.Value, 0.001)
	assert.Equal(t, uint(4), state.Decimals)

	attrs, ok := events[1].(domain.AttributesUpdateEvent)
	assert.True(t, ok)
	assert.Equal(t, domain.PriceSensorId("a1b2c3d4"), attrs.Id)
	assert.Equal(t, "NORMAL", attrs.Attributes["price_level"])
}

func TestPriceAttributes(t *testing.T) {

	client := tibber.CreateTestClient()
	homes, err := client.GetHomes(nil)
	assert.NoError(t, err)
	home := homes[0]

	now := time.Date(2024, 3, 12, 14, 40, 0, 0, time.UTC)
	info := tibber.TestPriceInfo(now)

	attrs := PriceAttributes(home, info, info.Current)

	assert.Equal(t, "Vitahuset", attrs["app_nickname"])
	assert.Equal(t, "Testnett AS", attrs["grid_company"])
	assert.Equal(t, "NORMAL", attrs["price_level"])
	assert.InDelta(t, 0.43, attrs["max_price"].(float64), 0.001)
	assert.InDelta(t, 0.315, attrs["avg_price"].(float64), 0.001)
	assert.InDelta(t, 0.20, attrs["min_price"].(float64), 0.001)
	assert.InDelta(t, 0.235, attrs["off_peak_1"].(float64), 0.001)
	assert.InDelta(t, 0.335, attrs["peak"].(float64), 0.001)
	assert.InDelta(t, 0.415, attrs["off_peak_2"].(float64), 0.001)
}

func TestHomeAvailabilityEvent(t *testing.T) {

	event := HomeAvailabilityEvent("a1b2c3d4", true)

	av, ok := event.(domain.HomeAvailabilityUpdateEvent)
	assert.True(t, ok)
	assert.Equal(t, "a1b2c3d4", av.HomeHash)
	assert.True(t, av.Available)
}
