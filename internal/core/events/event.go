package events

import (
	"time"

	. "github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"
)

// LiveMeasurementToUpdateEvents maps one Pulse payload to sensor updates.
// Nil fields are skipped; powerFactor is scaled from fraction to percent.
func LiveMeasurementToUpdateEvents(homeHash string, m *tibber.LiveMeasurement) []any {
	var events []any

	for _, md := range LiveSensors {
		value := m.Field(md.Key)
		if value == nil {
			continue
		}
		state := *value
		if md.Key == SENSOR_KEY_POWER_FACTOR {
			state *= 100.0
		}
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: LiveSensorId(homeHash, md.Key),
			},
			Value:    state,
			Decimals: md.Decimals,
		})
	}

	return events
}

// LastResetUpdateEvent publishes the reset timestamp of a cumulative sensor
// as its attribute document.
func LastResetUpdateEvent(homeHash, key string, lastReset time.Time) any {
	return AttributesUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: LiveSensorId(homeHash, key),
		},
		Attributes: map[string]any{
			"last_reset": lastReset.UTC().Format(time.RFC3339),
		},
	}
}

// PriceUpdateEvents maps the current hourly price plus its day statistics to
// the price sensor state and attribute documents.
func PriceUpdateEvents(homeHash string, price *tibber.Price, attrs map[string]any) []any {
	var events []any

	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: PriceSensorId(homeHash),
		},
		Value:    price.Total,
		Decimals: 4,
	})
	events = append(events, AttributesUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: PriceSensorId(homeHash),
		},
		Attributes: attrs,
	})

	return events
}

// PriceAttributes builds the attribute document of the price sensor.
func PriceAttributes(home tibber.Home, info *tibber.PriceInfo, price *tibber.Price) map[string]any {
	attrs := map[string]any{
		"app_nickname":                 home.AppNickname,
		"grid_company":                 home.MeteringPointData.GridCompany,
		"estimated_annual_consumption": home.MeteringPointData.EstimatedAnnualConsumption,
		"consumption_ean":              home.MeteringPointData.ConsumptionEAN,
	}
	if price != nil {
		attrs["price_level"] = price.Level
	}
	if max, avg, min, ok := info.DayStats(); ok {
		attrs["max_price"] = max
		attrs["avg_price"] = avg
		attrs["min_price"] = min
	}
	if offPeak1, ok := info.HourRangeAverage(0, 8); ok {
		attrs["off_peak_1"] = offPeak1
	}
	if peak, ok := info.HourRangeAverage(8, 20); ok {
		attrs["peak"] = peak
	}
	if offPeak2, ok := info.HourRangeAverage(20, 24); ok {
		attrs["off_peak_2"] = offPeak2
	}
	return attrs
}

func HomeAvailabilityEvent(homeHash string, available bool) any {
	return HomeAvailabilityUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: homeHash,
		},
		HomeHash:  homeHash,
		Available: available,
	}
}
