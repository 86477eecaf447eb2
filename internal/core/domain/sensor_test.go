package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berfenger/tibber2mqtt/pkg/tibber"
)

func TestLiveSensorId(t *testing.T) {

	assert.Equal(t, "a1b2c3d4_power", LiveSensorId("a1b2c3d4", "power"))
	assert.Equal(t, "a1b2c3d4_accumulated_consumption_last_hour",
		LiveSensorId("a1b2c3d4", "accumulatedConsumptionLastHour"))
	assert.Equal(t, "a1b2c3d4_voltage_phase1", LiveSensorId("a1b2c3d4", "voltagePhase1"))
}

func TestHomeHashStable(t *testing.T) {

	hash := HomeHash(tibber.TestHomeID)
	assert.Equal(t, 8, len(hash))
	assert.Equal(t, hash, HomeHash(tibber.TestHomeID))
	assert.NotEqual(t, hash, HomeHash(tibber.TestInactiveHomeID))
}

func TestMonetarySensorUnit(t *testing.T) {

	homes, err := tibber.CreateTestClient().GetHomes(nil)
	assert.NoError(t, err)
	home := homes[0]
	device := PulseDevice(home)

	cost, ok := LiveSensorByKey(SENSOR_KEY_ACCUMULATED_COST)
	assert.True(t, ok)
	sensor := LiveSensor(device, home, cost)
	assert.Equal(t, "NOK", sensor.UnitOfMeasurement)
	assert.True(t, sensor.HasLastReset)

	power, ok := LiveSensorByKey("power")
	assert.True(t, ok)
	sensor = LiveSensor(device, home, power)
	assert.Equal(t, "W", sensor.UnitOfMeasurement)
	assert.False(t, sensor.HasLastReset)
}
