package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berfenger/tibber2mqtt/internal/config"
	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"
)

func testDiscoveryClient() *MQTTClient {
	return &MQTTClient{
		cfg: config.MQTTConfig{
			BaseTopic:        "tibber2mqtt",
			HADiscoveryTopic: "homeassistant",
		},
	}
}

func testDiscoveryHome(t *testing.T) tibber.Home {
	homes, err := tibber.CreateTestClient().GetHomes(nil)
	assert.NoError(t, err)
	return homes[0]
}

func TestHADiscoverySensorTopic(t *testing.T) {

	home := testDiscoveryHome(t)
	sensor := domain.PriceSensor(domain.PriceDevice(home), home, "NOK/kWh")

	topic := HADiscoverySensorTopic("homeassistant", sensor)
	assert.Equal(t, "homeassistant/sensor/"+sensor.Device.Id+"/"+sensor.Id+"/config", topic)
}

func TestPriceSensorDiscoveryMessage(t *testing.T) {

	client := testDiscoveryClient()
	home := testDiscoveryHome(t)
	hash := domain.HomeHash(home.ID)
	sensor := domain.PriceSensor(domain.PriceDevice(home), home, "NOK/kWh")

	msg := GenericSensorToHADiscoveryMessage(client, sensor)

	assert.Equal(t, "tibber2mqtt/sensor/"+sensor.Id+"/state", msg.StateTopic)
	assert.Equal(t, "NOK/kWh", msg.UnitOfMeasurement)
	assert.Equal(t, "mqtt", msg.Platform)
	// bridge plus per-home availability, both required
	assert.Equal(t, []HADiscoveryAvailability{
		{Topic: "tibber2mqtt/bridge/state"},
		{Topic: "tibber2mqtt/home/" + hash + "/state"},
	}, msg.Availability)
	assert.Equal(t, "all", msg.AvailabilityMode)
	assert.Equal(t, "tibber2mqtt/sensor/"+sensor.Id+"/attributes", msg.JsonAttributesTopic)
	assert.Empty(t, msg.LastResetValueTemplate)
}

func TestCumulativeSensorDiscoveryMessage(t *testing.T) {

	client := testDiscoveryClient()
	home := testDiscoveryHome(t)
	md, ok := domain.LiveSensorByKey(domain.SENSOR_KEY_ACCUMULATED_COST)
	assert.True(t, ok)
	sensor := domain.LiveSensor(domain.PulseDevice(home), home, md)

	msg := GenericSensorToHADiscoveryMessage(client, sensor)

	// cost is reported in the home currency
	assert.Equal(t, "NOK", msg.UnitOfMeasurement)
	assert.Equal(t, "tibber2mqtt/sensor/"+sensor.Id+"/attributes", msg.JsonAttributesTopic)
	assert.Equal(t, "{{ value_json.last_reset }}", msg.LastResetValueTemplate)
}

func TestBridgeSensorDiscoveryMessage(t *testing.T) {

	client := testDiscoveryClient()
	sensors := domain.BridgeSensors(domain.BridgeDevice("tibber2mqtt"))
	assert.Equal(t, 1, len(sensors))

	msg := GenericSensorToHADiscoveryMessage(client, sensors[0])

	assert.Equal(t, "tibber2mqtt/bridge/state", msg.StateTopic)
	assert.Empty(t, msg.Availability)
	assert.Equal(t, MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(t, MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
}
