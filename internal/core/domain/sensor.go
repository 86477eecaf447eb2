package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/berfenger/tibber2mqtt/pkg/tibber"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge"

	SENSOR_KEY_ACCUMULATED_COST   = "accumulatedCost"
	SENSOR_KEY_ACCUMULATED_REWARD = "accumulatedReward"
	SENSOR_KEY_POWER_FACTOR       = "powerFactor"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"

	DEVICE_CLASS_CURRENT         = "current"
	DEVICE_CLASS_ENERGY          = "energy"
	DEVICE_CLASS_MONETARY        = "monetary"
	DEVICE_CLASS_POWER           = "power"
	DEVICE_CLASS_POWER_FACTOR    = "power_factor"
	DEVICE_CLASS_SIGNAL_STRENGTH = "signal_strength"
	DEVICE_CLASS_VOLTAGE         = "voltage"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"

	PRICE_SENSOR_ICON = "mdi:currency-usd"
)

// ResetKind tells when a cumulative counter starts over.
type ResetKind int

const (
	ResetNone ResetKind = iota
	ResetHourly
	ResetDaily
	ResetNever
)

// SensorMetadata describes one live measurement sensor. Key is the wire name
// of the payload field.
type SensorMetadata struct {
	Key         string
	Name        string
	DeviceClass string
	Unit        string
	StateClass  string
	Reset       ResetKind
	Decimals    uint
}

// HasLastReset reports whether the sensor tracks a reset timestamp.
func (m SensorMetadata) HasLastReset() bool {
	return m.Reset != ResetNone
}

var LiveSensors = []SensorMetadata{
	{Key: "averagePower", Name: "Average power", DeviceClass: DEVICE_CLASS_POWER, Unit: "W", Decimals: 2},
	{Key: "power", Name: "Power", DeviceClass: DEVICE_CLASS_POWER, Unit: "W", Decimals: 2},
	{Key: "powerProduction", Name: "Power production", DeviceClass: DEVICE_CLASS_POWER, Unit: "W", Decimals: 2},
	{Key: "minPower", Name: "Min power", DeviceClass: DEVICE_CLASS_POWER, Unit: "W", Decimals: 2},
	{Key: "maxPower", Name: "Max power", DeviceClass: DEVICE_CLASS_POWER, Unit: "W", Decimals: 2},
	{Key: "accumulatedConsumption", Name: "Accumulated consumption", DeviceClass: DEVICE_CLASS_ENERGY, Unit: "kWh",
		StateClass: STATE_CLASS_MEASUREMENT, Reset: ResetDaily, Decimals: 3},
	{Key: "accumulatedConsumptionLastHour", Name: "Accumulated consumption current hour", DeviceClass: DEVICE_CLASS_ENERGY, Unit: "kWh",
		StateClass: STATE_CLASS_MEASUREMENT, Reset: ResetHourly, Decimals: 3},
	{Key: "accumulatedProduction", Name: "Accumulated production", DeviceClass: DEVICE_CLASS_ENERGY, Unit: "kWh",
		StateClass: STATE_CLASS_MEASUREMENT, Reset: ResetDaily, Decimals: 3},
	{Key: "accumulatedProductionLastHour", Name: "Accumulated production current hour", DeviceClass: DEVICE_CLASS_ENERGY, Unit: "kWh",
		StateClass: STATE_CLASS_MEASUREMENT, Reset: ResetHourly, Decimals: 3},
	{Key: "lastMeterConsumption", Name: "Last meter consumption", DeviceClass: DEVICE_CLASS_ENERGY, Unit: "kWh",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 3},
	{Key: "lastMeterProduction", Name: "Last meter production", DeviceClass: DEVICE_CLASS_ENERGY, Unit: "kWh",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 3},
	{Key: "voltagePhase1", Name: "Voltage phase1", DeviceClass: DEVICE_CLASS_VOLTAGE, Unit: "V",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Key: "voltagePhase2", Name: "Voltage phase2", DeviceClass: DEVICE_CLASS_VOLTAGE, Unit: "V",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Key: "voltagePhase3", Name: "Voltage phase3", DeviceClass: DEVICE_CLASS_VOLTAGE, Unit: "V",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Key: "currentL1", Name: "Current L1", DeviceClass: DEVICE_CLASS_CURRENT, Unit: "A",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Key: "currentL2", Name: "Current L2", DeviceClass: DEVICE_CLASS_CURRENT, Unit: "A",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Key: "currentL3", Name: "Current L3", DeviceClass: DEVICE_CLASS_CURRENT, Unit: "A",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
	{Key: "signalStrength", Name: "Signal strength", DeviceClass: DEVICE_CLASS_SIGNAL_STRENGTH, Unit: "dB",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 0},
	{Key: SENSOR_KEY_ACCUMULATED_REWARD, Name: "Accumulated reward", DeviceClass: DEVICE_CLASS_MONETARY,
		StateClass: STATE_CLASS_MEASUREMENT, Reset: ResetDaily, Decimals: 2},
	{Key: SENSOR_KEY_ACCUMULATED_COST, Name: "Accumulated cost", DeviceClass: DEVICE_CLASS_MONETARY,
		StateClass: STATE_CLASS_MEASUREMENT, Reset: ResetDaily, Decimals: 2},
	{Key: SENSOR_KEY_POWER_FACTOR, Name: "Power factor", DeviceClass: DEVICE_CLASS_POWER_FACTOR, Unit: "%",
		StateClass: STATE_CLASS_MEASUREMENT, Decimals: 1},
}

// LiveSensorByKey resolves a descriptor, ok=false for unknown keys.
func LiveSensorByKey(key string) (SensorMetadata, bool) {
	for _, md := range LiveSensors {
		if md.Key == key {
			return md, true
		}
	}
	return SensorMetadata{}, false
}

// HomeHash is the short stable id a home contributes to topics and entity ids.
func HomeHash(homeID string) string {
	return md5HashShort(homeID)
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("tibber2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Tibber2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Tibber2MQTT %s", md5HashShort(baseTopic)),
	}
}

func PriceDevice(home tibber.Home) Device {
	return Device{
		Id:           fmt.Sprintf("tib_price_%s", HomeHash(home.ID)),
		Manufacturer: "Tibber",
		Model:        "Price Sensor",
		Name:         fmt.Sprintf("Electricity price %s", home.Name()),
	}
}

func PulseDevice(home tibber.Home) Device {
	return Device{
		Id:           fmt.Sprintf("tib_pulse_%s", HomeHash(home.ID)),
		Manufacturer: "Tibber",
		Model:        "Tibber Pulse",
		Name:         fmt.Sprintf("Tibber Pulse %s", home.Name()),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

// PriceSensorId returns the sensor id of the electricity price sensor.
func PriceSensorId(homeHash string) string {
	return fmt.Sprintf("%s_price", homeHash)
}

// LiveSensorId returns the sensor id of a live measurement sensor.
func LiveSensorId(homeHash, key string) string {
	return fmt.Sprintf("%s_%s", homeHash, snakeCase(key))
}

func PriceSensor(priceDevice Device, home tibber.Home, unit string) GenericSensor {
	homeHash := HomeHash(home.ID)
	id := PriceSensorId(homeHash)
	return GenericSensor{
		Device:            priceDevice,
		Id:                id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Electricity price %s", home.Name()),
		DeviceClass:       DEVICE_CLASS_MONETARY,
		UnitOfMeasurement: unit,
		Icon:              PRICE_SENSOR_ICON,
		UniqueId:          uniqueId(priceDevice.Id, id),
		HomeHash:          homeHash,
		HasAttributes:     true,
	}
}

func LiveSensor(pulseDevice Device, home tibber.Home, md SensorMetadata) GenericSensor {
	homeHash := HomeHash(home.ID)
	id := LiveSensorId(homeHash, md.Key)
	unit := md.Unit
	if md.Key == SENSOR_KEY_ACCUMULATED_COST || md.Key == SENSOR_KEY_ACCUMULATED_REWARD {
		unit = home.Currency()
	}
	return GenericSensor{
		Device:            pulseDevice,
		Id:                id,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("%s %s", md.Name, home.Name()),
		DeviceClass:       md.DeviceClass,
		StateClass:        md.StateClass,
		UnitOfMeasurement: unit,
		UniqueId:          uniqueId(pulseDevice.Id, id),
		HomeHash:          homeHash,
		HasAttributes:     md.HasLastReset(),
		HasLastReset:      md.HasLastReset(),
	}
}

func snakeCase(key string) string {
	var sb strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r - 'A' + 'a')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
