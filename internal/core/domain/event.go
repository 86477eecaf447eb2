package domain

import (
	"fmt"

	"github.com/berfenger/tibber2mqtt/pkg/tibber"
)

type SensorUpdateEventMixIn struct {
	Id string
}

type SensorUpdateEvent interface {
	SensorUpdateEvent() string
	SensorId() string
}

func (e SensorUpdateEventMixIn) SensorUpdateEvent() string {
	return fmt.Sprintf("%T", e)
}

func (e SensorUpdateEventMixIn) SensorId() string {
	return e.Id
}

type FloatSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value    float64
	Decimals uint
}

type TextSensorUpdateEvent struct {
	SensorUpdateEventMixIn
	Value string
}

// AttributesUpdateEvent replaces the attribute document of a sensor.
type AttributesUpdateEvent struct {
	SensorUpdateEventMixIn
	Attributes map[string]any
}

type BridgeStateUpdateEvent struct {
	SensorUpdateEventMixIn
	Value bool
}

// HomeAvailabilityUpdateEvent drives the per-home availability topic.
type HomeAvailabilityUpdateEvent struct {
	SensorUpdateEventMixIn
	HomeHash  string
	Available bool
}

// LiveMeasurementEvent fans the raw payload out to secondary sinks.
type LiveMeasurementEvent struct {
	HomeID      string
	HomeHash    string
	Measurement *tibber.LiveMeasurement
}
