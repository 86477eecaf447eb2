package domain

import (
	"time"

	"github.com/berfenger/tibber2mqtt/pkg/tibber"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_TIBBER       = "tibber"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
	ACTOR_ID_INFLUX       = "influx"

	// per-home children are named <prefix><home hash>
	ACTOR_ID_PRICE_PREFIX  = "price_"
	ACTOR_ID_STREAM_PREFIX = "stream_"
)

type GetHomesRequest struct {
	ActorRequestMixIn
}

type GetHomesResponse struct {
	ActorResponseMixIn
	Homes []tibber.Home
}

type GetPriceInfoRequest struct {
	ActorRequestMixIn
	HomeID string
}

type GetPriceInfoResponse struct {
	ActorResponseMixIn
	Home      *tibber.Home
	PriceInfo *tibber.PriceInfo
}

type StartLiveStreamRequest struct {
	ActorRequestMixIn
	HomeID string
}

type StartLiveStreamResponse struct {
	ActorResponseMixIn
}

// LiveMeasurementMessage is delivered to the stream owner for every payload.
type LiveMeasurementMessage struct {
	HomeID      string
	Measurement *tibber.LiveMeasurement
}

// LiveStreamStateMessage reports subscription up/down transitions.
type LiveStreamStateMessage struct {
	HomeID  string
	Running bool
}

// PriceTickMessage forces the price pollers to re-evaluate, e.g. at the top
// of the hour or on an MQTT refresh command.
type PriceTickMessage struct {
}

type PriceRefreshRequest struct {
	ActorRequestMixIn
	HomeHash string
}

type PriceSnapshotRequest struct {
	ActorRequestMixIn
	HomeID string
}

type PriceSnapshotResponse struct {
	ActorResponseMixIn
	HomeID     string
	HomeName   string
	Price      *tibber.Price
	Unit       string
	Attributes map[string]any
	UpdatedAt  time.Time
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
