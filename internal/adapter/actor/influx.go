package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/tibber2mqtt/internal/config"
	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// InfluxActor records live measurements into an InfluxDB bucket. It is only
// spawned when the influx section of the config is enabled.
type InfluxActor struct {
	config         *config.Config
	behavior       actor.Behavior
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	client         influxdb2.Client
	writeAPI       api.WriteAPIBlocking
	logger         *zap.Logger
}

func NewInfluxActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *InfluxActor {
	act := &InfluxActor{
		config:      config,
		eventStream: eventStream,
		behavior:    actor.NewBehavior(),
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_INFLUX, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *InfluxActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *InfluxActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("influx@default started")
		state.client = influxdb2.NewClient(state.config.InfluxConfig.URL, state.config.InfluxConfig.Token)
		state.writeAPI = state.client.WriteAPIBlocking(state.config.InfluxConfig.Org, state.config.InfluxConfig.Bucket)
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			if event, ok := value.(domain.LiveMeasurementEvent); ok {
				ctx.Send(ctx.Self(), event)
			}
		})
	case domain.LiveMeasurementEvent:
		if err := state.writeMeasurement(msg); err != nil {
			state.logger.Error("influx@default write failed", zap.Error(err))
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("influx@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_INFLUX,
			Healthy: true,
			State:   "idle",
		})
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("influx@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *InfluxActor) writeMeasurement(event domain.LiveMeasurementEvent) error {
	if event.Measurement == nil {
		return nil
	}
	fields := make(map[string]any)
	for _, meta := range domain.LiveSensors {
		if value := event.Measurement.Field(meta.Key); value != nil {
			fields[meta.Key] = *value
		}
	}
	if len(fields) == 0 {
		return nil
	}
	point := influxdb2.NewPoint("live_measurement", map[string]string{
		"home_id": event.HomeID,
	}, fields, event.Measurement.Timestamp)

	cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := state.writeAPI.WritePoint(cctx, point); err != nil {
		return errors.Wrap(err, "failed to write live measurement point")
	}
	return nil
}

func (state *InfluxActor) stop() {
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Close()
	}
}
