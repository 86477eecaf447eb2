package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/tibber2mqtt/internal/config"
	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/internal/core/events"
	"github.com/berfenger/tibber2mqtt/internal/core/service"
	. "github.com/berfenger/tibber2mqtt/internal/util/actorutil"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// LiveStreamActor owns the Pulse subscription of one home. Sensors are
// announced to discovery one by one, the first time their field arrives
// non-nil.
type LiveStreamActor struct {
	behavior actor.Behavior
	stash    *Stash

	tibberActor *actor.PID
	mqttActor   *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	resets      *service.ResetTracker

	home      tibber.Home
	homeHash  string
	announced map[string]bool
	latest    *tibber.LiveMeasurement
	running   bool

	logger *zap.Logger
}

func NewLiveStreamActor(config *config.Config, home tibber.Home, tibberActor, mqttActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *LiveStreamActor {
	homeHash := domain.HomeHash(home.ID)
	act := &LiveStreamActor{
		config:      config,
		home:        home,
		homeHash:    homeHash,
		tibberActor: tibberActor,
		mqttActor:   mqttActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		eventStream: eventStream,
		resets:      service.NewResetTracker(),
		announced:   make(map[string]bool),
		logger:      ActorLogger(domain.ACTOR_ID_STREAM_PREFIX+homeHash, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *LiveStreamActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *LiveStreamActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("stream@default started")
		ctx.Request(state.tibberActor, domain.StartLiveStreamRequest{
			ActorRequestMixIn: domain.ActorRequestMixIn{
				ReplyToRef: (*domain.ActorRef)(ctx.Self()),
			},
			HomeID: state.home.ID,
		})
	case domain.StartLiveStreamResponse:
		if msg.HasResponseError() {
			state.logger.Error("stream@default could not start stream", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.logger.Debug("stream@default stream started")
	case domain.LiveMeasurementMessage:
		if msg.Measurement != nil {
			state.onMeasurement(ctx, msg.Measurement)
		}
	case domain.LiveStreamStateMessage:
		state.logger.Debug("stream@default state change", zap.Bool("running", msg.Running))
		state.running = msg.Running
		state.eventStream.Publish(events.HomeAvailabilityEvent(state.homeHash, msg.Running))
	case domain.ActorHealthRequest:
		state.logger.Debug("stream@default: ActorHealthRequest")
		healthState := fmt.Sprintf("running=%t", state.running)
		if state.latest != nil {
			healthState = fmt.Sprintf("running=%t last=%s", state.running, state.latest.Timestamp.Format(time.RFC3339))
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_STREAM_PREFIX + state.homeHash,
			Healthy: state.running,
			State:   healthState,
		})
	default:
		state.logger.Debug("stream@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *LiveStreamActor) onMeasurement(ctx actor.Context, m *tibber.LiveMeasurement) {
	state.latest = m
	state.announceNewSensors(ctx, m)

	// reset bookkeeping of cumulative counters
	for _, md := range domain.LiveSensors {
		if !md.HasLastReset() {
			continue
		}
		value := m.Field(md.Key)
		if value == nil {
			continue
		}
		if lastReset, changed := state.resets.Observe(md.Key, md.Reset, *value, m.Timestamp); changed {
			state.eventStream.Publish(events.LastResetUpdateEvent(state.homeHash, md.Key, lastReset))
		}
	}

	for _, ev := range events.LiveMeasurementToUpdateEvents(state.homeHash, m) {
		state.eventStream.Publish(ev)
	}

	state.eventStream.Publish(domain.LiveMeasurementEvent{
		HomeID:      state.home.ID,
		HomeHash:    state.homeHash,
		Measurement: m,
	})
}

// announceNewSensors publishes a discovery config for every sensor whose
// field shows up non-nil for the first time.
func (state *LiveStreamActor) announceNewSensors(ctx actor.Context, m *tibber.LiveMeasurement) {
	var sensors []domain.GenericSensor
	pulseDevice := domain.PulseDevice(state.home)
	for _, md := range domain.LiveSensors {
		if state.announced[md.Key] || m.Field(md.Key) == nil {
			continue
		}
		state.announced[md.Key] = true
		sensors = append(sensors, domain.LiveSensor(pulseDevice, state.home, md))
	}
	if len(sensors) > 0 {
		state.logger.Info("stream@announce publishing discovery", zap.Int("sensors", len(sensors)))
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		})
	}
}
