package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/tibber2mqtt/internal/adapter/actor"
	"github.com/berfenger/tibber2mqtt/internal/config"
	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	. "github.com/berfenger/tibber2mqtt/internal/util/actorutil"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type TibberActorProvider func() *adactor.TibberActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck  healthCheckResult
	eventStream         *eventstream.EventStream
	tibberActor         *actor.PID
	mqttActor           *actor.PID
	priceActors         map[string]*actor.PID
	streamActors        map[string]*actor.PID
	homes               []tibber.Home
	tibberActorProvider TibberActorProvider
	mqttActorProvider   MQTTActorProvider
	logger              *zap.Logger
}

type healthCheckResult struct {
	healthyById    map[string]bool
	checksExpected int
	checksReceived int
	respondTo      *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, tibberActorProvider TibberActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         &eventstream.EventStream{},
		priceActors:         make(map[string]*actor.PID),
		streamActors:        make(map[string]*actor.PID),
		tibberActorProvider: tibberActorProvider,
		mqttActorProvider:   mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(nil)

		// start Tibber child
		tibberActorPID, err := state.startTibberActor(ctx)
		if err != nil {
			panic(err)
		}
		state.tibberActor = tibberActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start Influx child
		if state.config.InfluxConfig.Enable {
			if _, err := state.startInfluxActor(ctx); err != nil {
				panic(err)
			}
		}

		// discover homes, then spawn the per-home children
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.tibberActor, domain.GetHomesRequest{}, 30*time.Second), func(err error) any {
			return domain.GetHomesResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingHomesReceive)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) WaitingHomesReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetHomesResponse:
		if msg.HasResponseError() {
			state.logger.Error("master@waitingHomes GetHomesResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.logger.Info("master@waitingHomes homes discovered", zap.Int("homes", len(msg.Homes)))
		state.homes = msg.Homes

		for _, home := range msg.Homes {
			if !home.HasActiveSubscription() {
				state.logger.Info("master@waitingHomes skipping home without active subscription", zap.String("home", home.Name()))
				continue
			}
			homeHash := domain.HomeHash(home.ID)
			pricePID, err := state.startPriceActor(ctx, home, homeHash)
			if err != nil {
				panic(err)
			}
			state.priceActors[homeHash] = pricePID

			if home.HasRealTimeConsumption() {
				streamPID, err := state.startLiveStreamActor(ctx, home, homeHash)
				if err != nil {
					panic(err)
				}
				state.streamActors[homeHash] = streamPID
			}
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@waitingHomes stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		expected := map[string]*actor.PID{
			domain.ACTOR_ID_TIBBER: state.tibberActor,
			domain.ACTOR_ID_MQTT:   state.mqttActor,
		}
		for hash, pid := range state.priceActors {
			expected[domain.ACTOR_ID_PRICE_PREFIX+hash] = pid
		}
		for hash, pid := range state.streamActors {
			expected[domain.ACTOR_ID_STREAM_PREFIX+hash] = pid
		}
		state.currentHealthCheck.reset(expected)
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range expected {
			actorId := id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      actorId,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
			if err == nil && cmd != nil {
				switch pcmd := cmd.(type) {
				case domain.PriceRefreshRequest:
					if pid, ok := state.priceActors[pcmd.HomeHash]; ok {
						ctx.Send(pid, pcmd)
					}
				}
			}
		}
	case domain.PriceTickMessage:
		state.logger.Debug("master@default PriceTickMessage")
		for _, pid := range state.priceActors {
			ctx.Send(pid, msg)
		}
	case domain.PriceSnapshotRequest:
		state.logger.Debug("master@default PriceSnapshotRequest", zap.String("homeId", msg.HomeID))
		if pid, ok := state.priceActors[domain.HomeHash(msg.HomeID)]; ok {
			ctx.Forward(pid)
		} else {
			ForRequest(msg).Respond(ctx, domain.PriceSnapshotResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: errors.New("unknown home"),
				},
			})
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_TIBBER) {
			state.logger.Error("master@default tibber error")
			panic(errors.New("tibber terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthyById[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startTibberActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	tibberProps := actor.PropsFromProducer(func() actor.Actor {
		return state.tibberActorProvider()
	}, actor.WithSupervisor(supervisor))
	tibberActorPID, err := ctx.SpawnNamed(tibberProps, domain.ACTOR_ID_TIBBER)
	if err != nil {
		return nil, err
	}

	return tibberActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startInfluxActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	influxProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewInfluxActor(&state.config, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	influxActorPID, err := ctx.SpawnNamed(influxProps, domain.ACTOR_ID_INFLUX)
	if err != nil {
		return nil, err
	}

	return influxActorPID, nil
}

func (state *MasterOfPuppetsActor) startPriceActor(ctx actor.Context, home tibber.Home, homeHash string) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	priceProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPriceActor(&state.config, home, state.tibberActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	pricePID, err := ctx.SpawnNamed(priceProps, domain.ACTOR_ID_PRICE_PREFIX+homeHash)
	if err != nil {
		return nil, err
	}

	return pricePID, nil
}

func (state *MasterOfPuppetsActor) startLiveStreamActor(ctx actor.Context, home tibber.Home, homeHash string) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	streamProps := actor.PropsFromProducer(func() actor.Actor {
		return NewLiveStreamActor(&state.config, home, state.tibberActor, state.mqttActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	streamPID, err := ctx.SpawnNamed(streamProps, domain.ACTOR_ID_STREAM_PREFIX+homeHash)
	if err != nil {
		return nil, err
	}

	return streamPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.homes, state.tibberActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset(expected map[string]*actor.PID) {
	state.healthyById = make(map[string]bool)
	state.checksExpected = len(expected)
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= state.checksExpected
}

func (state *healthCheckResult) allHealthy() bool {
	if len(state.healthyById) < state.checksExpected {
		return false
	}
	for _, healthy := range state.healthyById {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
