package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/internal/util/actorutil"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type TibberActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   tibber.Client
	timeout  time.Duration
	streams  map[string]tibber.LiveStream
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewTibberActor(client tibber.Client, timeout time.Duration, logger *zap.Logger) *TibberActor {
	act := &TibberActor{
		client:   client,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		streams:  make(map[string]tibber.LiveStream),
		logger:   actorutil.ActorLogger("tibber", logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *TibberActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *TibberActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("tibber@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TIBBER,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetHomesRequest:
		state.logger.Debug("tibber@default: GetHomesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getHomes),
			mapTaskResult[domain.GetHomesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetHomesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingTibber)
	case domain.GetPriceInfoRequest:
		state.logger.Debug("tibber@default: GetPriceInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		homeID := msg.HomeID

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.GetPriceInfoResponse, error) {
			return state.getPriceInfo(homeID)
		}), mapTaskResult[domain.GetPriceInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetPriceInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingTibber)
	case domain.StartLiveStreamRequest:
		state.logger.Debug("tibber@default: StartLiveStreamRequest", zap.String("homeId", msg.HomeID))
		owner := actorutil.ForRequest(msg).ReplyTo(ctx)
		resp := state.startLiveStream(ctx, msg.HomeID, owner)
		actorutil.ForRequest(msg).Respond(ctx, resp)
	case *actor.Stopping:
		state.closeStreams()
	default:
		state.logger.Debug("tibber@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *TibberActor) WaitingTibber(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("tibber@WaitingTibber backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.closeStreams()
	default:
		state.logger.Debug("tibber@WaitingTibber stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *TibberActor) getHomes() (*domain.GetHomesResponse, error) {
	cctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	homes, err := a.client.GetHomes(cctx)
	if err != nil {
		a.logger.Error("could not get homes", zap.Error(err))
		return nil, err
	}
	return &domain.GetHomesResponse{
		Homes: homes,
	}, nil
}

func (a *TibberActor) getPriceInfo(homeID string) (*domain.GetPriceInfoResponse, error) {
	cctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	home, prices, err := a.client.GetPriceInfo(cctx, homeID)
	if err != nil {
		a.logger.Error("could not get price info", zap.String("homeId", homeID), zap.Error(err))
		return nil, err
	}
	return &domain.GetPriceInfoResponse{
		Home:      home,
		PriceInfo: prices,
	}, nil
}

func (state *TibberActor) startLiveStream(ctx actor.Context, homeID string, owner *actor.PID) domain.StartLiveStreamResponse {
	if _, ok := state.streams[homeID]; ok {
		return domain.StartLiveStreamResponse{}
	}
	root := ctx.ActorSystem().Root
	// handler runs on the stream goroutine, so route through the root context
	stream, err := state.client.OpenLiveStream(homeID, func(msg tibber.StreamMessage) {
		switch {
		case msg.Measurement != nil:
			root.Send(owner, domain.LiveMeasurementMessage{
				HomeID:      msg.HomeID,
				Measurement: msg.Measurement,
			})
		case msg.Err != nil:
			state.logger.Warn("live stream error", zap.String("homeId", msg.HomeID), zap.Error(msg.Err))
		default:
			root.Send(owner, domain.LiveStreamStateMessage{
				HomeID:  msg.HomeID,
				Running: msg.Running,
			})
		}
	})
	if err != nil {
		state.logger.Error("could not open live stream", zap.String("homeId", homeID), zap.Error(err))
		return domain.StartLiveStreamResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	}
	state.streams[homeID] = stream
	return domain.StartLiveStreamResponse{}
}

func (state *TibberActor) closeStreams() {
	for id, stream := range state.streams {
		stream.Close()
		delete(state.streams, id)
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
