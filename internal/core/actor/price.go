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
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PriceActor polls hourly energy prices for one home and publishes the price
// sensor state whenever the current hour changes.
type PriceActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	tibberActor *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	policy      service.PricePolicy

	home     tibber.Home
	homeHash string

	priceInfo    *tibber.PriceInfo
	currentPrice *tibber.Price
	attributes   map[string]any
	available    bool
	lastFetch    time.Time
	lastUpdated  time.Time

	logger *zap.Logger
}

type priceTick struct {
}

func NewPriceActor(config *config.Config, home tibber.Home, tibberActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PriceActor {
	homeHash := domain.HomeHash(home.ID)
	act := &PriceActor{
		config:      config,
		home:        home,
		homeHash:    homeHash,
		tibberActor: tibberActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		eventStream: eventStream,
		policy: service.NewPricePolicy(
			time.Duration(config.MonitorConfig.PriceMinFetchIntervalMillis)*time.Millisecond,
			time.Duration(config.MonitorConfig.PriceStaleWindowMillis)*time.Millisecond),
		logger: ActorLogger(domain.ACTOR_ID_PRICE_PREFIX+homeHash, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *PriceActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PriceActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("price@default started")
		if state.config.MonitorConfig.PollIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalMillis)*time.Millisecond, ctx.Self(), priceTick{})
		}
		state.fetchPriceInfo(ctx)
	case domain.ActorHealthRequest:
		state.logger.Debug("price@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PRICE_PREFIX + state.homeHash,
			Healthy: state.priceInfo != nil,
			State:   fmt.Sprintf("available=%t", state.available),
		})
	case priceTick:
		state.logger.Debug("price@default tick")
		state.evaluate(ctx, time.Now())
		state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalMillis)*time.Millisecond, ctx.Self(), priceTick{})
	case domain.PriceTickMessage:
		state.logger.Debug("price@default PriceTickMessage")
		state.evaluate(ctx, time.Now())
	case domain.PriceRefreshRequest:
		state.logger.Debug("price@default PriceRefreshRequest")
		state.fetchPriceInfo(ctx)
	case domain.PriceSnapshotRequest:
		state.logger.Debug("price@default PriceSnapshotRequest")
		ForRequest(msg).Respond(ctx, domain.PriceSnapshotResponse{
			HomeID:     state.home.ID,
			HomeName:   state.home.Name(),
			Price:      state.currentPrice,
			Unit:       state.priceUnit(),
			Attributes: state.attributes,
			UpdatedAt:  state.lastUpdated,
		})
	default:
		state.logger.Debug("price@default: ignore", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PriceActor) WaitingPriceInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetPriceInfoResponse:
		if msg.HasResponseError() {
			state.logger.Error("price@waiting GetPriceInfoResponse error", zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("price@waiting GetPriceInfoResponse")
			if msg.Home != nil {
				state.home = *msg.Home
			}
			state.priceInfo = msg.PriceInfo
		}
		state.publishCurrentPrice(ctx, time.Now())
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("price@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// evaluate refreshes price data from the API when it is missing or about to
// run out, otherwise it recomputes the current hour from the cached data.
func (state *PriceActor) evaluate(ctx actor.Context, now time.Time) {
	if state.needsData(now) && state.policy.CanFetch(now, state.lastFetch) {
		state.fetchPriceInfo(ctx)
		return
	}
	if !state.policy.UpToDate(now, state.lastUpdated, state.currentPrice != nil) {
		state.publishCurrentPrice(ctx, now)
	}
}

func (state *PriceActor) needsData(now time.Time) bool {
	if state.priceInfo == nil {
		return true
	}
	return state.policy.NeedsData(now, state.priceInfo.LastStartsAt(), state.available)
}

func (state *PriceActor) fetchPriceInfo(ctx actor.Context) {
	state.lastFetch = time.Now()
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.tibberActor, domain.GetPriceInfoRequest{HomeID: state.home.ID}, 15*time.Second), func(err error) any {
		return domain.GetPriceInfoResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
	state.behavior.BecomeStacked(state.WaitingPriceInfoReceive)
}

func (state *PriceActor) publishCurrentPrice(ctx actor.Context, now time.Time) {
	var price *tibber.Price
	if state.priceInfo != nil {
		price = state.priceInfo.CurrentPrice(now)
	}
	state.currentPrice = price

	available := price != nil
	if available != state.available {
		state.available = available
		// homes with a Pulse get their availability from the live stream
		if !state.home.HasRealTimeConsumption() {
			state.eventStream.Publish(events.HomeAvailabilityEvent(state.homeHash, available))
		}
	}
	if price == nil {
		state.logger.Warn("price@publish no price for the current hour")
		return
	}

	state.attributes = events.PriceAttributes(state.home, state.priceInfo, price)
	for _, ev := range events.PriceUpdateEvents(state.homeHash, price, state.attributes) {
		state.eventStream.Publish(ev)
	}
	state.lastUpdated = now
}

func (state *PriceActor) priceUnit() string {
	if state.priceInfo != nil {
		return state.priceInfo.PriceUnit()
	}
	return ""
}
