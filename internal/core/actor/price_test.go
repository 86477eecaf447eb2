package actor

import (
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/tibber2mqtt/internal/adapter/actor"
	"github.com/berfenger/tibber2mqtt/internal/core/domain"
	"github.com/berfenger/tibber2mqtt/internal/util"
	"github.com/berfenger/tibber2mqtt/pkg/tibber"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPriceActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	as := actor.NewActorSystem()
	context := as.Root

	client := tibber.CreateTestClient()

	es := &eventstream.EventStream{}
	var mu sync.Mutex
	var floats []domain.FloatSensorUpdateEvent
	var attrs []domain.AttributesUpdateEvent
	sub := es.Subscribe(func(value any) {
		mu.Lock()
		defer mu.Unlock()
		switch ev := value.(type) {
		case domain.FloatSensorUpdateEvent:
			floats = append(floats, ev)
		case domain.AttributesUpdateEvent:
			attrs = append(attrs, ev)
		}
	})
	defer es.Unsubscribe(sub)

	tibberPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewTibberActor(client, 2*time.Second, logger)
	}))

	home := homeForTest(client)
	homeHash := domain.HomeHash(home.ID)

	pricePID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPriceActor(&cfg, home, tibberPID, es, logger)
	}))

	time.Sleep(2 * time.Second)

	now := time.Now()
	wantPrice := 0.20 + 0.01*float64(now.Hour())

	mu.Lock()
	if assert.NotEmpty(floats, "price state published") {
		assert.Equal(domain.PriceSensorId(homeHash), floats[0].Id, "price sensor id")
		assert.InDelta(wantPrice, floats[0].Value, 0.011, "current hour price")
		assert.Equal(uint(4), floats[0].Decimals, "price decimals")
	}
	if assert.NotEmpty(attrs, "price attributes published") {
		doc := attrs[0].Attributes
		assert.Equal("Vitahuset", doc["app_nickname"], "app nickname")
		assert.Equal("Testnett AS", doc["grid_company"], "grid company")
		assert.InDelta(0.43, doc["max_price"].(float64), 0.0001, "max price")
		assert.InDelta(0.20, doc["min_price"].(float64), 0.0001, "min price")
		assert.InDelta(0.315, doc["avg_price"].(float64), 0.0001, "avg price")
	}
	mu.Unlock()

	res, err := context.RequestFuture(pricePID, domain.PriceSnapshotRequest{HomeID: home.ID}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snap, ok := res.(domain.PriceSnapshotResponse)
	assert.True(ok, "snapshot response")
	assert.NotNil(snap.Price, "snapshot price")
	assert.Equal("NOK/kWh", snap.Unit, "snapshot unit")
	assert.Equal("Vitahuset", snap.HomeName, "snapshot name")

	context.Stop(pricePID)
	context.Stop(tibberPID)

	as.Shutdown()
}
