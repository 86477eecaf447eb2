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

type discoveryProbe struct {
	mu      sync.Mutex
	sensors []domain.GenericSensor
}

func (p *discoveryProbe) Receive(ctx actor.Context) {
	if msg, ok := ctx.Message().(domain.PublishDiscoveryRequest); ok {
		p.mu.Lock()
		p.sensors = append(p.sensors, msg.Sensors...)
		p.mu.Unlock()
	}
}

func (p *discoveryProbe) sensorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sensors)
}

func TestLiveStreamActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())

	as := actor.NewActorSystem()
	context := as.Root

	client := tibber.CreateTestClient()

	es := &eventstream.EventStream{}
	var mu sync.Mutex
	captured := make(map[string]domain.FloatSensorUpdateEvent)
	var availability []bool
	sub := es.Subscribe(func(value any) {
		mu.Lock()
		defer mu.Unlock()
		switch ev := value.(type) {
		case domain.FloatSensorUpdateEvent:
			captured[ev.Id] = ev
		case domain.HomeAvailabilityUpdateEvent:
			availability = append(availability, ev.Available)
		}
	})
	defer es.Unsubscribe(sub)

	tibberPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewTibberActor(client, 2*time.Second, logger)
	}))

	probe := &discoveryProbe{}
	mqttPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor { return probe }))

	home := homeForTest(client)
	homeHash := domain.HomeHash(home.ID)

	streamPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewLiveStreamActor(&cfg, home, tibberPID, mqttPID, es, logger)
	}))

	time.Sleep(1 * time.Second)

	assert.Len(client.Streams, 1, "stream opened")

	ts := time.Date(2024, 3, 12, 14, 25, 11, 0, time.UTC)
	client.Streams[0].Push(tibber.TestMeasurement(ts))

	time.Sleep(1 * time.Second)

	mu.Lock()
	power, ok := captured[domain.LiveSensorId(homeHash, "power")]
	assert.True(ok, "power event")
	assert.Equal(1563.0, power.Value, "power value")

	powerFactor, ok := captured[domain.LiveSensorId(homeHash, "powerFactor")]
	assert.True(ok, "power factor event")
	assert.Equal(87.0, powerFactor.Value, "power factor scaled to percent")

	_, ok = captured[domain.LiveSensorId(homeHash, "accumulatedProduction")]
	assert.False(ok, "no event for nil field")

	assert.Equal([]bool{true}, availability, "home available")
	mu.Unlock()

	// announced once, only the fields present in the payload
	assert.Equal(17, probe.sensorCount(), "announced sensors")

	client.Streams[0].Push(tibber.TestMeasurement(ts.Add(10 * time.Second)))

	time.Sleep(1 * time.Second)

	assert.Equal(17, probe.sensorCount(), "no re-announcement")

	context.Stop(streamPID)
	context.Stop(tibberPID)
	context.Stop(mqttPID)

	as.Shutdown()
}

func homeForTest(client tibber.Client) tibber.Home {
	homes, _ := client.GetHomes(nil)
	return homes[0]
}
