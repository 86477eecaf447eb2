package actor

import (
	"fmt"
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

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	client := tibber.CreateTestClient()

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.TibberActor {
			return adactor.NewTibberActor(client, 2*time.Second, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	res, err = context.RequestFuture(pid, domain.PriceSnapshotRequest{HomeID: tibber.TestHomeID}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snapResp, ok := res.(domain.PriceSnapshotResponse)
	assert.True(t, ok)
	assert.False(t, snapResp.HasResponseError(), "snapshot ok")
	assert.NotNil(t, snapResp.Price, "snapshot price")
	assert.Equal(t, "NOK/kWh", snapResp.Unit, "snapshot unit")

	res, err = context.RequestFuture(pid, domain.PriceSnapshotRequest{HomeID: "not-a-home"}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snapResp, ok = res.(domain.PriceSnapshotResponse)
	assert.True(t, ok)
	assert.True(t, snapResp.HasResponseError(), "unknown home error")

	context.Stop(pid)

	as.Shutdown()
}
