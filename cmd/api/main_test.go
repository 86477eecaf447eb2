package main

import (
	"context"
	"testing"
	"time"

	"github.com/berfenger/tibber2mqtt/internal/core/domain"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickProbe struct {
	ticks chan domain.PriceTickMessage
}

func (p *tickProbe) Receive(ctx pactor.Context) {
	if msg, ok := ctx.Message().(domain.PriceTickMessage); ok {
		p.ticks <- msg
	}
}

func TestStartPriceCron(t *testing.T) {

	as := pactor.NewActorSystem()
	rootCtx := as.Root

	probe := &tickProbe{ticks: make(chan domain.PriceTickMessage, 1)}
	pid := rootCtx.Spawn(pactor.PropsFromProducer(func() pactor.Actor { return probe }))

	sched, err := startPriceCron(rootCtx, pid)
	require.NoError(t, err)
	require.NotNil(t, sched)

	keys, err := sched.GetJobKeys()
	require.NoError(t, err)
	assert.Len(t, keys, 1, "job scheduled")
	assert.Equal(t, "price_tick", keys[0].Name(), "job key")

	scheduled, err := sched.GetScheduledJob(keys[0])
	require.NoError(t, err)

	// fire the job directly; the cron trigger itself only fires on the hour
	err = scheduled.JobDetail().Job().Execute(context.Background())
	require.NoError(t, err)

	select {
	case <-probe.ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for price tick")
	}

	sched.Stop()
	rootCtx.Stop(pid)
	as.Shutdown()
}
