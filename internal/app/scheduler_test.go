package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfa/bank-api-harness/internal/report"
	"go.uber.org/zap/zaptest"
)

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := NewScheduler("not a schedule", func(ctx context.Context) (*report.Report, error) { return nil, nil }, zaptest.NewLogger(t))
	require.Error(t, s.Start())
	<-s.Stop().Done()
}

func TestScheduler_RunsAndStops(t *testing.T) {
	var runs atomic.Int32
	run := func(ctx context.Context) (*report.Report, error) {
		runs.Add(1)
		r := report.New("test", "http://localhost")
		r.Finish()
		return r, nil
	}
	s := NewScheduler("@every 1s", run, zaptest.NewLogger(t))
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	select {
	case <-s.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_StopCancelsInFlightRun(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	run := func(ctx context.Context) (*report.Report, error) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return nil, ctx.Err()
	}
	s := NewScheduler("@every 1s", run, zaptest.NewLogger(t))
	require.NoError(t, s.Start())

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("run never started")
	}
	<-s.Stop().Done()
	assert.True(t, cancelled.Load())
}
