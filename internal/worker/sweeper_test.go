package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingExpirer struct{ calls atomic.Int32 }

func (c *countingExpirer) ExpireHolds(context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, nil
}

func TestSweeperRunsUntilStopped(t *testing.T) {
	exp := &countingExpirer{}
	s := NewSweeper(exp, 5*time.Millisecond)
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return exp.calls.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()
	s.Stop()

	n := exp.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, exp.calls.Load())
}

func TestSweeperStopsOnContextCancel(t *testing.T) {
	exp := &countingExpirer{}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(exp, time.Hour)
	s.Start(ctx)

	assert.Eventually(t, func() bool { return exp.calls.Load() == 1 }, time.Second, time.Millisecond, "sweeps once at start")
	cancel()
	s.Stop()
}
