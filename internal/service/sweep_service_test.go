package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSweeper panics on the listed call numbers and records when
// each call happened.
type scriptedSweeper struct {
	calls     chan time.Time
	panicOn   map[int]bool
	callCount int
}

func (s *scriptedSweeper) SweepOnce() bool {
	s.callCount++
	s.calls <- time.Now()
	if s.panicOn[s.callCount] {
		panic("sweep blew up")
	}
	return false
}

func TestSweepRecoversFromPanic(t *testing.T) {
	s := NewSweepService(&scriptedSweeper{
		calls:   make(chan time.Time, 4),
		panicOn: map[int]bool{1: true},
	}, time.Millisecond, time.Millisecond)

	assert.False(t, s.sweep())
	assert.True(t, s.sweep())
}

func TestSweepLoopBacksOffAfterError(t *testing.T) {
	sweeper := &scriptedSweeper{
		calls:   make(chan time.Time, 8),
		panicOn: map[int]bool{2: true},
	}
	s := NewSweepService(sweeper, time.Millisecond, 150*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	waitCall := func() time.Time {
		select {
		case ts := <-sweeper.calls:
			return ts
		case <-time.After(2 * time.Second):
			t.Fatal("sweep loop stalled")
			return time.Time{}
		}
	}

	// Iteration 1 is clean; iteration 2 panics, so a backoff delay
	// separates it from iteration 3.
	waitCall()
	second := waitCall()
	third := waitCall()
	fourth := waitCall()
	cancel()

	// The gap after the failed iteration is the error backoff; once a
	// clean iteration runs, the loop is back on the short interval.
	require.GreaterOrEqual(t, third.Sub(second), 100*time.Millisecond)
	assert.Less(t, fourth.Sub(third), 100*time.Millisecond)
}
