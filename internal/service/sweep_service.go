package service

import (
	"context"
	"log"
	"time"
)

// Sweeper is the slice of the engine the background sweep needs.
type Sweeper interface {
	SweepOnce() bool
}

// SweepService runs the periodic background requeue sweep for the
// lifetime of the process. Each iteration asks the engine to attempt
// one allocation from the waiting queue; on a panic inside the sweep
// it logs and backs off with a longer delay before the next attempt.
type SweepService struct {
	sweeper  Sweeper
	interval time.Duration
	backoff  time.Duration
}

func NewSweepService(sweeper Sweeper, interval, backoff time.Duration) *SweepService {
	return &SweepService{
		sweeper:  sweeper,
		interval: interval,
		backoff:  backoff,
	}
}

// Start begins the sweep loop. It only returns when ctx is cancelled;
// there is no other way to stop it.
func (s *SweepService) Start(ctx context.Context) {
	log.Printf("Allocation sweep started - checking every %v", s.interval)

	delay := s.interval
	for {
		select {
		case <-ctx.Done():
			log.Println("Allocation sweep stopped")
			return
		case <-time.After(delay):
			delay = s.interval
			if !s.sweep() {
				delay = s.backoff
			}
		}
	}
}

// sweep runs one iteration, converting a panic into a logged error so
// the sweep never terminates itself. It reports whether the iteration
// completed without error.
func (s *SweepService) sweep() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error in allocation sweep: %v - backing off for %v", r, s.backoff)
			ok = false
		}
	}()
	if s.sweeper.SweepOnce() {
		log.Println("Sweep iteration allocated a waiting patient")
	}
	return true
}
