// Package progress runs staged agent progress as an explicit sequence of
// (delay, transition) pairs on a single scheduler.
package progress

import (
	"context"
	"time"
)

// Clock abstracts waiting so sequences can be driven deterministically in tests.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock waits on wall-clock time.
var RealClock Clock = realClock{}

// Stage is one transition applied after Delay has elapsed since the previous stage.
type Stage struct {
	Delay time.Duration
	Apply func()
}

// Sequence is an ordered list of stages.
type Sequence []Stage

// Total returns the summed delay of all stages.
func (s Sequence) Total() time.Duration {
	var total time.Duration
	for _, st := range s {
		total += st.Delay
	}
	return total
}

// Scheduler plays sequences one stage at a time.
type Scheduler struct {
	clock   Clock
	instant bool
}

// NewScheduler creates a scheduler. A nil clock uses RealClock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{clock: clock}
}

// Instant returns a scheduler that applies every stage without waiting.
func Instant() *Scheduler {
	return &Scheduler{clock: RealClock, instant: true}
}

// Run applies each stage in order. It stops with ctx.Err() if the context
// is cancelled while waiting; stages already applied stay applied.
func (s *Scheduler) Run(ctx context.Context, seq Sequence) error {
	for _, st := range seq {
		if st.Delay > 0 && !s.instant {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clock.After(st.Delay):
			}
		}
		if st.Apply != nil {
			st.Apply()
		}
	}
	return nil
}
