package progress

import (
	"sync"
	"time"
)

// Status is the lifecycle of a processing agent.
type Status string

const (
	Waiting   Status = "waiting"
	Active    Status = "active"
	Completed Status = "completed"
)

// Agent is a named unit of simulated or real backend work.
type Agent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// Observer receives a snapshot after every transition.
type Observer func([]Agent)

// Tracker holds agent statuses for one operation.
type Tracker struct {
	mu       sync.Mutex
	agents   []Agent
	observer Observer
}

// NewTracker starts every agent in the waiting state.
func NewTracker(observer Observer, agents ...Agent) *Tracker {
	cp := make([]Agent, len(agents))
	for i, a := range agents {
		a.Status = Waiting
		cp[i] = a
	}
	return &Tracker{agents: cp, observer: observer}
}

// Snapshot returns a copy of the agent list.
func (t *Tracker) Snapshot() []Agent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() []Agent {
	out := make([]Agent, len(t.agents))
	copy(out, t.agents)
	return out
}

// Set moves the agents at the given indexes to status.
func (t *Tracker) Set(status Status, idx ...int) {
	t.mu.Lock()
	for _, i := range idx {
		if i >= 0 && i < len(t.agents) {
			t.agents[i].Status = status
		}
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// Handoff completes agent i and activates every agent after it.
func (t *Tracker) Handoff(i int) {
	t.mu.Lock()
	for j := range t.agents {
		switch {
		case j == i:
			t.agents[j].Status = Completed
		case j > i:
			t.agents[j].Status = Active
		}
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

// CompleteAll marks every agent completed.
func (t *Tracker) CompleteAll() {
	t.mu.Lock()
	for j := range t.agents {
		t.agents[j].Status = Completed
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()
	t.notify(snap)
}

func (t *Tracker) notify(snap []Agent) {
	if t.observer != nil {
		t.observer(snap)
	}
}

// Staged returns the fallback-mode sequence for a tracker: activate the
// first agent, hand off to the rest, then complete everything. The offsets
// are measured from the start of the operation.
func Staged(t *Tracker, activateAt, handoffAt, doneAt time.Duration, final func()) Sequence {
	seq := Sequence{
		{Delay: activateAt, Apply: func() { t.Set(Active, 0) }},
	}
	last := activateAt
	if handoffAt > 0 {
		seq = append(seq, Stage{Delay: handoffAt - last, Apply: func() { t.Handoff(0) }})
		last = handoffAt
	}
	seq = append(seq, Stage{Delay: doneAt - last, Apply: func() {
		t.CompleteAll()
		if final != nil {
			final()
		}
	}})
	return seq
}
