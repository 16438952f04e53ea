package wizard

import (
	"context"
	"time"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
)

// timeline holds the fallback-mode offsets of a staged run, measured from
// its start. A zero handoff means there is only one agent to run.
type timeline struct {
	activate, handoff, done time.Duration
}

var (
	analysisAgents = []progress.Agent{
		{Name: "Knock-out Verification Agent", Description: "Checks that the requirements describe a backend service"},
		{Name: "Quality Assessment Agent", Description: "Scores the requirements against thirteen quality criteria"},
		{Name: "Summary Generation Agent", Description: "Summarizes the project scope and deliverables"},
	}
	analysisTimeline = timeline{activate: 500 * time.Millisecond, handoff: 1500 * time.Millisecond, done: 3000 * time.Millisecond}

	recommendAgents = []progress.Agent{
		{Name: "Quality Assessment Agent", Description: "Re-assesses the current artifact"},
		{Name: "Improvement Suggestion Agent", Description: "Proposes concrete fixes"},
	}
	recommendTimeline = timeline{activate: 500 * time.Millisecond, handoff: 2000 * time.Millisecond, done: 3500 * time.Millisecond}

	planningAgents = []progress.Agent{
		{Name: "Implementation Planning Agent", Description: "Breaks the requirements into the six pipeline steps"},
	}
	planningTimeline = timeline{activate: 500 * time.Millisecond, done: 2500 * time.Millisecond}
)

// fallbackDelay paces single-call operations in fallback mode.
const fallbackDelay = 1500 * time.Millisecond

// agentRun reports agent progress for one operation. In fallback mode the
// whole timeline is played up front by the scheduler; against a live
// provider the transitions follow the calls.
type agentRun struct {
	tracker *progress.Tracker
	staged  bool
}

func (c *Controller) startRun(ctx context.Context, p gateway.Provider, agents []progress.Agent, tl timeline) (*agentRun, error) {
	run := &agentRun{tracker: progress.NewTracker(c.opts.OnProgress, agents...)}
	if gateway.IsFallback(p) {
		run.staged = true
		if err := c.opts.Scheduler.Run(ctx, progress.Staged(run.tracker, tl.activate, tl.handoff, tl.done, nil)); err != nil {
			return nil, err
		}
		return run, nil
	}
	run.tracker.Set(progress.Active, 0)
	return run, nil
}

func (r *agentRun) handoff() {
	if !r.staged {
		r.tracker.Handoff(0)
	}
}

func (r *agentRun) done() {
	if !r.staged {
		r.tracker.CompleteAll()
	}
}

// settle waits out the fallback delay; live providers return immediately.
func (c *Controller) settle(ctx context.Context, p gateway.Provider) error {
	if !gateway.IsFallback(p) {
		return nil
	}
	return c.opts.Scheduler.Run(ctx, progress.Sequence{{Delay: fallbackDelay}})
}
