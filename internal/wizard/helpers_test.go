package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
)

// fakeProvider is a live (non-fallback) provider with overridable behaviour.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	verify   func(string) (*gateway.VerifyResult, error)
	assess   func(gateway.AssessRequest) (*gateway.AssessResult, error)
	improve  func(gateway.ImproveRequest) (*gateway.ImproveResult, error)
	plan     func(string) (string, error)
	generate func(context.Context, gateway.GenerateRequest) (string, error)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int)}
}

func (f *fakeProvider) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProvider) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Verify(_ context.Context, reqs string) (*gateway.VerifyResult, error) {
	f.record("verify")
	if f.verify != nil {
		return f.verify(reqs)
	}
	return &gateway.VerifyResult{IsSuitable: true, Confidence: 90, TypeDetected: "backend_api"}, nil
}

func (f *fakeProvider) Assess(_ context.Context, req gateway.AssessRequest) (*gateway.AssessResult, error) {
	f.record("assess")
	if f.assess != nil {
		return f.assess(req)
	}
	return &gateway.AssessResult{Recommendations: []gateway.Recommendation{
		{Category: "Structure", Issue: "flat", Suggestion: "group endpoints"},
	}}, nil
}

func (f *fakeProvider) ImplementImprovements(_ context.Context, req gateway.ImproveRequest) (*gateway.ImproveResult, error) {
	f.record("improve")
	if f.improve != nil {
		return f.improve(req)
	}
	return &gateway.ImproveResult{ImprovedRequirements: req.Requirements + " (improved)"}, nil
}

func (f *fakeProvider) Plan(_ context.Context, reqs string) (string, error) {
	f.record("plan")
	if f.plan != nil {
		return f.plan(reqs)
	}
	return "## Plan", nil
}

func (f *fakeProvider) Generate(ctx context.Context, req gateway.GenerateRequest) (string, error) {
	f.record("generate")
	if f.generate != nil {
		return f.generate(ctx, req)
	}
	return fmt.Sprintf("artifact for step %d", req.Step), nil
}

// fakeClock records every wait and fires immediately.
type fakeClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

func newTestController(p gateway.Provider) *Controller {
	return NewController(NewState(DefaultMaxLogEntries), p, Options{Scheduler: progress.Instant()})
}

// seedArtifacts stores content for the given steps without going through a provider.
func seedArtifacts(c *Controller, steps ...StepID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range steps {
		c.state.Steps[id].Artifact = &Artifact{Kind: id.Kind(), Content: fmt.Sprintf("content %d", id)}
	}
}

func seedCompleted(c *Controller, steps ...StepID) {
	seedArtifacts(c, steps...)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range steps {
		c.state.Steps[id].Completed = true
		c.state.Steps[id].Score = 80
		c.state.Steps[id].Recommendations = []gateway.Recommendation{{Category: "x"}}
	}
}
