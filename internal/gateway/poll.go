package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
)

// Polling defaults: every 2s, at most 30 attempts.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 30
)

// StatusFetcher is satisfied by *HTTPClient.
type StatusFetcher interface {
	Status(ctx context.Context, workflowID string) (*WorkflowStatus, error)
}

// PollConfig is the fixed-interval retry policy for workflow status.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// Poller waits for an asynchronous backend workflow to finish.
type Poller struct {
	fetcher StatusFetcher
	cfg     PollConfig
	clock   progress.Clock
}

// NewPoller creates a poller; zero config fields take the defaults.
func NewPoller(fetcher StatusFetcher, cfg PollConfig, clock progress.Clock) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultPollMaxAttempts
	}
	if clock == nil {
		clock = progress.RealClock
	}
	return &Poller{fetcher: fetcher, cfg: cfg, clock: clock}
}

// Wait polls until the workflow completes with a result, fails, or the
// attempt budget is spent. A fetch error stops polling immediately.
func (p *Poller) Wait(ctx context.Context, workflowID string) (*WorkflowStatus, error) {
	for attempt := 1; ; attempt++ {
		st, err := p.fetcher.Status(ctx, workflowID)
		if err != nil {
			return nil, fmt.Errorf("status check failed: %w", err)
		}

		switch {
		case st.Status == WorkflowCompleted && len(st.Result) > 0:
			return st, nil
		case st.Status == WorkflowFailed:
			msg := st.Error
			if msg == "" {
				msg = "no error detail"
			}
			return st, fmt.Errorf("%w: %s", ErrWorkflowFailed, msg)
		}

		if attempt >= p.cfg.MaxAttempts {
			return st, fmt.Errorf("%w after %d attempts", ErrPollTimeout, attempt)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(p.cfg.Interval):
		}
	}
}
