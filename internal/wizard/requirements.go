package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
)

// LoadRequirements sets the project and stores text as step 1's artifact.
// Earlier analysis and plan results no longer apply and are dropped.
func (c *Controller) LoadRequirements(projectName, boilerplate, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNoRequirements
	}
	if err := c.acquire(StepSetup); err != nil {
		return err
	}
	defer c.release(StepSetup)

	c.mu.Lock()
	if projectName != "" {
		c.state.ProjectName = projectName
	}
	if boilerplate != "" {
		c.state.BoilerplateTemplate = boilerplate
	}
	c.setArtifactLocked(StepSetup, text)
	rec := c.state.Steps[StepSetup]
	rec.Score = 0
	rec.Recommendations = nil
	c.state.Analysis = nil
	c.state.Plan = ""
	c.state.WorkflowID = ""
	c.state.Status = StatusIdle
	c.logLocked(LevelInfo, StepSetup, fmt.Sprintf("Requirements loaded (%d characters)", len(text)))
	c.mu.Unlock()
	c.changed()
	return nil
}

// Analyze verifies the requirements and, when they are suitable, assesses
// them. The overall score becomes step 1's score and the recommendations
// are stored on step 1.
func (c *Controller) Analyze(ctx context.Context) (*Analysis, error) {
	if err := c.acquire(StepSetup); err != nil {
		return nil, err
	}
	defer c.release(StepSetup)

	c.mu.Lock()
	reqs := c.state.Requirements()
	p := c.provider
	c.mu.Unlock()
	if strings.TrimSpace(reqs) == "" {
		return nil, ErrNoRequirements
	}
	if p == nil {
		return nil, ErrNoProvider
	}

	analysis, recs, workflowID, err := c.analyze(ctx, p, reqs)
	if err != nil {
		c.mu.Lock()
		c.state.Status = StatusError
		c.logLocked(LevelError, StepSetup, "Requirements analysis failed: "+err.Error())
		c.mu.Unlock()
		c.changed()
		return nil, err
	}

	c.mu.Lock()
	c.state.Analysis = analysis
	c.state.WorkflowID = workflowID
	c.state.Status = StatusCompleted
	rec := c.state.Steps[StepSetup]
	rec.Score = analysis.Overall
	rec.Recommendations = recs
	green, orange := quality.CountByClass(analysis.Metrics)
	c.logLocked(LevelSuccess, StepSetup, fmt.Sprintf(
		"Requirements analyzed with %s: overall %d%%, %d passing and %d below threshold (confidence %.0f%%, type %s)%s",
		p.Name(), analysis.Overall, green, orange, analysis.Confidence, analysis.TypeDetected, mockSuffix(p)))
	out := *analysis
	c.mu.Unlock()
	c.changed()
	return &out, nil
}

func (c *Controller) analyze(ctx context.Context, p gateway.Provider, reqs string) (*Analysis, []gateway.Recommendation, string, error) {
	run, err := c.startRun(ctx, p, analysisAgents, analysisTimeline)
	if err != nil {
		return nil, nil, "", err
	}

	c.setStatus(StatusVerifying)
	verdict, err := p.Verify(ctx, reqs)
	if err != nil {
		slog.Warn("verify failed", "provider", p.Name(), "error", err)
		return nil, nil, "", fmt.Errorf("failed to verify requirements: %w", err)
	}
	if !verdict.IsSuitable {
		return nil, nil, "", &NotSuitableError{
			Feedback:     verdict.Feedback,
			Confidence:   verdict.Confidence,
			TypeDetected: verdict.TypeDetected,
		}
	}
	run.handoff()

	c.setStatus(StatusAssessing)
	assessed, err := p.Assess(ctx, gateway.AssessRequest{Requirements: reqs})
	if err != nil {
		slog.Warn("assess failed", "provider", p.Name(), "error", err)
		return nil, nil, "", fmt.Errorf("failed to assess requirements: %w", err)
	}
	if assessed.Assessment == nil {
		return nil, nil, "", fmt.Errorf("failed to assess requirements: %w", ErrAssessmentMissing)
	}
	run.done()

	analysis := &Analysis{
		Overall:      quality.Clamp(quality.Round(assessed.Assessment.Overall)),
		Metrics:      quality.FromScores(assessed.Assessment.Scores),
		Summary:      assessed.Summary,
		Confidence:   verdict.Confidence,
		TypeDetected: verdict.TypeDetected,
		Provider:     p.Name(),
	}
	recs := append([]gateway.Recommendation{}, assessed.AllRecommendations()...)
	return analysis, recs, verdict.WorkflowID, nil
}

// Plan requests an implementation plan for the requirements and stores it.
func (c *Controller) Plan(ctx context.Context) (string, error) {
	if err := c.acquire(StepSetup); err != nil {
		return "", err
	}
	defer c.release(StepSetup)

	c.mu.Lock()
	reqs := c.state.Requirements()
	p := c.provider
	c.mu.Unlock()
	if strings.TrimSpace(reqs) == "" {
		return "", ErrNoRequirements
	}
	if p == nil {
		return "", ErrNoProvider
	}

	run, err := c.startRun(ctx, p, planningAgents, planningTimeline)
	if err != nil {
		return "", err
	}
	c.setStatus(StatusPlanning)
	plan, err := p.Plan(ctx, reqs)
	if err != nil {
		slog.Warn("plan failed", "provider", p.Name(), "error", err)
		err = fmt.Errorf("failed to generate implementation plan: %w", err)
		c.mu.Lock()
		c.state.Status = StatusError
		c.logLocked(LevelError, StepSetup, err.Error())
		c.mu.Unlock()
		c.changed()
		return "", err
	}
	run.done()

	c.mu.Lock()
	c.state.Plan = plan
	c.state.Status = StatusCompleted
	c.logLocked(LevelSuccess, StepSetup, "Implementation plan generated"+mockSuffix(p))
	c.mu.Unlock()
	c.changed()
	return plan, nil
}

// Advance completes step 1 and moves to step 2. It needs requirements and
// a plan.
func (c *Controller) Advance() error {
	c.mu.Lock()
	switch {
	case !c.state.HasArtifact(StepSetup):
		c.mu.Unlock()
		return ErrNoRequirements
	case strings.TrimSpace(c.state.Plan) == "":
		c.mu.Unlock()
		return ErrPlanRequired
	}
	c.state.Steps[StepSetup].Completed = true
	c.state.CurrentStep = StepAPIs
	c.logLocked(LevelSuccess, StepSetup, "Setup complete, proceeding to step 2: APIs")
	c.mu.Unlock()
	c.changed()
	return nil
}
