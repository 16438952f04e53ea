package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
)

var generateOps = map[StepID]string{
	StepAPIs:   "generateApi",
	StepModel:  "generateDataModel",
	StepSchema: "generateDatabaseSchema",
	StepLogic:  "generateBusinessLogic",
	StepTests:  "generateTestSuite",
}

var recommendOps = map[StepID]string{
	StepAPIs:   "generate_api_specification",
	StepModel:  "generate_data_model",
	StepSchema: "generate_database_schema",
	StepLogic:  "generate_business_logic",
	StepTests:  "generate_test_suite",
}

// Dependencies lists the steps whose artifacts step is generated from.
func Dependencies(step StepID) []StepID {
	switch step {
	case StepAPIs:
		return []StepID{StepSetup}
	case StepModel:
		return []StepID{StepAPIs}
	case StepSchema:
		return []StepID{StepModel}
	case StepLogic:
		return []StepID{StepAPIs, StepSchema}
	case StepTests:
		return []StepID{StepLogic}
	default:
		return nil
	}
}

// CanGenerate reports whether every dependency of step has an artifact.
func (s *State) CanGenerate(step StepID) bool {
	if _, ok := generateOps[step]; !ok {
		return false
	}
	for _, dep := range Dependencies(step) {
		if !s.HasArtifact(dep) {
			return false
		}
	}
	return true
}

// generateInput builds the gateway input for step from its upstream artifacts.
func (s *State) generateInput(step StepID) (string, error) {
	if _, ok := generateOps[step]; !ok {
		return "", fmt.Errorf("%w: step %d", ErrNotGeneratable, step)
	}
	for _, dep := range Dependencies(step) {
		if !s.HasArtifact(dep) {
			if dep == StepSetup {
				return "", fmt.Errorf("generate step %d: %w: %w", step, ErrMissingDependency, ErrNoRequirements)
			}
			return "", fmt.Errorf("generate step %d: %w: step %d (%s) has no %s",
				step, ErrMissingDependency, dep, dep, dep.Kind().Label())
		}
	}

	switch step {
	case StepLogic:
		return "API: " + s.Steps[StepAPIs].Content() + "\n\nSchema: " + s.Steps[StepSchema].Content(), nil
	default:
		return s.Steps[Dependencies(step)[0]].Content(), nil
	}
}

// recommendContext is the text a step's recommendations are assessed
// against: the requirements for step 1, the upstream artifacts otherwise.
func (s *State) recommendContext(step StepID) string {
	if step == StepSetup {
		return s.Steps[StepSetup].Content()
	}
	deps := Dependencies(step)
	parts := make([]string, len(deps))
	for i, dep := range deps {
		parts[i] = s.Steps[dep].Content()
	}
	return strings.Join(parts, "\n")
}

// Generate produces the artifact for step from its upstream artifacts.
func (c *Controller) Generate(ctx context.Context, step StepID) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if err := c.acquire(step); err != nil {
		return err
	}
	defer c.release(step)
	return c.generate(ctx, step)
}

func (c *Controller) generate(ctx context.Context, step StepID) error {
	c.mu.Lock()
	input, err := c.state.generateInput(step)
	p := c.provider
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNoProvider
	}
	if err := c.settle(ctx, p); err != nil {
		return err
	}

	label := step.Kind().Label()
	content, err := p.Generate(ctx, gateway.GenerateRequest{Input: input, Step: int(step), Operation: generateOps[step]})
	if err != nil {
		slog.Warn("generate failed", "step", int(step), "provider", p.Name(), "error", err)
		return fmt.Errorf("failed to generate %s for step %d: %w", label, step, err)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("failed to generate %s for step %d: %w", label, step, ErrEmptyArtifact)
	}

	c.mu.Lock()
	c.setArtifactLocked(step, content)
	c.logLocked(LevelSuccess, step, fmt.Sprintf("Generated %s for step %d%s", label, step, mockSuffix(p)))
	c.mu.Unlock()
	c.changed()
	return nil
}

// Recommend asks the provider for recommendations on step's artifact and
// stores them. An empty list is a valid outcome. The score is not touched.
func (c *Controller) Recommend(ctx context.Context, step StepID) ([]gateway.Recommendation, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if err := c.acquire(step); err != nil {
		return nil, err
	}
	defer c.release(step)
	return c.recommend(ctx, step)
}

func (c *Controller) recommend(ctx context.Context, step StepID) ([]gateway.Recommendation, error) {
	c.mu.Lock()
	has := c.state.HasArtifact(step)
	input := c.state.recommendContext(step)
	p := c.provider
	c.mu.Unlock()
	if !has {
		return nil, fmt.Errorf("recommend step %d: %w", step, ErrNoArtifact)
	}
	if p == nil {
		return nil, ErrNoProvider
	}

	req := gateway.AssessRequest{Requirements: input}
	if step != StepSetup {
		req.Step = int(step)
		req.Operation = recommendOps[step]
	}

	run, err := c.startRun(ctx, p, recommendAgents, recommendTimeline)
	if err != nil {
		return nil, err
	}
	res, err := p.Assess(ctx, req)
	if err != nil {
		slog.Warn("recommend failed", "step", int(step), "provider", p.Name(), "error", err)
		return nil, fmt.Errorf("failed to generate recommendations for step %d: %w", step, err)
	}
	recs := append([]gateway.Recommendation{}, res.AllRecommendations()...)
	run.handoff()
	run.done()

	c.mu.Lock()
	c.state.Steps[step].Recommendations = recs
	c.logLocked(LevelSuccess, step, fmt.Sprintf("%d recommendations generated for step %d%s", len(recs), step, mockSuffix(p)))
	c.mu.Unlock()
	c.changed()
	return recs, nil
}

// Improve applies the stored recommendations to step's artifact. It returns
// false without calling the provider when there is nothing to apply.
func (c *Controller) Improve(ctx context.Context, step StepID) (bool, error) {
	if !step.Valid() {
		return false, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if err := c.acquire(step); err != nil {
		return false, err
	}
	defer c.release(step)
	return c.improve(ctx, step)
}

func (c *Controller) improve(ctx context.Context, step StepID) (bool, error) {
	c.mu.Lock()
	rec := c.state.Steps[step]
	if len(rec.Recommendations) == 0 {
		c.mu.Unlock()
		return false, nil
	}
	has := rec.HasArtifact()
	content := rec.Content()
	recs := append([]gateway.Recommendation(nil), rec.Recommendations...)
	score := rec.Score
	p := c.provider
	c.mu.Unlock()
	if !has {
		return false, fmt.Errorf("improve step %d: %w", step, ErrNoArtifact)
	}
	if p == nil {
		return false, ErrNoProvider
	}
	if err := c.settle(ctx, p); err != nil {
		return false, err
	}

	req := gateway.ImproveRequest{Requirements: content, Improvements: gateway.Improvements{Recommendations: recs}}
	if step != StepSetup {
		req.Step = int(step)
	}
	res, err := p.ImplementImprovements(ctx, req)
	if err != nil {
		slog.Warn("improve failed", "step", int(step), "provider", p.Name(), "error", err)
		return false, fmt.Errorf("failed to apply improvements for step %d: %w", step, err)
	}

	improved := res.ImprovedRequirements
	if strings.TrimSpace(improved) == "" {
		improved = content
	}
	if res.NewAssessment != nil {
		score = quality.Clamp(quality.Round(res.NewAssessment.Overall))
	} else {
		score = min(100, score+c.opts.ScoreImprovement)
	}

	c.mu.Lock()
	c.setArtifactLocked(step, improved)
	rec = c.state.Steps[step]
	rec.Recommendations = nil
	rec.Score = score
	c.logLocked(LevelSuccess, step, fmt.Sprintf("Improvements applied for step %d, score %d%%%s", step, score, mockSuffix(p)))
	c.mu.Unlock()
	c.changed()
	return true, nil
}
