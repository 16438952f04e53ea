package wizard

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
)

var (
	ErrInvalidStep       = errors.New("step out of range [1,6]")
	ErrNotGeneratable    = errors.New("step is bootstrapped from requirements and cannot be generated")
	ErrMissingDependency = errors.New("upstream artifact missing")
	ErrNoArtifact        = errors.New("step has no artifact")
	ErrStepBusy          = errors.New("another operation is already running for this step")
	ErrNoRequirements    = errors.New("no requirements uploaded")
	ErrPlanRequired      = errors.New("generate an implementation plan before proceeding")
	ErrEmptyArtifact     = errors.New("provider returned an empty artifact")
	ErrAssessmentMissing = errors.New("assessment missing from response")
	ErrNoChatSession     = errors.New("no chat session")
	ErrNoProvider        = errors.New("no gateway provider configured")
)

// NotSuitableError is returned when verification rejects the requirements.
type NotSuitableError struct {
	Feedback     string
	Confidence   float64
	TypeDetected string
}

func (e *NotSuitableError) Error() string {
	if e.Feedback == "" {
		return "requirements are not suitable for backend development"
	}
	return "requirements are not suitable for backend development: " + e.Feedback
}

// Options tune the controller. Zero values take the defaults.
type Options struct {
	TargetScore       int
	MaxYoloIterations int
	ScoreImprovement  int

	// Scheduler paces the staged agent progress shown in fallback mode.
	Scheduler *progress.Scheduler
	// OnProgress receives agent snapshots during analysis, recommendation and planning.
	OnProgress progress.Observer
	// OnChange receives a copy of the state after every successful mutation.
	OnChange func(*State)
}

// Defaults for Options.
const (
	DefaultTargetScore       = 85
	DefaultMaxYoloIterations = 5
	DefaultScoreImprovement  = 10
)

func (o Options) withDefaults() Options {
	if o.TargetScore <= 0 {
		o.TargetScore = DefaultTargetScore
	}
	if o.MaxYoloIterations <= 0 {
		o.MaxYoloIterations = DefaultMaxYoloIterations
	}
	if o.ScoreImprovement <= 0 {
		o.ScoreImprovement = DefaultScoreImprovement
	}
	if o.Scheduler == nil {
		o.Scheduler = progress.NewScheduler(nil)
	}
	return o
}

// Controller drives the pipeline. Every mutation of State goes through it.
type Controller struct {
	mu       sync.Mutex
	state    *State
	provider gateway.Provider
	opts     Options
	inFlight map[StepID]bool
}

// NewController wraps state. A nil state starts a fresh project.
func NewController(state *State, provider gateway.Provider, opts Options) *Controller {
	if state == nil {
		state = NewState(DefaultMaxLogEntries)
	}
	return &Controller{
		state:    state,
		provider: provider,
		opts:     opts.withDefaults(),
		inFlight: make(map[StepID]bool),
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Provider returns the active gateway provider.
func (c *Controller) Provider() gateway.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.provider
}

// SetProvider switches the gateway provider for subsequent operations.
func (c *Controller) SetProvider(p gateway.Provider) {
	c.mu.Lock()
	c.provider = p
	name := "none"
	if p != nil {
		name = p.Name()
	}
	c.logLocked(LevelInfo, 0, fmt.Sprintf("Switched provider to %s", name))
	c.mu.Unlock()
	c.changed()
}

// TargetScore is the score at which yolo stops.
func (c *Controller) TargetScore() int { return c.opts.TargetScore }

// StepPatch is a direct edit of step fields. Nil fields are left alone.
type StepPatch struct {
	Artifact        *string
	Score           *int
	Recommendations *[]gateway.Recommendation
}

// SetStepData applies patch to step. When the step was completed, every
// completed downstream step is reset. Clearing the artifact also clears the
// step's own completion.
func (c *Controller) SetStepData(step StepID, patch StepPatch) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	if err := c.acquire(step); err != nil {
		return err
	}
	defer c.release(step)

	c.mu.Lock()
	rec := c.state.Steps[step]
	wasCompleted := rec.Completed
	if patch.Artifact != nil {
		if strings.TrimSpace(*patch.Artifact) == "" {
			rec.Artifact = nil
			rec.Completed = false
		} else {
			rec.Artifact = &Artifact{Kind: step.Kind(), Content: *patch.Artifact}
		}
	}
	if patch.Score != nil {
		rec.Score = quality.Clamp(*patch.Score)
	}
	if patch.Recommendations != nil {
		rec.Recommendations = append([]gateway.Recommendation(nil), (*patch.Recommendations)...)
	}
	if wasCompleted {
		c.cascadeLocked(step)
	}
	c.mu.Unlock()
	c.changed()
	return nil
}

// MarkComplete marks step (clamped to [1,6]) completed. A step without an
// artifact cannot be completed.
func (c *Controller) MarkComplete(step int) (StepID, error) {
	id := ClampStep(step)
	c.mu.Lock()
	rec := c.state.Steps[id]
	if !rec.HasArtifact() {
		c.mu.Unlock()
		return id, fmt.Errorf("complete step %d: %w", id, ErrNoArtifact)
	}
	rec.Completed = true
	c.logLocked(LevelSuccess, id, fmt.Sprintf("Step %d: %s marked complete", id, id))
	c.mu.Unlock()
	c.changed()
	return id, nil
}

// Navigate moves the cursor to step (clamped to [1,6]).
func (c *Controller) Navigate(step int) StepID {
	id := ClampStep(step)
	c.mu.Lock()
	c.state.CurrentStep = id
	c.logLocked(LevelInfo, id, fmt.Sprintf("Navigated to step %d: %s", id, id))
	c.mu.Unlock()
	c.changed()
	return id
}

// Reset discards the project and starts over.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.state.Reset()
	c.logLocked(LevelInfo, 0, "Project reset")
	c.mu.Unlock()
	c.changed()
}

// AttachChatSession records the chat session opened for a step.
func (c *Controller) AttachChatSession(ref ChatSessionRef) {
	c.mu.Lock()
	if ref.Status == "" {
		ref.Status = ChatActive
	}
	c.state.ChatSession = &ref
	c.logLocked(LevelInfo, ref.Step, fmt.Sprintf("Chat session %s started (%s)", ref.SessionID, ref.ContextType))
	c.mu.Unlock()
	c.changed()
}

// SetChatStatus updates the status of the attached chat session.
func (c *Controller) SetChatStatus(status ChatStatus) error {
	c.mu.Lock()
	if c.state.ChatSession == nil {
		c.mu.Unlock()
		return ErrNoChatSession
	}
	c.state.ChatSession.Status = status
	c.mu.Unlock()
	c.changed()
	return nil
}

// DetachChatSession forgets the chat session.
func (c *Controller) DetachChatSession() {
	c.mu.Lock()
	c.state.ChatSession = nil
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) acquire(step StepID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[step] {
		return fmt.Errorf("step %d: %w", step, ErrStepBusy)
	}
	c.inFlight[step] = true
	return nil
}

func (c *Controller) release(step StepID) {
	c.mu.Lock()
	delete(c.inFlight, step)
	c.mu.Unlock()
}

// setArtifactLocked is the edit path shared by generate, improve and upload.
func (c *Controller) setArtifactLocked(step StepID, content string) {
	rec := c.state.Steps[step]
	rec.Artifact = &Artifact{Kind: step.Kind(), Content: content}
	if rec.Completed {
		c.cascadeLocked(step)
	}
}

// cascadeLocked resets every completed step after step.
func (c *Controller) cascadeLocked(step StepID) []StepID {
	var reset []StepID
	for m := step + 1; m <= LastStep; m++ {
		if rec := c.state.Steps[m]; rec.Completed {
			rec.clear()
			reset = append(reset, m)
		}
	}
	if len(reset) > 0 {
		ids := make([]string, len(reset))
		for i, id := range reset {
			ids[i] = fmt.Sprint(int(id))
		}
		c.logLocked(LevelWarning, step, fmt.Sprintf("Step %d modified, reset steps: %s", step, strings.Join(ids, ", ")))
	}
	return reset
}

func (c *Controller) logLocked(level Level, step StepID, msg string) {
	c.state.Log.Add(level, step, msg)
}

// setStatus records a workflow status transition and persists it.
func (c *Controller) setStatus(status string) {
	c.mu.Lock()
	c.state.Status = status
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) changed() {
	if c.opts.OnChange == nil {
		return
	}
	c.mu.Lock()
	snap := c.state.Clone()
	c.mu.Unlock()
	c.opts.OnChange(snap)
}

// mockSuffix marks log lines produced from placeholder data.
func mockSuffix(p gateway.Provider) string {
	if gateway.IsFallback(p) {
		return " " + gateway.MockTag
	}
	return ""
}
