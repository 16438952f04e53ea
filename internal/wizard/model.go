// Package wizard holds the six-step SDLC pipeline state and the controller
// that is the only way to mutate it.
package wizard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
)

// StepID identifies one of the six pipeline steps.
type StepID int

const (
	StepSetup StepID = iota + 1
	StepAPIs
	StepModel
	StepSchema
	StepLogic
	StepTests
)

// FirstStep and LastStep bound the pipeline.
const (
	FirstStep = StepSetup
	LastStep  = StepTests
)

var stepNames = [...]string{"", "Setup", "APIs", "Model", "Schema", "Logic", "Tests"}

func (s StepID) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is within [1,6].
func (s StepID) Valid() bool { return s >= FirstStep && s <= LastStep }

// AllSteps returns the steps in pipeline order.
func AllSteps() []StepID {
	return []StepID{StepSetup, StepAPIs, StepModel, StepSchema, StepLogic, StepTests}
}

// ClampStep bounds n to [1,6].
func ClampStep(n int) StepID {
	return StepID(min(max(n, int(FirstStep)), int(LastStep)))
}

// ParseStep accepts a step number ("3") or a step name ("schema").
func ParseStep(s string) (StepID, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if !StepID(n).Valid() {
			return 0, fmt.Errorf("step %d out of range [1,6]", n)
		}
		return StepID(n), nil
	}
	for _, id := range AllSteps() {
		if strings.EqualFold(s, id.String()) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", s)
}

// ArtifactKind tags what a step's artifact contains.
type ArtifactKind string

const (
	KindRequirements  ArtifactKind = "requirements"
	KindAPISpec       ArtifactKind = "api_spec"
	KindDataModel     ArtifactKind = "data_model"
	KindSchema        ArtifactKind = "schema"
	KindBusinessLogic ArtifactKind = "business_logic"
	KindTestSuite     ArtifactKind = "test_suite"
)

var stepKinds = map[StepID]ArtifactKind{
	StepSetup:  KindRequirements,
	StepAPIs:   KindAPISpec,
	StepModel:  KindDataModel,
	StepSchema: KindSchema,
	StepLogic:  KindBusinessLogic,
	StepTests:  KindTestSuite,
}

// Kind returns the artifact kind produced at step s.
func (s StepID) Kind() ArtifactKind { return stepKinds[s] }

// Label is a human name for an artifact kind.
func (k ArtifactKind) Label() string {
	switch k {
	case KindRequirements:
		return "requirements"
	case KindAPISpec:
		return "API specification"
	case KindDataModel:
		return "data model"
	case KindSchema:
		return "database schema"
	case KindBusinessLogic:
		return "business logic"
	case KindTestSuite:
		return "test suite"
	default:
		return string(k)
	}
}

// Artifact is the generated content of a step.
type Artifact struct {
	Kind    ArtifactKind `json:"kind" yaml:"kind"`
	Content string       `json:"content" yaml:"content"`
}

// StepRecord is the per-step slice of the pipeline.
type StepRecord struct {
	Artifact        *Artifact                `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Score           int                      `json:"score" yaml:"score"`
	Recommendations []gateway.Recommendation `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Completed       bool                     `json:"completed" yaml:"completed"`
}

// HasArtifact reports whether the record holds non-blank content.
func (r *StepRecord) HasArtifact() bool {
	return r != nil && r.Artifact != nil && strings.TrimSpace(r.Artifact.Content) != ""
}

// Content returns the artifact text, or "" when there is none.
func (r *StepRecord) Content() string {
	if r == nil || r.Artifact == nil {
		return ""
	}
	return r.Artifact.Content
}

func (r *StepRecord) clear() {
	*r = StepRecord{}
}

func (r *StepRecord) clone() *StepRecord {
	cp := *r
	if r.Artifact != nil {
		a := *r.Artifact
		cp.Artifact = &a
	}
	if r.Recommendations != nil {
		cp.Recommendations = append([]gateway.Recommendation(nil), r.Recommendations...)
	}
	return &cp
}

// ChatStatus is the lifecycle of a chat session.
type ChatStatus string

const (
	ChatActive    ChatStatus = "active"
	ChatPaused    ChatStatus = "paused"
	ChatCompleted ChatStatus = "completed"
	ChatCancelled ChatStatus = "cancelled"
)

// ChatSessionRef links the wizard to a backend chat session.
type ChatSessionRef struct {
	SessionID   string     `json:"session_id" yaml:"session_id"`
	Status      ChatStatus `json:"status" yaml:"status"`
	ContextType string     `json:"context_type" yaml:"context_type"`
	Step        StepID     `json:"step" yaml:"step"`
}

// Analysis is the result of the requirements analysis run.
type Analysis struct {
	Overall      int              `json:"overall" yaml:"overall"`
	Metrics      []quality.Metric `json:"metrics" yaml:"metrics"`
	Summary      json.RawMessage  `json:"summary,omitempty" yaml:"-"`
	Confidence   float64          `json:"confidence" yaml:"confidence"`
	TypeDetected string           `json:"type_detected,omitempty" yaml:"type_detected,omitempty"`
	Provider     string           `json:"provider" yaml:"provider"`
}

// Workflow status values.
const (
	StatusIdle      = "idle"
	StatusVerifying = "verifying"
	StatusAssessing = "assessing"
	StatusPlanning  = "planning"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// LegacyStep is an entry of the ten-step overview list. It carries no
// pipeline semantics and is only displayed.
type LegacyStep struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
}

var legacyStepNames = []string{
	"Requirements Assessment",
	"API Design",
	"Database Design",
	"Business Logic",
	"Data Validation",
	"Infrastructure",
	"Security",
	"Testing",
	"Documentation",
	"Deployment",
}

// DefaultBoilerplate is the template selected for a fresh project.
const DefaultBoilerplate = "REST API Service"

// State is the root aggregate for one project.
type State struct {
	ProjectName         string                 `json:"project_name" yaml:"project_name"`
	BoilerplateTemplate string                 `json:"boilerplate_template" yaml:"boilerplate_template"`
	CurrentStep         StepID                 `json:"current_step" yaml:"current_step"`
	Steps               map[StepID]*StepRecord `json:"steps" yaml:"steps"`
	Log                 *ActivityLog           `json:"activity_log" yaml:"activity_log"`
	ChatSession         *ChatSessionRef        `json:"chat_session,omitempty" yaml:"chat_session,omitempty"`
	Plan                string                 `json:"plan,omitempty" yaml:"plan,omitempty"`
	Analysis            *Analysis              `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	WorkflowID          string                 `json:"workflow_id,omitempty" yaml:"workflow_id,omitempty"`
	Status              string                 `json:"status" yaml:"status"`
	LegacySteps         []LegacyStep           `json:"legacy_steps" yaml:"legacy_steps"`
}

// NewState returns a fresh state whose activity log keeps at most maxLog entries.
func NewState(maxLog int) *State {
	s := &State{Log: NewActivityLog(maxLog)}
	s.Reset()
	return s
}

// Reset restores every field to its initial value. The activity log keeps
// its capacity but loses its entries.
func (s *State) Reset() {
	logCap := DefaultMaxLogEntries
	if s.Log != nil {
		logCap = s.Log.Cap()
	}
	*s = State{
		BoilerplateTemplate: DefaultBoilerplate,
		CurrentStep:         StepSetup,
		Steps:               make(map[StepID]*StepRecord, len(stepKinds)),
		Log:                 NewActivityLog(logCap),
		Status:              StatusIdle,
		LegacySteps:         make([]LegacyStep, len(legacyStepNames)),
	}
	for _, id := range AllSteps() {
		s.Steps[id] = &StepRecord{}
	}
	for i, name := range legacyStepNames {
		s.LegacySteps[i] = LegacyStep{ID: i + 1, Name: name, Status: "pending"}
	}
}

// Normalize fills in anything missing after decoding a stored snapshot.
func (s *State) Normalize(maxLog int) {
	if s.Steps == nil {
		s.Steps = make(map[StepID]*StepRecord, len(stepKinds))
	}
	for _, id := range AllSteps() {
		if s.Steps[id] == nil {
			s.Steps[id] = &StepRecord{}
		}
	}
	for id := range s.Steps {
		if !id.Valid() {
			delete(s.Steps, id)
		}
	}
	if s.Log == nil {
		s.Log = NewActivityLog(maxLog)
	} else {
		s.Log.SetCap(maxLog)
	}
	if !s.CurrentStep.Valid() {
		s.CurrentStep = ClampStep(int(s.CurrentStep))
	}
	if s.Status == "" {
		s.Status = StatusIdle
	}
	if s.BoilerplateTemplate == "" {
		s.BoilerplateTemplate = DefaultBoilerplate
	}
}

// Step returns the record for id. Unknown ids return nil.
func (s *State) Step(id StepID) *StepRecord {
	return s.Steps[id]
}

// Requirements returns step 1's artifact, the uploaded requirements text.
func (s *State) Requirements() string {
	return s.Steps[StepSetup].Content()
}

// HasArtifact reports whether step id holds content.
func (s *State) HasArtifact(id StepID) bool {
	return s.Steps[id].HasArtifact()
}

// AllCompleted reports whether the pipeline reached its terminal state.
func (s *State) AllCompleted() bool {
	for _, id := range AllSteps() {
		if !s.Steps[id].Completed {
			return false
		}
	}
	return true
}

// Clone returns a deep copy safe to read without the controller's lock.
func (s *State) Clone() *State {
	cp := *s
	cp.Steps = make(map[StepID]*StepRecord, len(s.Steps))
	for id, r := range s.Steps {
		cp.Steps[id] = r.clone()
	}
	if s.Log != nil {
		cp.Log = s.Log.clone()
	}
	if s.ChatSession != nil {
		cs := *s.ChatSession
		cp.ChatSession = &cs
	}
	if s.Analysis != nil {
		a := *s.Analysis
		a.Metrics = append([]quality.Metric(nil), s.Analysis.Metrics...)
		cp.Analysis = &a
	}
	cp.LegacySteps = append([]LegacyStep(nil), s.LegacySteps...)
	return &cp
}
