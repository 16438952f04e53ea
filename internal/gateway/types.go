package gateway

import "encoding/json"

// Recommendation is a single backend-suggested issue/fix pair.
type Recommendation struct {
	Category   string `json:"category" yaml:"category"`
	Issue      string `json:"issue" yaml:"issue"`
	Suggestion string `json:"suggestion" yaml:"suggestion"`
}

// VerifyResult is the knock-out verification verdict.
type VerifyResult struct {
	IsSuitable   bool    `json:"is_suitable"`
	Confidence   float64 `json:"confidence"`
	TypeDetected string  `json:"type_detected"`
	Feedback     string  `json:"feedback"`
	WorkflowID   string  `json:"workflow_id,omitempty"`
}

// Assessment carries the overall score and per-criterion scores.
type Assessment struct {
	Overall        float64            `json:"overall"`
	Scores         map[string]float64 `json:"scores,omitempty"`
	Justifications map[string]string  `json:"justifications,omitempty"`
}

// Improvements wraps the recommendation list the way the backend nests it.
type Improvements struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// AssessRequest asks for an assessment of requirements or of a step artifact.
// Step and Operation are empty for a plain requirements assessment.
type AssessRequest struct {
	Requirements string `json:"requirements"`
	Step         int    `json:"step,omitempty"`
	Operation    string `json:"operation,omitempty"`
}

// AssessResult is the assess response. Requirement assessments nest the
// recommendations under improvements; step assessments return them top level.
type AssessResult struct {
	Assessment      *Assessment      `json:"assessment,omitempty"`
	Improvements    *Improvements    `json:"improvements,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Summary         json.RawMessage  `json:"summary,omitempty"`
}

// AllRecommendations returns whichever recommendation list the backend filled.
func (r *AssessResult) AllRecommendations() []Recommendation {
	if r == nil {
		return nil
	}
	if r.Improvements != nil && len(r.Improvements.Recommendations) > 0 {
		return r.Improvements.Recommendations
	}
	return r.Recommendations
}

// ImproveRequest applies recommendations to requirements or an artifact.
type ImproveRequest struct {
	Requirements string       `json:"requirements"`
	Improvements Improvements `json:"improvements"`
	Step         int          `json:"step,omitempty"`
}

// ImproveResult is the implement-improvements response.
type ImproveResult struct {
	ImprovedRequirements string          `json:"improved_requirements"`
	NewAssessment        *Assessment     `json:"new_assessment,omitempty"`
	ChangesMade          json.RawMessage `json:"changes_made,omitempty"`
}

// GenerateRequest produces the artifact for one pipeline step.
type GenerateRequest struct {
	Input     string `json:"input"`
	Step      int    `json:"step"`
	Operation string `json:"operation"`
}

type generateResponse struct {
	Artifact string `json:"artifact"`
	Result   string `json:"result"`
}

type planResponse struct {
	Plan string `json:"plan"`
}

// ModelOption is one selectable LLM provider.
type ModelOption struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// ModelsResponse lists providers and the backend's current selection.
type ModelsResponse struct {
	Providers       []ModelOption `json:"providers"`
	CurrentProvider string        `json:"current_provider"`
	CurrentModel    string        `json:"current_model"`
}

// WorkflowStatus is the status-polling response.
type WorkflowStatus struct {
	WorkflowID string          `json:"workflow_id,omitempty"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Workflow status values.
const (
	WorkflowPending   = "pending"
	WorkflowCompleted = "completed"
	WorkflowFailed    = "failed"
)
