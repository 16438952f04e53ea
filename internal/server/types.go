package server

import (
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

// StepUpdateRequest is the payload for PUT /api/steps/{id}. Absent fields are
// left untouched.
type StepUpdateRequest struct {
	Artifact        *string                   `json:"artifact"`
	Score           *int                      `json:"score" validate:"omitempty,min=0,max=100"`
	Recommendations *[]gateway.Recommendation `json:"recommendations" validate:"omitempty,dive"`
}

// RequirementsRequest is the payload for POST /api/requirements.
type RequirementsRequest struct {
	ProjectName  string `json:"project_name" validate:"max=200"`
	Boilerplate  string `json:"boilerplate" validate:"max=200"`
	Requirements string `json:"requirements" validate:"required"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StepResponse reports the state of one step after an operation.
type StepResponse struct {
	Step   wizard.StepID      `json:"step"`
	Record *wizard.StepRecord `json:"record"`
}

// ImproveResponse is returned by the improve endpoint.
type ImproveResponse struct {
	StepResponse
	Applied bool `json:"applied"`
}

// ActivityResponse is returned by GET /api/activity.
type ActivityResponse struct {
	Entries []wizard.LogEntry `json:"entries"`
	Total   int               `json:"total"`
}

// ReadmeResponse is returned by GET /api/boilerplate/readme.
type ReadmeResponse struct {
	Content string `json:"content"`
	Path    string `json:"path"`
	Success bool   `json:"success"`
}
