package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultUserID is sent with every session request.
const DefaultUserID = "galaxy-sdlc-user"

// SessionConfig tunes a new session.
type SessionConfig struct {
	MaxQuestions   int     `json:"max_questions" mapstructure:"maxQuestions"`
	TimeoutMinutes int     `json:"timeout_minutes" mapstructure:"timeoutMinutes"`
	AutoFinalize   bool    `json:"auto_finalize" mapstructure:"autoFinalize"`
	Temperature    float64 `json:"temperature" mapstructure:"temperature"`
	Model          string  `json:"model" mapstructure:"model"`
}

// DefaultSessionConfig returns the session defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxQuestions:   10,
		TimeoutMinutes: 30,
		AutoFinalize:   true,
		Temperature:    0.7,
		Model:          "gpt-4o-mini",
	}
}

// Sessions creates chat sessions over the backend's REST API.
type Sessions struct {
	baseURL string
	userID  string
	http    *http.Client
}

// NewSessions returns a session API client rooted at baseURL.
func NewSessions(baseURL string) *Sessions {
	return &Sessions{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  DefaultUserID,
		http:    &http.Client{},
	}
}

type createSessionRequest struct {
	ContextType    string         `json:"context_type"`
	InitialContext map[string]any `json:"initial_context"`
	UserID         string         `json:"user_id"`
	Config         SessionConfig  `json:"session_config"`
}

// CreateSession opens a new session. A nil cfg uses DefaultSessionConfig.
func (s *Sessions) CreateSession(ctx context.Context, contextType string, initialContext map[string]any, cfg *SessionConfig) (*Session, error) {
	conf := DefaultSessionConfig()
	if cfg != nil {
		conf = *cfg
	}
	if initialContext == nil {
		initialContext = map[string]any{}
	}

	body, err := json.Marshal(createSessionRequest{
		ContextType:    contextType,
		InitialContext: initialContext,
		UserID:         s.userID,
		Config:         conf,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/chat/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to create chat session: %s", http.StatusText(resp.StatusCode))
	}

	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("decode chat session: %w", err)
	}
	return &sess, nil
}

// ContextTypeForStep maps a pipeline step to the backend's context type.
func ContextTypeForStep(step int) string {
	switch step {
	case 1:
		return "requirements_improvement"
	case 2:
		return "api_design"
	case 3:
		return "data_modeling"
	case 4:
		return "schema_design"
	case 5:
		return "business_logic"
	case 6:
		return "testing_strategy"
	default:
		return "custom"
	}
}

// ContextInput is the project data a session is seeded with.
type ContextInput struct {
	ProjectName         string
	BoilerplateTemplate string
	Requirements        string
	ExistingSchema      string
	DatabaseType        string
}

// InitialContext builds the initial_context payload for step.
func InitialContext(step int, in ContextInput) map[string]any {
	switch step {
	case 1:
		return map[string]any{
			"requirements_text": in.Requirements,
			"project_name":      in.ProjectName,
			"boilerplate":       in.BoilerplateTemplate,
		}
	case 4:
		db := in.DatabaseType
		if db == "" {
			db = "PostgreSQL"
		}
		return map[string]any{
			"project_name":    in.ProjectName,
			"database_type":   db,
			"existing_schema": in.ExistingSchema,
			"requirements":    in.Requirements,
		}
	default:
		return map[string]any{
			"requirements": in.Requirements,
			"project_name": in.ProjectName,
		}
	}
}
