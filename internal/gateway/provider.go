// Package gateway talks to the LLM-backed SDLC backend. A Provider is the
// wizard's only way to make progress; HTTPClient calls the real backend,
// Mock returns deterministic offline data and LLM calls a model directly.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Provider names selectable through gateway.provider.
const (
	ProviderBackend  = "backend"
	ProviderFallback = "fallback"
	ProviderLLM      = "llm"
)

// MockTag marks every placeholder artifact produced in fallback mode.
const MockTag = "[MOCK DATA]"

var (
	// ErrImproveTimeout is returned when implement-improvements exceeds its deadline.
	ErrImproveTimeout = errors.New("improvement is taking longer than expected")
	// ErrWorkflowFailed is returned when a polled workflow reports failure.
	ErrWorkflowFailed = errors.New("workflow failed")
	// ErrPollTimeout is returned when the polling budget runs out.
	ErrPollTimeout = errors.New("workflow timeout")
	// ErrUnknownProvider is returned for an unsupported gateway.provider value.
	ErrUnknownProvider = errors.New("unknown gateway provider")
)

// Provider is the request/response surface the wizard controller depends on.
type Provider interface {
	Name() string
	Verify(ctx context.Context, requirements string) (*VerifyResult, error)
	Assess(ctx context.Context, req AssessRequest) (*AssessResult, error)
	ImplementImprovements(ctx context.Context, req ImproveRequest) (*ImproveResult, error)
	Plan(ctx context.Context, requirements string) (string, error)
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// IsFallback reports whether p produces offline placeholder data.
func IsFallback(p Provider) bool {
	return p != nil && p.Name() == ProviderFallback
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Code, e.Body)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Code)
}

// ValidateProviderName checks a gateway.provider value.
func ValidateProviderName(name string) error {
	switch name {
	case ProviderBackend, ProviderFallback, ProviderLLM:
		return nil
	default:
		return fmt.Errorf("%w: %q (supported: backend, fallback, llm)", ErrUnknownProvider, name)
	}
}
