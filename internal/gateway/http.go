package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is where the SDLC backend listens by default.
const DefaultBaseURL = "http://localhost:8000"

// DefaultImproveTimeout bounds the implement-improvements call.
const DefaultImproveTimeout = 180 * time.Second

// HTTPClient calls the SDLC backend over JSON/HTTP.
type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	improveTimeout time.Duration
	requestTimeout time.Duration
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithImproveTimeout sets the implement-improvements deadline.
func WithImproveTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) { h.improveTimeout = d }
}

// WithRequestTimeout bounds every other call. Zero leaves them unbounded.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) { h.requestTimeout = d }
}

// NewHTTPClient creates a backend client for baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		improveTimeout: DefaultImproveTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements Provider.
func (c *HTTPClient) Name() string { return ProviderBackend }

// BaseURL returns the configured backend root.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Verify runs knock-out verification.
func (c *HTTPClient) Verify(ctx context.Context, requirements string) (*VerifyResult, error) {
	var out VerifyResult
	body := map[string]string{"requirements": requirements}
	if err := c.call(ctx, "verify", http.MethodPost, "/requirements/verify", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assess scores requirements or a step artifact and returns recommendations.
func (c *HTTPClient) Assess(ctx context.Context, req AssessRequest) (*AssessResult, error) {
	var out AssessResult
	if err := c.call(ctx, "assess", http.MethodPost, "/requirements/assess", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImplementImprovements applies recommendations. It is the only call with an
// explicit deadline; exceeding it yields ErrImproveTimeout.
func (c *HTTPClient) ImplementImprovements(ctx context.Context, req ImproveRequest) (*ImproveResult, error) {
	callCtx := ctx
	if c.improveTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.improveTimeout)
		defer cancel()
	}

	var out ImproveResult
	err := c.do(callCtx, "implement-improvements", http.MethodPost, "/requirements/implement-improvements", req, &out)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("implement-improvements after %s: %w", c.improveTimeout, ErrImproveTimeout)
		}
		return nil, err
	}
	return &out, nil
}

// Plan requests an implementation plan.
func (c *HTTPClient) Plan(ctx context.Context, requirements string) (string, error) {
	var out planResponse
	body := map[string]string{"requirements": requirements}
	if err := c.call(ctx, "plan", http.MethodPost, "/requirements/plan", body, &out); err != nil {
		return "", err
	}
	return out.Plan, nil
}

// Generate produces a step artifact. The backend answers with either
// "artifact" or "result".
func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var out generateResponse
	if err := c.call(ctx, "generate", http.MethodPost, "/generate", req, &out); err != nil {
		return "", err
	}
	if out.Artifact != "" {
		return out.Artifact, nil
	}
	return out.Result, nil
}

// Models lists the LLM providers known to the backend.
func (c *HTTPClient) Models(ctx context.Context) (*ModelsResponse, error) {
	var out ModelsResponse
	if err := c.call(ctx, "models", http.MethodGet, "/models", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetModel switches the backend's active provider and model.
func (c *HTTPClient) SetModel(ctx context.Context, provider, model string) (string, error) {
	body := map[string]string{"provider": provider}
	if model != "" {
		body["model"] = model
	}
	var out struct {
		Model string `json:"model"`
	}
	if err := c.call(ctx, "set model", http.MethodPost, "/models/set", body, &out); err != nil {
		return "", err
	}
	return out.Model, nil
}

// Status fetches the state of an asynchronous workflow.
func (c *HTTPClient) Status(ctx context.Context, workflowID string) (*WorkflowStatus, error) {
	var out WorkflowStatus
	path := "/requirements/status/" + url.PathEscape(workflowID)
	if err := c.call(ctx, "status", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BoilerplateReadme fetches README.md for a boilerplate directory.
func (c *HTTPClient) BoilerplateReadme(ctx context.Context, path string) (string, error) {
	var out struct {
		Content string `json:"content"`
		Error   string `json:"error"`
	}
	err := c.call(ctx, "boilerplate readme", http.MethodGet, "/api/boilerplate/readme?path="+url.QueryEscape(path), nil, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			if msg := errorField(se.Body); msg != "" {
				return "", fmt.Errorf("boilerplate readme: %s", msg)
			}
		}
		return "", err
	}
	if out.Error != "" {
		return "", fmt.Errorf("boilerplate readme: %s", out.Error)
	}
	return out.Content, nil
}

// call applies the general request timeout, when one is set.
func (c *HTTPClient) call(ctx context.Context, op, method, path string, body, out any) error {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}
	return c.do(ctx, op, method, path, body, out)
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	slog.Debug("backend call", "op", op, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func errorField(body string) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(body), &e) != nil {
		return ""
	}
	return e.Error
}
