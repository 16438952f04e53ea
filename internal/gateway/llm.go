package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/quality"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/utils"
)

// LLM answers gateway calls by prompting a chat model directly, without the
// SDLC backend in between.
type LLM struct {
	chat model.BaseChatModel
}

// NewLLM wraps a chat model as a Provider.
func NewLLM(chat model.BaseChatModel) *LLM {
	return &LLM{chat: chat}
}

// Name implements Provider.
func (*LLM) Name() string { return ProviderLLM }

const systemPrompt = `You are a senior backend architect helping a team move from requirements to a working backend service.
Answer precisely. When asked for JSON, reply with a single JSON object and nothing else.`

const verifyPrompt = `Decide whether the following requirements describe software that can be built as a backend service.
Reply as JSON: {"is_suitable": bool, "confidence": number 0-100, "type_detected": string, "feedback": string}

Requirements:
%s`

const assessPrompt = `Assess the quality of the following %s.
Score each criterion from 0 to 100: %s.
Reply as JSON: {"assessment": {"overall": number, "scores": {criterion: number}}, "recommendations": [{"category": string, "issue": string, "suggestion": string}], "summary": object}
Return an empty recommendations list when nothing meaningful is left to improve.

Content:
%s`

const improvePrompt = `Rewrite the following %s applying every recommendation below. Keep everything that is not affected.
Reply as JSON: {"improved_requirements": string, "new_assessment": {"overall": number}, "changes_made": [string]}

Recommendations:
%s

Content:
%s`

const planPrompt = `Write a markdown implementation plan for these requirements following six steps:
Setup, APIs (OpenAPI), Model (logical data model), Schema (SQL), Logic (business logic), Tests.
Give each step a duration and a task list.

Requirements:
%s`

var generatePrompts = map[string]string{
	"generateApi":            "Write an OpenAPI 3.0 specification in YAML for a backend that satisfies these requirements.",
	"generateDataModel":      "Derive the logical data model (entities, attributes, relationships) from this API specification.",
	"generateDatabaseSchema": "Write a PostgreSQL schema (CREATE TABLE statements with keys and indexes) for this data model.",
	"generateBusinessLogic":  "Write the service-layer business logic that implements this API against this schema.",
	"generateTestSuite":      "Write unit and integration tests for this business logic.",
}

// Verify implements Provider.
func (l *LLM) Verify(ctx context.Context, requirements string) (*VerifyResult, error) {
	out, err := l.ask(ctx, fmt.Sprintf(verifyPrompt, requirements))
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	res, err := parseAnswer[VerifyResult]("verify", out)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Assess implements Provider. Requirement assessments are reshaped so the
// recommendations sit under improvements, as the backend returns them.
func (l *LLM) Assess(ctx context.Context, req AssessRequest) (*AssessResult, error) {
	subject := "software requirements"
	if req.Operation != "" {
		subject = fmt.Sprintf("artifact produced by %s", req.Operation)
	}
	prompt := fmt.Sprintf(assessPrompt, subject, strings.Join(quality.Criteria, ", "), req.Requirements)

	out, err := l.ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("assess: %w", err)
	}
	res, err := parseAnswer[AssessResult]("assess", out)
	if err != nil {
		return nil, err
	}
	if req.Step < 2 && res.Improvements == nil {
		res.Improvements = &Improvements{Recommendations: res.Recommendations}
		res.Recommendations = nil
	}
	return &res, nil
}

// ImplementImprovements implements Provider.
func (l *LLM) ImplementImprovements(ctx context.Context, req ImproveRequest) (*ImproveResult, error) {
	recs, err := json.MarshalIndent(req.Improvements.Recommendations, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("implement-improvements: encode recommendations: %w", err)
	}
	subject := "software requirements"
	if req.Step >= 2 {
		subject = fmt.Sprintf("step %d artifact", req.Step)
	}

	out, err := l.ask(ctx, fmt.Sprintf(improvePrompt, subject, recs, req.Requirements))
	if err != nil {
		return nil, fmt.Errorf("implement-improvements: %w", err)
	}
	res, err := parseAnswer[ImproveResult]("implement-improvements", out)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// parseAnswer decodes the JSON in a model answer. The head of an
// unparseable answer goes to the debug log.
func parseAnswer[T any](op, out string) (T, error) {
	res, err := utils.ExtractAndParseJSON[T](out)
	if err != nil {
		slog.Debug("unparseable model answer", "op", op, "answer", utils.Truncate(out, answerLogLimit))
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

const answerLogLimit = 200

// Plan implements Provider.
func (l *LLM) Plan(ctx context.Context, requirements string) (string, error) {
	out, err := l.ask(ctx, fmt.Sprintf(planPrompt, requirements))
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}
	return utils.StripCodeFence(out), nil
}

// Generate implements Provider.
func (l *LLM) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	instruction, ok := generatePrompts[req.Operation]
	if !ok {
		return "", fmt.Errorf("generate: unknown operation %q", req.Operation)
	}
	out, err := l.ask(ctx, instruction+"\nReply with the artifact only.\n\n"+req.Input)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return utils.StripCodeFence(out), nil
}

func (l *LLM) ask(ctx context.Context, prompt string) (string, error) {
	resp, err := l.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty model response")
	}
	return resp.Content, nil
}
