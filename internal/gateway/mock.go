package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ImproveMarker is appended to artifacts improved in fallback mode.
const ImproveMarker = "// [MOCK] Improvements applied based on recommendations"

// Mock is the offline fallback provider. It never touches the network and
// always returns the same placeholder data.
type Mock struct{}

// NewMock returns the fallback provider.
func NewMock() *Mock { return &Mock{} }

// Name implements Provider.
func (*Mock) Name() string { return ProviderFallback }

// MockScores are the fixed criterion scores used for fallback analysis.
var MockScores = map[string]float64{
	"clarity":           80,
	"completeness":      70,
	"consistency":       90,
	"verifiability":     80,
	"feasibility":       70,
	"traceability":      60,
	"modifiability":     70,
	"prioritization":    50,
	"unambiguity":       80,
	"correctness":       80,
	"understandability": 80,
	"achievability":     70,
	"relevance":         80,
}

// MockOverall is the fallback overall score.
const MockOverall = 72

var mockArtifacts = map[int]string{
	2: `openapi: 3.0.0
info:
  title: Generated API
  version: 1.0.0
paths:
  /users:
    get:
      summary: List users
    post:
      summary: Create user`,
	3: `// Data Model
entities:
  - User
  - Session
  - Role`,
	4: `-- Database Schema
CREATE TABLE users (
  id SERIAL PRIMARY KEY,
  email VARCHAR(255) UNIQUE
);`,
	5: `// Business Logic
class UserService {
  async createUser() { }
  async getUser() { }
}`,
	6: `// Test Suite
describe('UserService', () => {
  it('should create user', () => { });
});`,
}

var mockSummary = map[string]any{
	"projectType": "REST API Service",
	"overview":    "A backend API service with comprehensive features for data management and processing.",
	"keyFeatures": []string{
		"RESTful API endpoints with full CRUD operations",
		"Authentication and authorization system",
		"Real-time data processing capabilities",
		"Comprehensive logging and monitoring",
		"Scalable architecture design",
	},
	"technicalStack": map[string]string{
		"backend":        "Rust with Actix-web",
		"database":       "PostgreSQL",
		"authentication": "JWT with OAuth2",
		"monitoring":     "OpenTelemetry",
	},
	"deliverables": []string{
		"Fully functional REST API",
		"API documentation",
		"Unit and integration tests",
		"Deployment scripts",
		"Monitoring dashboard",
	},
}

// Verify implements Provider.
func (*Mock) Verify(_ context.Context, _ string) (*VerifyResult, error) {
	return &VerifyResult{
		IsSuitable:   true,
		Confidence:   95,
		TypeDetected: "backend_api",
		Feedback:     "[MOCK] Requirements describe a backend service",
	}, nil
}

// Assess implements Provider. Step assessments return two structural
// recommendations; requirement assessments return the fixed score table.
func (*Mock) Assess(_ context.Context, req AssessRequest) (*AssessResult, error) {
	if req.Step >= 2 {
		return &AssessResult{Recommendations: []Recommendation{
			{
				Category:   "Structure",
				Issue:      fmt.Sprintf("[MOCK] Step %d structure could be improved", req.Step),
				Suggestion: fmt.Sprintf("[MOCK] Apply best practices for step %d", req.Step),
			},
			{
				Category:   "Completeness",
				Issue:      fmt.Sprintf("[MOCK] Missing elements in step %d", req.Step),
				Suggestion: fmt.Sprintf("[MOCK] Add missing components for step %d", req.Step),
			},
		}}, nil
	}

	scores := make(map[string]float64, len(MockScores))
	for k, v := range MockScores {
		scores[k] = v
	}
	summary, err := json.Marshal(mockSummary)
	if err != nil {
		return nil, fmt.Errorf("encode mock summary: %w", err)
	}
	return &AssessResult{
		Assessment: &Assessment{Overall: MockOverall, Scores: scores},
		Improvements: &Improvements{Recommendations: []Recommendation{
			{
				Category:   "Clarity",
				Issue:      "[MOCK] Some requirements could be more specific",
				Suggestion: "[MOCK] Add specific acceptance criteria for each feature",
			},
			{
				Category:   "Completeness",
				Issue:      "[MOCK] Missing error handling specifications",
				Suggestion: "[MOCK] Define error response formats and status codes",
			},
			{
				Category:   "Traceability",
				Issue:      "[MOCK] Requirements lack unique identifiers",
				Suggestion: "[MOCK] Add requirement IDs for better tracking",
			},
		}},
		Summary: summary,
	}, nil
}

// ImplementImprovements implements Provider. No new assessment is returned,
// so callers fall back to their score heuristic.
func (*Mock) ImplementImprovements(_ context.Context, req ImproveRequest) (*ImproveResult, error) {
	if req.Step >= 2 {
		return &ImproveResult{ImprovedRequirements: req.Requirements + "\n" + ImproveMarker}, nil
	}

	var sb strings.Builder
	sb.WriteString(req.Requirements)
	sb.WriteString("\n\n## Applied Improvements [MOCK DATA]\n")
	for _, r := range req.Improvements.Recommendations {
		sb.WriteString("- ")
		sb.WriteString(strings.TrimPrefix(r.Suggestion, "[MOCK] "))
		sb.WriteString("\n")
	}
	return &ImproveResult{ImprovedRequirements: sb.String()}, nil
}

// Plan implements Provider.
func (*Mock) Plan(_ context.Context, _ string) (string, error) {
	return mockPlan, nil
}

// Generate implements Provider.
func (*Mock) Generate(_ context.Context, req GenerateRequest) (string, error) {
	body, ok := mockArtifacts[req.Step]
	if !ok {
		return "", fmt.Errorf("no placeholder artifact for step %d", req.Step)
	}
	return body + "\n" + MockTag, nil
}

const mockPlan = `## Implementation Plan - 6-Step SDLC Process

### Step 1: Setup (Bootstrap & Requirements) - Week 1
- Analyze and refine requirements document
- Set up project repository and structure
- Define acceptance criteria

### Step 2: APIs (OpenAPI Specification) - Week 1-2
- Design RESTful API endpoints
- Create OpenAPI 3.0 specification
- Define request/response schemas

### Step 3: Model (Logical Data Model) - Week 2
- Define data entities and attributes
- Establish relationships and constraints

### Step 4: Schema (Database Schema) - Week 2-3
- Generate SQL schema from data model
- Create migration scripts and indexes

### Step 5: Logic (Business Logic) - Week 3-4
- Implement service layer and business rules
- Implement error handling, logging and monitoring

### Step 6: Tests (Testing & Release) - Week 4
- Write unit and integration tests
- Set up CI/CD pipeline and deploy

**Total Timeline:** 4 weeks
**Team Size:** 2-3 developers`
