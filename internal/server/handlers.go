package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/boilerplate"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeAPIJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= maxActivityLimit {
			limit = l
		}
	}
	log := s.ctrl.State().Log
	writeAPIJSON(w, http.StatusOK, ActivityResponse{Entries: log.Recent(limit), Total: log.Len()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	writeAPIJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleRequirements(w http.ResponseWriter, r *http.Request) {
	var req RequirementsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := s.ctrl.LoadRequirements(req.ProjectName, req.Boilerplate, req.Requirements); err != nil {
		writeError(w, err)
		return
	}
	s.writeStep(w, wizard.StepSetup)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.ctrl.Analyze(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, analysis)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.ctrl.Plan(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, map[string]string{"plan": plan})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Advance(); err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, s.ctrl.State())
}

func (s *Server) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	var req StepUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	patch := wizard.StepPatch{Artifact: req.Artifact, Score: req.Score, Recommendations: req.Recommendations}
	if err := s.ctrl.SetStepData(step, patch); err != nil {
		writeError(w, err)
		return
	}
	s.writeStep(w, step)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	if err := s.ctrl.Generate(r.Context(), step); err != nil {
		writeError(w, err)
		return
	}
	s.writeStep(w, step)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	if _, err := s.ctrl.Recommend(r.Context(), step); err != nil {
		writeError(w, err)
		return
	}
	s.writeStep(w, step)
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	applied, err := s.ctrl.Improve(r.Context(), step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, ImproveResponse{
		StepResponse: StepResponse{Step: step, Record: s.ctrl.State().Step(step)},
		Applied:      applied,
	})
}

func (s *Server) handleYolo(w http.ResponseWriter, r *http.Request) {
	step, ok := stepParam(w, r)
	if !ok {
		return
	}
	res, err := s.ctrl.Yolo(r.Context(), step)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, res)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: "step must be a number"})
		return
	}
	step, err := s.ctrl.MarkComplete(n)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeStep(w, step)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: "step must be a number"})
		return
	}
	step := s.ctrl.Navigate(n)
	writeAPIJSON(w, http.StatusOK, map[string]wizard.StepID{"current_step": step})
}

func (s *Server) handleReadme(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		writeAPIJSON(w, http.StatusNotFound, ErrorResponse{Error: "boilerplate serving is not configured"})
		return
	}
	content, path, err := s.files.Readme(r.URL.Query().Get("path"))
	switch {
	case errors.Is(err, boilerplate.ErrPathRequired):
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Path parameter is required"})
	case errors.Is(err, boilerplate.ErrPathNotAllowed):
		writeAPIJSON(w, http.StatusForbidden, ErrorResponse{Error: "Access to this path is not allowed"})
	case errors.Is(err, boilerplate.ErrReadmeNotFound):
		writeAPIJSON(w, http.StatusNotFound, ErrorResponse{Error: "README.md not found", Path: path})
	case err != nil:
		slog.Error("read boilerplate readme", "path", path, "error", err)
		writeAPIJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Message: err.Error()})
	default:
		writeAPIJSON(w, http.StatusOK, ReadmeResponse{Content: content, Path: path, Success: true})
	}
}

func (s *Server) handleListBoilerplates(w http.ResponseWriter, r *http.Request) {
	if s.files == nil {
		writeAPIJSON(w, http.StatusNotFound, ErrorResponse{Error: "boilerplate serving is not configured"})
		return
	}
	entries, err := s.files.List(r.URL.Query().Get("basePath"))
	switch {
	case errors.Is(err, boilerplate.ErrPathNotAllowed), errors.Is(err, boilerplate.ErrPathRequired):
		writeAPIJSON(w, http.StatusForbidden, ErrorResponse{Error: "Access to this path is not allowed"})
	case err != nil:
		slog.Error("list boilerplates", "error", err)
		writeAPIJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Message: err.Error()})
	default:
		writeAPIJSON(w, http.StatusOK, map[string]any{"boilerplates": entries})
	}
}

func (s *Server) writeStep(w http.ResponseWriter, step wizard.StepID) {
	writeAPIJSON(w, http.StatusOK, StepResponse{Step: step, Record: s.ctrl.State().Step(step)})
}

func stepParam(w http.ResponseWriter, r *http.Request) (wizard.StepID, bool) {
	step, err := wizard.ParseStep(r.PathValue("id"))
	if err != nil {
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return 0, false
	}
	return step, true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Message: err.Error()})
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeAPIJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Message: validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// statusFor maps controller and gateway errors onto HTTP statuses.
func statusFor(err error) int {
	var nse *wizard.NotSuitableError
	var se *gateway.StatusError
	switch {
	case errors.Is(err, wizard.ErrInvalidStep):
		return http.StatusBadRequest
	case errors.Is(err, wizard.ErrStepBusy):
		return http.StatusConflict
	case errors.As(err, &nse),
		errors.Is(err, wizard.ErrNotGeneratable),
		errors.Is(err, wizard.ErrMissingDependency),
		errors.Is(err, wizard.ErrNoArtifact),
		errors.Is(err, wizard.ErrNoRequirements),
		errors.Is(err, wizard.ErrPlanRequired):
		return http.StatusUnprocessableEntity
	case errors.As(err, &se),
		errors.Is(err, wizard.ErrEmptyArtifact),
		errors.Is(err, wizard.ErrAssessmentMissing):
		return http.StatusBadGateway
	case errors.Is(err, gateway.ErrImproveTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		slog.Warn("api operation failed", "status", code, "error", err)
	}
	writeAPIJSON(w, code, ErrorResponse{Error: err.Error()})
}

func writeAPIJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
