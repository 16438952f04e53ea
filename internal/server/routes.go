package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/activity", s.handleActivity)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	mux.HandleFunc("POST /api/requirements", s.handleRequirements)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/plan", s.handlePlan)
	mux.HandleFunc("POST /api/advance", s.handleAdvance)

	mux.HandleFunc("PUT /api/steps/{id}", s.handleUpdateStep)
	mux.HandleFunc("POST /api/steps/{id}/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/steps/{id}/recommend", s.handleRecommend)
	mux.HandleFunc("POST /api/steps/{id}/improve", s.handleImprove)
	mux.HandleFunc("POST /api/steps/{id}/yolo", s.handleYolo)
	mux.HandleFunc("POST /api/steps/{id}/complete", s.handleComplete)
	mux.HandleFunc("POST /api/navigate/{id}", s.handleNavigate)

	mux.HandleFunc("GET /api/boilerplate/readme", s.handleReadme)
	mux.HandleFunc("GET /api/boilerplates/list", s.handleListBoilerplates)

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return s.corsMiddleware(logMiddleware(mux))
}
