// Package server exposes the pipeline controller and the boilerplate files
// over a local HTTP API for browser front ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/boilerplate"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

// DefaultPort is the port the server listens on when none is configured.
const DefaultPort = 3001

// Options configure a Server.
type Options struct {
	Port           int
	AllowedOrigins []string
	// Files serves template READMEs; nil disables the boilerplate endpoints.
	Files *boilerplate.Files
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Now is the clock for health responses.
	Now func() time.Time
}

type Server struct {
	ctrl     *wizard.Controller
	files    *boilerplate.Files
	gatherer prometheus.Gatherer
	origins  map[string]struct{}
	now      func() time.Time
	server   *http.Server
}

// New builds a server for ctrl. It does not start listening.
func New(ctrl *wizard.Controller, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		ctrl:     ctrl,
		files:    opts.Files,
		gatherer: opts.Gatherer,
		origins:  make(map[string]struct{}, len(opts.AllowedOrigins)),
		now:      opts.Now,
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[o] = struct{}{}
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.server.Addr }

func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("api server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
