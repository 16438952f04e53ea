/*
Copyright © 2025 Galaxy Core Platform
*/
package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/boilerplate"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/server"
)

var servePort int

// shutdownTimeout bounds graceful shutdown of the API server.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the current project over a local HTTP API",
	Long: `Start the local HTTP API for browser front ends. Every change made through
the API is saved to the current project.

Endpoints include /api/health, /api/state, /api/steps/{step}/generate,
/api/boilerplate/readme?path=... and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			port := s.cfg.Server.Port
			if cmd.Flags().Changed("port") {
				port = servePort
			}

			var files *boilerplate.Files
			if len(s.cfg.Boilerplate.AllowedPaths) > 0 {
				files = boilerplate.NewFiles(appFs, s.cfg.Boilerplate.AllowedPaths)
			}
			s.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv := server.New(s.ctrl, server.Options{
				Port:           port,
				AllowedOrigins: s.cfg.Server.AllowedOrigins,
				Files:          files,
				Gatherer:       s.registry,
			})

			var wg sync.WaitGroup
			errChan := make(chan error, 1)
			srv.Start(&wg, errChan)
			if !isJSON() {
				printSuccess(fmt.Sprintf("Serving %s on http://localhost%s (Ctrl+C to stop)", displayName(s.ctrl.State().ProjectName), srv.Addr()))
			}

			var serveErr error
			select {
			case <-cmd.Context().Done():
			case serveErr = <-errChan:
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil && serveErr == nil {
				serveErr = fmt.Errorf("shutdown api server: %w", err)
			}
			wg.Wait()
			return serveErr
		})
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from server.port)")
	rootCmd.AddCommand(serveCmd)
}
