package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/config"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/llm"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/logger"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/memory"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/ui"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
	"github.com/Galaxy-Core-Platform/sdlc-agent/types"
)

// session is one command's view of the current project: the store it is
// saved in and the controller driving it.
type session struct {
	cfg       *types.AppConfig
	store     *memory.SQLiteStore
	projectID string
	ctrl      *wizard.Controller
	registry  *prometheus.Registry
	spinner   *ui.Spinner
}

// openStore opens the project database at the configured memory path.
func openStore() (*memory.SQLiteStore, error) {
	path := config.GetMemoryBasePath()
	logger.SetBasePath(path)
	store, err := memory.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}
	return store, nil
}

// openSession loads the current project and wires its controller.
func openSession(ctx context.Context) (*session, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	id, err := store.CurrentProject()
	if errors.Is(err, memory.ErrNotFound) {
		_ = store.Close()
		return nil, errNoProject
	}
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return openProject(ctx, store, id)
}

// openProject wires a controller around the stored project id. The
// session owns store from here on.
func openProject(ctx context.Context, store *memory.SQLiteStore, id string) (*session, error) {
	cfg := GetConfig()
	state, err := store.LoadState(id, cfg.UI.MaxLogEntries)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	s := &session{
		cfg:       cfg,
		store:     store,
		projectID: id,
		registry:  prometheus.NewRegistry(),
		spinner:   ui.NewSpinner(""),
	}
	provider, err := buildProvider(ctx, cfg, s.registry)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	s.ctrl = wizard.NewController(state, provider, controllerOptions(cfg, s.onProgress, s.save))
	return s, nil
}

func controllerOptions(cfg *types.AppConfig, onProgress progress.Observer, onChange func(*wizard.State)) wizard.Options {
	scheduler := progress.NewScheduler(nil)
	if cfg.Fallback.Instant {
		scheduler = progress.Instant()
	}
	return wizard.Options{
		TargetScore:       cfg.Quality.TargetScore,
		MaxYoloIterations: cfg.Quality.MaxYoloIterations,
		ScoreImprovement:  cfg.Quality.ScoreImprovement,
		Scheduler:         scheduler,
		OnProgress:        onProgress,
		OnChange:          onChange,
	}
}

// save persists every controller mutation. A failed write is logged, not
// fatal: the in-memory state stays authoritative for this command.
func (s *session) save(state *wizard.State) {
	if err := s.store.SaveState(s.projectID, state); err != nil {
		slog.Warn("failed to save project state", "project", s.projectID, "error", err)
	}
}

func (s *session) onProgress(agents []progress.Agent) {
	if desc := ui.ActiveAgent(agents); desc != "" {
		s.spinner.SetSuffix(desc)
	}
	slog.Debug("agents", "progress", ui.RenderAgents(agents))
}

// run executes fn behind the session spinner.
func (s *session) run(label string, fn func() error) error {
	return withSpinner(s.spinner, label, fn)
}

func (s *session) Close() error {
	return s.store.Close()
}

// buildProvider returns the gateway selected by gateway.provider, wrapped
// with request metrics.
func buildProvider(ctx context.Context, cfg *types.AppConfig, reg prometheus.Registerer) (gateway.Provider, error) {
	name := cfg.Gateway.Provider
	if name == "" {
		name = config.GatewayBackend
	}
	if err := gateway.ValidateProviderName(name); err != nil {
		return nil, err
	}

	var p gateway.Provider
	switch name {
	case gateway.ProviderBackend:
		p = newBackendClient(cfg)
	case gateway.ProviderFallback:
		p = gateway.NewMock()
	case gateway.ProviderLLM:
		llmCfg, err := config.LoadLLMConfig()
		if err != nil {
			return nil, err
		}
		if llmCfg.APIKey == "" && llmCfg.Provider != llm.ProviderOllama && ui.IsInteractive() {
			if llmCfg.APIKey, err = promptAndStoreAPIKey(llmCfg.Provider); err != nil {
				return nil, err
			}
		}
		chatModel, err := llm.NewChatModel(ctx, llmCfg)
		if err != nil {
			return nil, fmt.Errorf("create %s chat model: %w", llmCfg.Provider, err)
		}
		p = gateway.NewLLM(chatModel)
	}
	slog.Debug("gateway provider selected", "provider", name)
	return gateway.Instrument(p, gateway.NewRecorder(reg)), nil
}

// promptAndStoreAPIKey asks for a missing key and saves it to the project config.
func promptAndStoreAPIKey(provider llm.Provider) (string, error) {
	path := config.ProjectConfigFile()
	key, err := ui.PromptAPIKey(string(provider), path)
	if err != nil {
		return "", err
	}
	if err := config.SaveConfigValue(path, "llm.apiKey", key); err != nil {
		return "", err
	}
	viper.Set("llm.apiKey", key)
	return key, nil
}

func newBackendClient(cfg *types.AppConfig) *gateway.HTTPClient {
	opts := []gateway.HTTPOption{gateway.WithImproveTimeout(cfg.Backend.ImproveTimeout)}
	if cfg.Backend.RequestTimeout > 0 {
		opts = append(opts, gateway.WithRequestTimeout(cfg.Backend.RequestTimeout))
	}
	return gateway.NewHTTPClient(cfg.Backend.BaseURL, opts...)
}

// withSession opens the current project, runs fn and closes it.
func withSession(ctx context.Context, fn func(*session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "warning: close project store:", err)
		}
	}()
	return fn(s)
}
