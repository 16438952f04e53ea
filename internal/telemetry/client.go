package telemetry

import (
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// AppName is sent with every event so sdlc-agent usage can be told apart
// from other tools sharing a PostHog project.
const AppName = "sdlc-agent"

// Client records usage events.
type Client interface {
	// Track sends an event asynchronously. If telemetry is disabled, this is a no-op.
	Track(event string, properties map[string]any)

	// TrackCommand sends the outcome of one CLI command.
	TrackCommand(cmd CommandEvent)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// CommandEvent describes one finished CLI command. Provider falls back to
// the client's gateway provider when empty.
type CommandEvent struct {
	Command  string
	Step     int
	Provider string
	Elapsed  time.Duration
	Err      error
}

// enqueuer is the subset of the PostHog client we use.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHog sends sdlc-agent events to PostHog.
type PostHog struct {
	client      enqueuer
	config      *Config
	base        Properties
	provider    string
	mu          sync.RWMutex
	initialized bool
}

// ClientConfig holds configuration for initializing the telemetry client.
type ClientConfig struct {
	APIKey  string
	Version string
	// Provider is the configured gateway provider (backend, fallback or llm).
	Provider string
	Config   *Config
	// Endpoint is an optional self-hosted PostHog endpoint.
	Endpoint string
}

// NewPostHog creates a PostHog client. Without an API key or config the
// client is inert.
func NewPostHog(cfg ClientConfig) (*PostHog, error) {
	if cfg.APIKey == "" || cfg.Config == nil {
		return &PostHog{config: cfg.Config, base: baseProperties(cfg.Version), provider: cfg.Provider}, nil
	}

	phConfig := posthog.Config{
		BatchSize: 10,
		// The CLI exits right after a command.
		Interval: time.Second,
		Logger:   quietPostHogLogger{},
	}
	if cfg.Endpoint != "" {
		phConfig.Endpoint = cfg.Endpoint
	}

	client, err := posthog.NewWithConfig(cfg.APIKey, phConfig)
	if err != nil {
		return nil, err
	}
	return newPostHog(client, cfg), nil
}

func newPostHog(enq enqueuer, cfg ClientConfig) *PostHog {
	return &PostHog{
		client:      enq,
		config:      cfg.Config,
		base:        baseProperties(cfg.Version),
		provider:    cfg.Provider,
		initialized: true,
	}
}

func baseProperties(version string) Properties {
	return Properties{
		"app":         AppName,
		"app_version": version,
		"go_version":  runtime.Version(),
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
		// Events stay anonymous: no person profiles.
		"$process_person_profile": false,
	}
}

// Track enqueues an event without blocking. Caller properties win over the
// defaults.
func (c *PostHog) Track(event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized || c.config == nil || !c.config.IsEnabled() {
		return
	}

	props := posthog.NewProperties()
	for k, v := range c.base {
		props.Set(k, v)
	}
	if c.provider != "" {
		props.Set("provider", c.provider)
	}
	for k, v := range properties {
		props.Set(k, v)
	}

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.config.AnonymousID,
		Event:      event,
		Properties: props,
	})
}

// TrackCommand sends command_executed or command_error for cmd.
func (c *PostHog) TrackCommand(cmd CommandEvent) {
	c.Track(commandEventName(cmd.Err), CommandProperties(cmd.Command, cmd.Step, cmd.Provider, cmd.Elapsed, cmd.Err))
}

// Close flushes pending events.
func (c *PostHog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// NoopClient is used when telemetry is off.
type NoopClient struct{}

func (NoopClient) Track(string, map[string]any) {}
func (NoopClient) TrackCommand(CommandEvent)    {}
func (NoopClient) Close() error                 { return nil }

// quietPostHogLogger keeps transport warnings out of CLI output.
type quietPostHogLogger struct{}

func (quietPostHogLogger) Debugf(string, ...interface{}) {}
func (quietPostHogLogger) Logf(string, ...interface{})   {}
func (quietPostHogLogger) Warnf(string, ...interface{})  {}
func (quietPostHogLogger) Errorf(string, ...interface{}) {}
