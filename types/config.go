/*
Copyright © 2025 Galaxy Core Platform
*/
package types

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose     bool              `mapstructure:"verbose"`
	Config      string            `mapstructure:"config"`
	Backend     BackendConfig     `mapstructure:"backend" validate:"required"`
	Polling     PollingConfig     `mapstructure:"polling" validate:"required"`
	Quality     QualityConfig     `mapstructure:"quality" validate:"required"`
	UI          UIConfig          `mapstructure:"ui"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Fallback    FallbackConfig    `mapstructure:"fallback"`
	LLM         LLMConfig         `mapstructure:"llm" validate:"omitempty"`
	Chat        ChatConfig        `mapstructure:"chat"`
	Server      ServerConfig      `mapstructure:"server"`
	Boilerplate BoilerplateConfig `mapstructure:"boilerplate"`
	Memory      MemoryConfig      `mapstructure:"memory"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// BackendConfig points at the analysis service.
type BackendConfig struct {
	BaseURL        string        `mapstructure:"baseURL" validate:"required,url"`
	WSBaseURL      string        `mapstructure:"wsBaseURL" validate:"required,url"`
	ImproveTimeout time.Duration `mapstructure:"improveTimeout" validate:"min=0"`
	// RequestTimeout of zero leaves the transport default in place.
	RequestTimeout time.Duration `mapstructure:"requestTimeout" validate:"min=0"`
}

// PollingConfig bounds workflow status polling.
type PollingConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"min=0"`
	MaxAttempts int           `mapstructure:"maxAttempts" validate:"min=1"`
}

// QualityConfig holds scoring thresholds and YOLO loop bounds.
type QualityConfig struct {
	TargetScore        int `mapstructure:"targetScore" validate:"min=0,max=100"`
	MinAcceptableScore int `mapstructure:"minAcceptableScore" validate:"min=0,max=100"`
	MaxYoloIterations  int `mapstructure:"maxYoloIterations" validate:"min=1,max=50"`
	ScoreImprovement   int `mapstructure:"scoreImprovement" validate:"min=0,max=100"`
}

// UIConfig holds presentation limits.
type UIConfig struct {
	MaxLogEntries int `mapstructure:"maxLogEntries" validate:"omitempty,min=1"`
}

// GatewayConfig selects the provider behind every operation.
type GatewayConfig struct {
	Provider string `mapstructure:"provider" validate:"omitempty,oneof=backend fallback llm"`
}

// FallbackConfig tunes the offline provider.
type FallbackConfig struct {
	// Instant skips the simulated processing delays.
	Instant bool `mapstructure:"instant"`
}

// LLMConfig holds configuration for the direct LLM provider
type LLMConfig struct {
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"apiKey"`
	BaseURL  string        `mapstructure:"baseURL" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"min=0"`
}

// ChatConfig holds the defaults for new chat sessions.
type ChatConfig struct {
	MaxQuestions   int     `mapstructure:"maxQuestions" validate:"min=1"`
	TimeoutMinutes int     `mapstructure:"timeoutMinutes" validate:"min=1"`
	AutoFinalize   bool    `mapstructure:"autoFinalize"`
	Temperature    float64 `mapstructure:"temperature" validate:"min=0,max=2"`
	Model          string  `mapstructure:"model"`
}

// ServerConfig configures the local HTTP API.
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// BoilerplateConfig restricts README serving and names the catalog file.
type BoilerplateConfig struct {
	AllowedPaths []string `mapstructure:"allowedPaths"`
	Catalog      string   `mapstructure:"catalog"`
}

// MemoryConfig locates the project database.
type MemoryConfig struct {
	Path string `mapstructure:"path"`
}

// TelemetryConfig controls anonymous usage events.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"apiKey"`
}
