// Package config provides centralized configuration defaults and path
// resolution for sdlc-agent.
// All default values should be defined here to ensure a single source of truth.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Backend defaults
const (
	DefaultBackendURL     = "http://localhost:8000"
	DefaultWSBaseURL      = "ws://localhost:8000"
	DefaultImproveTimeout = 180 * time.Second
)

// Polling defaults
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultPollMaxAttempts = 30
)

// Quality defaults
const (
	DefaultTargetScore        = 85
	DefaultMinAcceptableScore = 70
	DefaultMaxYoloIterations  = 5
	DefaultScoreImprovement   = 10
)

// DefaultMaxLogEntries caps the activity log.
const DefaultMaxLogEntries = 100

// DefaultServerPort is where `serve` listens.
const DefaultServerPort = 3001

// DefaultAllowedOrigins are the local dev-server origins granted CORS access.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
	"http://localhost:5176",
}

// Gateway provider names.
const (
	GatewayBackend  = "backend"
	GatewayFallback = "fallback"
	GatewayLLM      = "llm"
)

// RegisterDefaults sets a default for every configuration key.
func RegisterDefaults() {
	viper.SetDefault("backend.baseURL", DefaultBackendURL)
	viper.SetDefault("backend.wsBaseURL", DefaultWSBaseURL)
	viper.SetDefault("backend.improveTimeout", DefaultImproveTimeout)
	viper.SetDefault("backend.requestTimeout", time.Duration(0))

	viper.SetDefault("polling.interval", DefaultPollInterval)
	viper.SetDefault("polling.maxAttempts", DefaultPollMaxAttempts)

	viper.SetDefault("quality.targetScore", DefaultTargetScore)
	viper.SetDefault("quality.minAcceptableScore", DefaultMinAcceptableScore)
	viper.SetDefault("quality.maxYoloIterations", DefaultMaxYoloIterations)
	viper.SetDefault("quality.scoreImprovement", DefaultScoreImprovement)

	viper.SetDefault("ui.maxLogEntries", DefaultMaxLogEntries)

	viper.SetDefault("gateway.provider", GatewayBackend)
	viper.SetDefault("fallback.instant", false)

	viper.SetDefault("llm.provider", "")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.baseURL", "")
	viper.SetDefault("llm.timeout", time.Duration(0))

	viper.SetDefault("chat.maxQuestions", 10)
	viper.SetDefault("chat.timeoutMinutes", 30)
	viper.SetDefault("chat.autoFinalize", true)
	viper.SetDefault("chat.temperature", 0.7)
	viper.SetDefault("chat.model", "gpt-4o-mini")

	viper.SetDefault("server.port", DefaultServerPort)
	viper.SetDefault("server.allowedOrigins", DefaultAllowedOrigins)

	viper.SetDefault("boilerplate.allowedPaths", []string{})
	viper.SetDefault("boilerplate.catalog", "")

	viper.SetDefault("memory.path", "")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.apiKey", "")
}
