package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/telemetry"
)

// newTelemetryClient returns a PostHog client when telemetry is enabled and
// an API key is configured, and a no-op client otherwise.
func newTelemetryClient() telemetry.Client {
	cfg, err := telemetry.Load()
	if err != nil {
		slog.Debug("telemetry config unavailable", "error", err)
		return telemetry.NoopClient{}
	}
	if viper.GetBool("telemetry.enabled") {
		cfg.Enabled = true
	}
	apiKey := viper.GetString("telemetry.apiKey")
	if !cfg.IsEnabled() || apiKey == "" {
		return telemetry.NoopClient{}
	}
	client, err := telemetry.NewPostHog(telemetry.ClientConfig{
		APIKey:   apiKey,
		Version:  version,
		Provider: viper.GetString("gateway.provider"),
		Config:   cfg,
	})
	if err != nil {
		slog.Debug("telemetry client init failed", "error", err)
		return telemetry.NoopClient{}
	}
	return client
}

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Show or change anonymous usage telemetry",
	Long: `Telemetry is off by default. When enabled, each command sends its name,
duration, outcome, pipeline step and gateway provider. Requirements and
artifacts are never sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := telemetry.Load()
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(cfg)
		}
		state := "disabled"
		if cfg.IsEnabled() {
			state = "enabled"
		}
		fmt.Fprintf(stdout, "Telemetry is %s.\n", state)
		return nil
	},
}

func setTelemetry(enabled bool) error {
	cfg, err := telemetry.Load()
	if err != nil {
		return err
	}
	cfg.Enabled = enabled
	if err := cfg.Save(); err != nil {
		return err
	}
	if enabled {
		printSuccess("Telemetry enabled. Thank you!")
	} else {
		printSuccess("Telemetry disabled.")
	}
	return nil
}

func init() {
	telemetryCmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Enable anonymous usage telemetry",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return setTelemetry(true) },
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Disable anonymous usage telemetry",
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, args []string) error { return setTelemetry(false) },
		},
	)
	rootCmd.AddCommand(telemetryCmd)
}
