/*
Copyright © 2025 Galaxy Core Platform
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/logger"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/telemetry"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// jsonOutput switches command output to JSON.
	jsonOutput bool
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sdlc-agent",
	Short: "sdlc-agent walks requirements through a six-step backend SDLC pipeline.",
	Long: `sdlc-agent turns a requirements document into backend artifacts:

  1. Setup     requirements, quality analysis and implementation plan
  2. APIs      OpenAPI specification
  3. Model     data model
  4. Schema    database schema
  5. Logic     business logic
  6. Tests     test suite

Each step is generated from the steps before it, scored, improved with
recommendations and completed. Editing a completed step re-opens every step
after it. Work is saved per project under .sdlc-agent/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Setup(viper.GetBool("verbose"))
		logger.SetCommand(cmd.CommandPath())
		if len(args) > 0 {
			logger.SetLastInput(strings.Join(args, " "))
		}
		return nil
	},
}

// GetVersion returns the CLI version.
func GetVersion() string {
	return version
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	logger.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	start := time.Now()
	executed, err := rootCmd.ExecuteContextC(ctx)
	stop()

	trackCommand(executed, time.Since(start), err)

	if err != nil {
		PrintError(userMessage(err), err)
		os.Exit(1)
	}
}

func trackCommand(cmd *cobra.Command, elapsed time.Duration, err error) {
	client := newTelemetryClient()
	defer func() { _ = client.Close() }()

	name := rootCmd.Name()
	if cmd != nil {
		name = cmd.CommandPath()
	}
	client.TrackCommand(telemetry.CommandEvent{
		Command: name,
		Step:    trackedStep,
		Elapsed: elapsed,
		Err:     err,
	})
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.sdlc-agent/.sdlc-agent.yaml, $HOME/.sdlc-agent.yaml or ./.sdlc-agent.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().String("provider", "", "gateway provider for this run: backend, fallback or llm")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("gateway.provider", rootCmd.PersistentFlags().Lookup("provider"))

	rootCmd.Version = version
}
