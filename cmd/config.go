/*
Copyright © 2025 Galaxy Core Platform
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/config"
	"github.com/Galaxy-Core-Platform/sdlc-agent/types"
)

const (
	configName = ".sdlc-agent"
	envPrefix  = "SDLC_AGENT"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance of Translate, it caches struct info
var validate = validator.New()

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(cfg *types.AppConfig) error {
	return validate.Struct(cfg)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	if err := loadConfig(); err != nil {
		HandleFatalError("Configuration error: "+err.Error(), err)
	}
}

// loadConfig wires .env, environment, config file and defaults into
// GlobalAppConfig and validates the result.
func loadConfig() error {
	// .env is optional
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., SDLC_AGENT_BACKEND_BASEURL
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.RegisterDefaults()

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		if _, err := os.Stat(config.ProjectDirName); err == nil {
			viper.AddConfigPath(config.ProjectDirName) // ./.sdlc-agent/.sdlc-agent.yaml
		}
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case cfgFileFlag != "" && os.IsNotExist(err):
			return fmt.Errorf("specified config file not found: %s", cfgFileFlag)
		case errors.As(err, &notFound):
			if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		default:
			return fmt.Errorf("read config file %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	GlobalAppConfig = types.AppConfig{}
	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		cfg.LLM.APIKey = maskSecret(cfg.LLM.APIKey)
		cfg.Telemetry.APIKey = maskSecret(cfg.Telemetry.APIKey)
		if isJSON() {
			return printJSON(cfg)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintln(stdout, dim("Config file: "+used))
		}
		return printYAML(cfg)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !viper.IsSet(args[0]) {
			return fmt.Errorf("unknown configuration key %q", args[0])
		}
		fmt.Fprintln(stdout, viper.Get(args[0]))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the project config file",
	Long: `Set a value in ./.sdlc-agent/.sdlc-agent.yaml.

Examples:
  sdlc-agent config set gateway.provider fallback
  sdlc-agent config set quality.targetScore 90
  sdlc-agent config set telemetry.enabled true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], parseConfigValue(args[1])
		prev := viper.Get(key)
		viper.Set(key, value)

		var probe types.AppConfig
		err := viper.Unmarshal(&probe)
		if err == nil {
			err = validateAppConfig(&probe)
		}
		if err != nil {
			viper.Set(key, prev)
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}

		path := config.ProjectConfigFile()
		if err := config.SaveConfigValue(path, key, value); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("%s = %v (saved to %s)", key, value, path))
		return nil
	},
}

func parseConfigValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s {
		return n
	}
	return s
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func init() {
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
