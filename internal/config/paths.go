package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ProjectDirName is the per-project directory holding config, memory and crash logs.
const ProjectDirName = ".sdlc-agent"

// GetGlobalConfigDir returns the path to the global configuration directory (~/.sdlc-agent).
// It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ProjectDirName), nil
}

// GetMemoryBasePath returns the path to the memory directory.
// Resolution order (first match wins):
// 1. Explicit config via "memory.path" (Viper/env/flag)
// 2. Local project directory: .sdlc-agent/memory (if exists)
// 3. XDG_DATA_HOME/sdlc-agent/memory (if XDG_DATA_HOME is set)
// 4. Global fallback: ~/.sdlc-agent/memory
func GetMemoryBasePath() string {
	if path := viper.GetString("memory.path"); path != "" {
		return path
	}

	localMemory := filepath.Join(ProjectDirName, "memory")
	if info, err := os.Stat(localMemory); err == nil && info.IsDir() {
		return localMemory
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "sdlc-agent", "memory")
	}

	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "./memory"
	}
	return filepath.Join(dir, "memory")
}

// GetCatalogPath returns the boilerplate catalog file, or "" when none exists.
func GetCatalogPath() string {
	if path := viper.GetString("boilerplate.catalog"); path != "" {
		return path
	}
	local := filepath.Join(ProjectDirName, "boilerplates.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	return ""
}
