// Package commands wires the CLI surface to the review core.
package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/hay-kot/acre/internal/core/config"
)

// Flags holds the global flag values and everything the Before hook
// builds for the commands.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands.
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "acre", "config.yaml")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/acre/acre.log
// On Linux: $XDG_STATE_HOME/acre/acre.log (defaults to ~/.local/state/acre/acre.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "acre", "acre.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "acre", "acre.log")
	}
	return filepath.Join(home, ".local", "state", "acre", "acre.log")
}
