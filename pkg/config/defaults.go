package config

import (
	"os"
	"path/filepath"
)

// defaultStateDB returns the default journal database path.
//
// Returns: ~/.config/sdlogger/state.db.
func defaultStateDB() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./state.db"
	}

	return filepath.Join(homeDir, ".config", "sdlogger", "state.db")
}

// DefaultPath returns the per-user configuration file path.
//
// Returns: ~/.config/sdlogger/config.yaml.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "sdlogger", "config.yaml")
}

// systemPath is the configuration file used by the system service.
const systemPath = "/etc/sdlogger/config.yaml"
