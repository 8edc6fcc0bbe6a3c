package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader.
const (
	EnvConfig   = "SDLOGGER_CONFIG"
	EnvMount    = "SDLOGGER_MOUNT"
	EnvStateDB  = "SDLOGGER_STATE_DB"
	EnvLogLevel = "SDLOGGER_LOG_LEVEL"
	EnvDriver   = "SDLOGGER_DRIVER"
	EnvHTTP     = "SDLOGGER_HTTP"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file. Keys absent
	// from the file keep their default values.
	LoadFromFile(path string) (*Config, error)

	// Path returns the configuration file Load would read, or "" if none
	// exists.
	Path() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, $SDLOGGER_CONFIG is used; failing that the
// loader searches for a config file in:
// 1. ./sdlogger.yaml (current directory)
// 2. ~/.config/sdlogger/config.yaml
// 3. /etc/sdlogger/config.yaml.
func NewLoader(configPath string) Loader {
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.Path()
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly named file must load; a discovered one may be
			// unreadable, in which case defaults apply.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = fileCfg
		}
	}

	cfg = l.applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}

	candidates := []string{
		"./sdlogger.yaml",
		DefaultPath(),
		systemPath,
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - SDLOGGER_MOUNT: Medium mount path
//   - SDLOGGER_STATE_DB: Path to the journal database
//   - SDLOGGER_LOG_LEVEL: Log level
//   - SDLOGGER_DRIVER: Hardware driver (sim, periph)
//   - SDLOGGER_HTTP: HTTP listen address ("off" disables)
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if mount := os.Getenv(EnvMount); mount != "" {
		result.Medium.MountPath = filepath.Clean(mount)
	}

	if dbPath := os.Getenv(EnvStateDB); dbPath != "" {
		result.Storage.StateDB = dbPath
	}

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	if driver := os.Getenv(EnvDriver); driver != "" {
		result.Hardware.Driver = strings.ToLower(driver)
	}

	if listen, ok := os.LookupEnv(EnvHTTP); ok {
		if strings.EqualFold(listen, "off") {
			listen = ""
		}
		result.HTTP.Listen = listen
	}

	return &result
}

// Load is a convenience function that creates a loader and loads configuration.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
