// Package config provides configuration management for sdlogger.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("medium: %s\n", cfg.Medium.MountPath)
package config

import (
	"strings"
	"time"

	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// Hardware drivers.
const (
	DriverSim    = "sim"
	DriverPeriph = "periph"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Sampler.Period and Sampler.IdleInterval must be > 0
// - Session.Ceiling and Session.CheckpointEvery must be > 0
// - Session.FilePattern must hold exactly one %d verb
// - Medium.MountPath must not be empty
// - Hardware.Driver must be sim or periph.
type Config struct {
	// Sampling cadence
	Sampler SamplerConfig `yaml:"sampler"`

	// Session file and rollover settings
	Session SessionConfig `yaml:"session"`

	// Removable medium settings
	Medium MediumConfig `yaml:"medium"`

	// Indicator lamp settings
	Indicator IndicatorConfig `yaml:"indicator"`

	// Button settings
	Input InputConfig `yaml:"input"`

	// Sensor and GPIO backend settings
	Hardware HardwareConfig `yaml:"hardware"`

	// Host-side storage settings
	Storage StorageConfig `yaml:"storage"`

	// HTTP status surface settings
	HTTP HTTPConfig `yaml:"http"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// SamplerConfig contains sampling loop settings.
type SamplerConfig struct {
	// Time between records while logging; also the elapsed-time unit
	Period time.Duration `yaml:"period"`

	// Housekeeping sleep while idle
	IdleInterval time.Duration `yaml:"idle_interval"`
}

// SessionConfig contains session file settings.
type SessionConfig struct {
	// Cycle count at which a session rolls over to a new file
	Ceiling uint32 `yaml:"ceiling"`

	// Cursor file name at the medium root
	CursorFile string `yaml:"cursor_file"`

	// Session file name pattern with one %d verb
	FilePattern string `yaml:"file_pattern"`

	// Flush every record to stable storage
	SyncWrites bool `yaml:"sync_writes"`

	// Records between journal checkpoints
	CheckpointEvery uint64 `yaml:"checkpoint_every"`
}

// MediumConfig contains removable medium settings.
type MediumConfig struct {
	// Where the medium's filesystem is mounted
	MountPath string `yaml:"mount_path"`

	// Treat the mount path as absent unless a filesystem is mounted on it
	RequireMountpoint bool `yaml:"require_mountpoint"`

	// Wake the sampler on filesystem events at the mount point
	Watch bool `yaml:"watch"`

	// Coalescing window for filesystem events
	Debounce time.Duration `yaml:"debounce"`
}

// IndicatorConfig contains indicator lamp settings.
type IndicatorConfig struct {
	// Activity lamp blink pattern while logging
	BlinkOn  time.Duration `yaml:"blink_on"`
	BlinkOff time.Duration `yaml:"blink_off"`

	// GPIO line names (periph driver only)
	ActivityPin string `yaml:"activity_pin"`
	PresencePin string `yaml:"presence_pin"`
}

// InputConfig contains button settings.
type InputConfig struct {
	// GPIO line name (periph driver only)
	ButtonPin string `yaml:"button_pin"`

	// Minimum time between accepted edges
	Debounce time.Duration `yaml:"debounce"`

	// Level poll interval when the line reports no edge
	Poll time.Duration `yaml:"poll"`

	// Button pulls the line low when pressed
	ActiveLow bool `yaml:"active_low"`
}

// HardwareConfig contains sensor and GPIO backend settings.
type HardwareConfig struct {
	// Backend: sim or periph
	Driver string `yaml:"driver"`

	// I²C bus name; empty selects the first bus
	I2CBus string `yaml:"i2c_bus"`

	// Sensors expected on the bus
	Environment bool `yaml:"environment"`
	Motion      bool `yaml:"motion"`
	Light       bool `yaml:"light"`

	// Power supply directory and name for battery voltage
	PowerSupplyRoot string `yaml:"power_supply_root"`
	BatterySupply   string `yaml:"battery_supply"`
}

// StorageConfig contains host-side storage settings.
type StorageConfig struct {
	// Path to the BoltDB session journal
	StateDB string `yaml:"state_db"`
}

// HTTPConfig contains HTTP surface settings.
type HTTPConfig struct {
	// Listen address; empty disables the server
	Listen string `yaml:"listen"`

	// Accepted toggle requests per minute and client
	ToggleRate int `yaml:"toggle_rate"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Returns an error if any invariant is violated:
//   - Invalid durations (must be > 0)
//   - Invalid ceiling or checkpoint interval
//   - Invalid file pattern or cursor file name
//   - Missing mount path
//   - Unknown hardware driver
//   - Invalid log level or format
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Sampler.Period <= 0 {
		return ErrInvalidPeriod
	}
	if c.Sampler.IdleInterval <= 0 {
		return ErrInvalidIdleInterval
	}

	if c.Session.Ceiling == 0 {
		return ErrInvalidCeiling
	}
	if c.Session.CheckpointEvery == 0 {
		return ErrInvalidCheckpoint
	}
	if c.Session.CursorFile == "" || strings.ContainsAny(c.Session.CursorFile, `/\`) {
		return ErrInvalidCursorFile
	}
	if err := sessionlog.ValidatePattern(c.Session.FilePattern); err != nil {
		return err
	}

	if c.Medium.MountPath == "" {
		return ErrNoMountPath
	}
	if c.Medium.Debounce < 0 || c.Input.Debounce < 0 {
		return ErrInvalidDebounce
	}

	if c.Indicator.BlinkOn <= 0 || c.Indicator.BlinkOff <= 0 {
		return ErrInvalidBlink
	}

	switch c.Hardware.Driver {
	case DriverSim, DriverPeriph:
	default:
		return ErrInvalidDriver
	}

	if c.HTTP.Listen != "" && c.HTTP.ToggleRate <= 0 {
		return ErrInvalidToggleRate
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Sampler: SamplerConfig{
			Period:       1 * time.Second,
			IdleInterval: 5 * time.Second,
		},
		Session: SessionConfig{
			Ceiling:         65535,
			CursorFile:      "index.xdk",
			FilePattern:     sessionlog.DefaultPattern,
			SyncWrites:      true,
			CheckpointEvery: 60,
		},
		Medium: MediumConfig{
			MountPath: "/media/sd",
			Watch:     true,
			Debounce:  200 * time.Millisecond,
		},
		Indicator: IndicatorConfig{
			BlinkOn:     500 * time.Millisecond,
			BlinkOff:    500 * time.Millisecond,
			ActivityPin: "GPIO27",
			PresencePin: "GPIO22",
		},
		Input: InputConfig{
			ButtonPin: "GPIO17",
			Debounce:  50 * time.Millisecond,
			Poll:      200 * time.Millisecond,
			ActiveLow: true,
		},
		Hardware: HardwareConfig{
			Driver:          DriverSim,
			Environment:     true,
			Motion:          true,
			Light:           true,
			PowerSupplyRoot: "/sys/class/power_supply",
		},
		Storage: StorageConfig{
			StateDB: defaultStateDB(),
		},
		HTTP: HTTPConfig{
			ToggleRate: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
