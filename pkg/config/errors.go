package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidPeriod is returned when the sampling period is <= 0.
	ErrInvalidPeriod = errors.New("invalid sampling period: must be > 0")

	// ErrInvalidIdleInterval is returned when the idle interval is <= 0.
	ErrInvalidIdleInterval = errors.New("invalid idle interval: must be > 0")

	// ErrInvalidCeiling is returned when the rollover ceiling is 0.
	ErrInvalidCeiling = errors.New("invalid session ceiling: must be > 0")

	// ErrInvalidCheckpoint is returned when the checkpoint interval is 0.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint interval: must be > 0")

	// ErrInvalidCursorFile is returned when the cursor file name is empty or holds a path.
	ErrInvalidCursorFile = errors.New("invalid cursor file: must be a plain file name")

	// ErrNoMountPath is returned when no medium mount path is configured.
	ErrNoMountPath = errors.New("no medium mount path specified")

	// ErrInvalidDebounce is returned when a debounce interval is negative.
	ErrInvalidDebounce = errors.New("invalid debounce: must be >= 0")

	// ErrInvalidBlink is returned when the blink pattern is not positive.
	ErrInvalidBlink = errors.New("invalid blink pattern: must be > 0")

	// ErrInvalidDriver is returned when the hardware driver is not recognized.
	ErrInvalidDriver = errors.New("invalid hardware driver: must be sim or periph")

	// ErrInvalidToggleRate is returned when the HTTP toggle rate is not positive.
	ErrInvalidToggleRate = errors.New("invalid toggle rate: must be > 0")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
