// Package sessionlog writes and reads the per-session data files kept on
// the storage medium.
//
// Each session owns one file, named from its index (data_<index>.csv by
// default). Records are semicolon-separated text lines terminated by
// "\r\n" and are written at caller-supplied offsets:
//
//	w := sessionlog.NewWriter(sessionlog.Config{Dir: "/media/sd"}, log)
//	n, err := w.Append(6, sessionlog.Format(rec), offset)
//	offset += int64(n)
package sessionlog

import "time"

// DefaultPattern is the file name pattern used when Config.Pattern is empty.
const DefaultPattern = "data_%d.csv"

const (
	// MaxFileSize bounds how much of a session file ReadFile accepts.
	MaxFileSize = 64 * 1024 * 1024

	// MaxLineLength bounds a single record line when reading.
	MaxLineLength = 4096
)

// Record is one sample line of a session file.
type Record struct {
	// ElapsedMs is the time since session start, cycle * period.
	ElapsedMs int64

	// AccelX, AccelY, AccelZ are accelerations in milli-g.
	AccelX int64
	AccelY int64
	AccelZ int64

	// Humidity is relative humidity in percent.
	Humidity int64

	// Pressure is barometric pressure in pascal.
	Pressure int64

	// Temperature is in degrees Celsius.
	Temperature float64

	// Light is illuminance in lux.
	Light float64

	// Battery is the battery voltage in volts.
	Battery float64
}

// Writer appends formatted records to session files.
type Writer interface {
	// Append writes line to the file of session index at offset.
	//
	// Returns:
	//   - the number of bytes the medium accepted
	//   - an error if the file cannot be opened or the write is short
	//
	// The file is created if needed. Bytes already present beyond offset
	// are overwritten.
	Append(index uint32, line []byte, offset int64) (int, error)

	// FileName returns the file name for session index.
	FileName(index uint32) string

	// Size returns the current size of the file for session index,
	// or 0 if it does not exist.
	Size(index uint32) (int64, error)
}

// Config contains writer configuration.
type Config struct {
	// Dir is the medium root the session files live in.
	Dir string

	// Pattern is a fmt pattern with a single %d verb for the index.
	// Default: data_%d.csv.
	Pattern string

	// Sync flushes every record to stable storage before Append returns.
	Sync bool
}

// File describes a session file found on the medium.
type File struct {
	// Index is the session index parsed from the file name.
	Index uint32

	// Name is the base file name.
	Name string

	// Path is the full path to the file.
	Path string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time
}
