// Package summary computes statistics over the records of a session file.
//
// Example usage:
//
//	agg := summary.New(summary.Config{TrackPercentiles: true})
//	for _, rec := range records {
//	    agg.Add(rec)
//	}
//	s := agg.Summary()
//	fmt.Printf("%d records over %v\n", s.Records, s.Span)
package summary

import (
	"time"

	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// Field names a record column.
type Field string

// Record columns, in file order.
const (
	AccelX      Field = "accel_x_mg"
	AccelY      Field = "accel_y_mg"
	AccelZ      Field = "accel_z_mg"
	Humidity    Field = "humidity_pct"
	Pressure    Field = "pressure_pa"
	Temperature Field = "temperature_c"
	Light       Field = "light_lux"
	Battery     Field = "battery_v"
)

// Fields lists every summarized column in file order.
var Fields = []Field{AccelX, AccelY, AccelZ, Humidity, Pressure, Temperature, Light, Battery}

// Aggregator accumulates session records.
type Aggregator interface {
	// Add adds a record to the aggregator.
	Add(rec sessionlog.Record)

	// Summary returns statistics over every record added so far.
	Summary() Summary

	// Reset clears all aggregated data.
	Reset()
}

// Stats contains statistics for one column.
type Stats struct {
	// Min is the smallest value.
	Min float64 `json:"min"`

	// Max is the largest value.
	Max float64 `json:"max"`

	// Avg is the arithmetic mean.
	Avg float64 `json:"avg"`

	// P50 is the median; zero unless percentiles are tracked.
	P50 float64 `json:"p50,omitempty"`

	// P95 is the 95th percentile; zero unless percentiles are tracked.
	P95 float64 `json:"p95,omitempty"`
}

// Summary contains statistics for a set of records.
type Summary struct {
	// Records is the number of records.
	Records int `json:"records"`

	// Skipped is the number of malformed lines, when read from a file.
	Skipped int `json:"skipped"`

	// FirstElapsedMs and LastElapsedMs are the elapsed times of the first
	// and last record.
	FirstElapsedMs int64 `json:"first_elapsed_ms"`
	LastElapsedMs  int64 `json:"last_elapsed_ms"`

	// Span is the elapsed time covered by the records, summed across
	// restarts.
	Span time.Duration `json:"span"`

	// Restarts counts places where the elapsed time goes backwards, which
	// happens when the logger was reset and resumed the same file.
	Restarts int `json:"restarts"`

	// Fields holds per-column statistics.
	Fields map[Field]Stats `json:"fields"`
}

// Config contains aggregator configuration.
type Config struct {
	// TrackPercentiles enables median and P95 calculation.
	//
	// Percentile calculation keeps every value in memory, so disable it for
	// very long sessions if memory is a concern.
	TrackPercentiles bool
}
