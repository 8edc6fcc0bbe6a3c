// Package metrics provides Prometheus metrics for the logging loop.
//
// Metrics are registered on the default registry at package init and are
// served by the HTTP surface under /metrics. Labels are limited to bounded
// sets (error code and severity); session indices are exported as gauges,
// never as labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsWritten counts records appended to session files.
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdlogger_records_written_total",
		Help: "Total number of records appended to session files.",
	})

	// BytesWritten counts bytes accepted by the medium.
	BytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdlogger_bytes_written_total",
		Help: "Total number of bytes accepted by the storage medium.",
	})

	// SessionsStarted counts session starts, by cause (press, rollover).
	SessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdlogger_sessions_started_total",
		Help: "Total number of sessions started, by cause.",
	}, []string{"cause"})

	// MediumReinits counts disable/enable cycles after a removal.
	MediumReinits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdlogger_medium_reinit_total",
		Help: "Total number of medium reinitializations after removal.",
	})

	// SkippedIterations counts logging iterations skipped because the medium was unavailable.
	SkippedIterations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sdlogger_skipped_iterations_total",
		Help: "Total number of logging iterations skipped while the medium was unavailable.",
	})

	// Errors counts reported errors, by code and severity.
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdlogger_errors_total",
		Help: "Total number of reported errors, by code and severity.",
	}, []string{"code", "severity"})

	// MediumPresent is 1 while the medium is inserted and usable.
	MediumPresent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sdlogger_medium_present",
		Help: "Whether the storage medium is currently present (1) or absent (0).",
	})

	// LoggingEnabled is 1 while a session is active.
	LoggingEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sdlogger_logging_enabled",
		Help: "Whether logging is currently enabled (1) or idle (0).",
	})

	// SessionIndex is the current session index.
	SessionIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sdlogger_session_index",
		Help: "Current session index.",
	})

	// Cycle is the cycle counter of the current session.
	Cycle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sdlogger_cycle",
		Help: "Cycle counter of the current session.",
	})
)

// RecordWrite accounts for one appended record of n bytes.
func RecordWrite(n int) {
	RecordsWritten.Inc()
	BytesWritten.Add(float64(n))
}

// RecordSessionStart accounts for a new session and publishes its index.
func RecordSessionStart(cause string, index uint32) {
	SessionsStarted.WithLabelValues(cause).Inc()
	SessionIndex.Set(float64(index))
}

// RecordError increments the error counter.
func RecordError(code, severity string) {
	Errors.WithLabelValues(code, severity).Inc()
}

// SetMediumPresent publishes the medium presence state.
func SetMediumPresent(present bool) {
	MediumPresent.Set(boolToFloat(present))
}

// SetLoggingEnabled publishes the logging state.
func SetLoggingEnabled(enabled bool) {
	LoggingEnabled.Set(boolToFloat(enabled))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
