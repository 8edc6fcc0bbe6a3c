package summary

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// aggregator implements the Aggregator interface.
type aggregator struct {
	config Config

	mu       sync.RWMutex
	records  int
	first    int64
	last     int64
	spanMs   int64
	restarts int
	columns  map[Field]*column
}

// column holds running statistics for one field.
type column struct {
	values []float64 // kept only for percentiles
	sum    float64
	stats  Stats
}

// New creates a new aggregator.
func New(cfg Config) Aggregator {
	a := &aggregator{config: cfg}
	a.reset()
	return a
}

// Add implements Aggregator.Add.
func (a *aggregator) Add(rec sessionlog.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.records++
	if a.records == 1 {
		a.first = rec.ElapsedMs
	} else if rec.ElapsedMs < a.last {
		a.restarts++
		a.spanMs += rec.ElapsedMs
	} else {
		a.spanMs += rec.ElapsedMs - a.last
	}
	a.last = rec.ElapsedMs

	for _, f := range Fields {
		a.update(a.columns[f], value(rec, f))
	}
}

// Summary implements Aggregator.Summary.
func (a *aggregator) Summary() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Summary{
		Records:        a.records,
		FirstElapsedMs: a.first,
		LastElapsedMs:  a.last,
		Span:           time.Duration(a.spanMs) * time.Millisecond,
		Restarts:       a.restarts,
		Fields:         make(map[Field]Stats, len(Fields)),
	}
	if a.records == 0 {
		return s
	}

	for _, f := range Fields {
		c := a.columns[f]
		stats := c.stats

		if a.config.TrackPercentiles && len(c.values) > 0 {
			sorted := make([]float64, len(c.values))
			copy(sorted, c.values)
			sort.Float64s(sorted)

			stats.P50 = percentile(sorted, 50)
			stats.P95 = percentile(sorted, 95)
		}

		s.Fields[f] = stats
	}

	return s
}

// Reset implements Aggregator.Reset.
func (a *aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *aggregator) reset() {
	a.records = 0
	a.first, a.last, a.spanMs = 0, 0, 0
	a.restarts = 0
	a.columns = make(map[Field]*column, len(Fields))
	for _, f := range Fields {
		a.columns[f] = &column{}
	}
}

// update folds v into c.
func (a *aggregator) update(c *column, v float64) {
	c.sum += v

	if a.records == 1 {
		c.stats.Min = v
		c.stats.Max = v
	} else {
		if v < c.stats.Min {
			c.stats.Min = v
		}
		if v > c.stats.Max {
			c.stats.Max = v
		}
	}
	c.stats.Avg = c.sum / float64(a.records)

	if a.config.TrackPercentiles {
		c.values = append(c.values, v)
	}
}

// File reads the session file at path and summarizes it.
func File(path string, cfg Config) (Summary, error) {
	records, _, skipped, err := sessionlog.ReadFile(path, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read session file: %w", err)
	}

	agg := New(cfg)
	for _, rec := range records {
		agg.Add(rec)
	}

	s := agg.Summary()
	s.Skipped = skipped
	return s, nil
}

func value(rec sessionlog.Record, f Field) float64 {
	switch f {
	case AccelX:
		return float64(rec.AccelX)
	case AccelY:
		return float64(rec.AccelY)
	case AccelZ:
		return float64(rec.AccelZ)
	case Humidity:
		return float64(rec.Humidity)
	case Pressure:
		return float64(rec.Pressure)
	case Temperature:
		return rec.Temperature
	case Light:
		return rec.Light
	case Battery:
		return rec.Battery
	default:
		return 0
	}
}

// percentile calculates the nth percentile of a sorted slice.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between closest ranks.
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return sorted[lower]*(1-fraction) + sorted[upper]*fraction
}
