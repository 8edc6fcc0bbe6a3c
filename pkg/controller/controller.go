package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/0xmhha/sdlogger/pkg/cursor"
	"github.com/0xmhha/sdlogger/pkg/errcode"
	"github.com/0xmhha/sdlogger/pkg/hal"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/logger"
	"github.com/0xmhha/sdlogger/pkg/metrics"
	"github.com/0xmhha/sdlogger/pkg/report"
	"github.com/0xmhha/sdlogger/pkg/sensor"
	"github.com/0xmhha/sdlogger/pkg/sessionlog"
)

// controller implements the Controller interface.
//
// Only the loop goroutine writes the session fields below; it writes them
// under mu so Status can read a consistent snapshot, and reads them
// without locking.
type controller struct {
	config Config
	deps   Deps
	logger logger.Logger

	wake    chan struct{}
	enabled atomic.Bool

	mu      sync.Mutex
	running bool
	pending int // presses not yet applied by the loop

	state        State
	cursorLoaded bool
	index        uint32
	persisted    bool // index is durable in the cursor file
	startPending bool // logging enabled, session not begun yet
	cycle        uint32
	offset       int64
	offsetKnown  bool
	reinits      uint64

	sessionRecords uint64
	sessionBytes   int64
	totalRecords   uint64
	sessionStart   time.Time
	lastWrite      time.Time
	lastErr        string
}

// New creates a Controller in the Idle state.
//
// Parameters:
//   - cfg: Sampler configuration; zero fields take their defaults
//   - deps: Collaborators; Cursor, Medium, Writer, Sensors and Battery are required
//   - log: Logger instance
//
// Returns:
//   - Configured Controller
//   - ErrMissingDependency if a required collaborator is nil
func New(cfg Config, deps Deps, log logger.Logger) (Controller, error) {
	return newController(cfg, deps, log)
}

func newController(cfg Config, deps Deps, log logger.Logger) (*controller, error) {
	required := []struct {
		name    string
		missing bool
	}{
		{"cursor", deps.Cursor == nil},
		{"medium", deps.Medium == nil},
		{"writer", deps.Writer == nil},
		{"sensors", deps.Sensors == nil},
		{"battery", deps.Battery == nil},
	}
	for _, r := range required {
		if r.missing {
			return nil, fmt.Errorf("%w: %s", ErrMissingDependency, r.name)
		}
	}

	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 5 * time.Second
	}
	if cfg.Ceiling == 0 {
		cfg.Ceiling = DefaultCeiling
	}
	if cfg.BlinkOn <= 0 {
		cfg.BlinkOn = 500 * time.Millisecond
	}
	if cfg.BlinkOff <= 0 {
		cfg.BlinkOff = 500 * time.Millisecond
	}
	if cfg.CheckpointEvery == 0 {
		cfg.CheckpointEvery = 60
	}

	if log == nil {
		log = logger.Noop()
	}
	if deps.Reporter == nil {
		deps.Reporter = report.New(log)
	}

	c := &controller{
		config:    cfg,
		deps:      deps,
		logger:    log.With("component", "controller"),
		wake:      make(chan struct{}, 1),
		persisted: true,
	}

	c.logger.Info("controller created",
		"period", cfg.Period,
		"idle_interval", cfg.IdleInterval,
		"ceiling", cfg.Ceiling)

	return c, nil
}

// Run implements Controller.Run.
func (c *controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	c.logger.Info("sampler started")
	c.boot()

	for {
		if ctx.Err() != nil {
			break
		}
		delay := c.iterate()
		if !c.sleep(ctx, delay) {
			break
		}
	}

	c.shutdown()
	c.logger.Info("sampler stopped",
		"index", c.index,
		"total_records", c.totalRecords)
	return nil
}

// Press implements Controller.Press.
func (c *controller) Press() {
	c.mu.Lock()
	c.pending++
	c.mu.Unlock()
	c.Wake()
}

// HandleEdge implements Controller.HandleEdge.
func (c *controller) HandleEdge(e hal.Edge) {
	if e != hal.Press {
		return
	}
	c.Press()
}

// Wake implements Controller.Wake.
func (c *controller) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Enabled implements Controller.Enabled.
func (c *controller) Enabled() bool {
	return c.enabled.Load()
}

// Status implements Controller.Status.
func (c *controller) Status() Status {
	mediumState := c.deps.Medium.State().String()

	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:          c.state,
		LoggingEnabled: c.enabled.Load(),
		CursorLoaded:   c.cursorLoaded,
		SessionPending: c.startPending,
		SessionIndex:   c.index,
		Cycle:          c.cycle,
		WriteOffset:    c.offset,
		SessionRecords: c.sessionRecords,
		TotalRecords:   c.totalRecords,
		Medium:         mediumState,
		Reinits:        c.reinits,
		PendingPresses: c.pending,
		LastWrite:      c.lastWrite,
		LastError:      c.lastErr,
	}
	if c.state == Logging && !c.startPending {
		st.File = c.deps.Writer.FileName(c.index)
		st.SessionStart = c.sessionStart
	}
	return st
}

// boot loads the cursor if the medium is available. Otherwise the load is
// retried on later iterations.
func (c *controller) boot() {
	if !c.stepMedium() {
		c.logger.Info("medium unavailable at startup, cursor load deferred")
		return
	}
	c.loadCursor()
}

// iterate runs one loop iteration and returns how long to sleep.
func (c *controller) iterate() time.Duration {
	c.applyPresses()

	if c.state != Logging {
		c.indicate(false)
		if c.stepMedium() && !c.cursorLoaded {
			c.loadCursor()
		}
		return c.config.IdleInterval
	}

	if !c.stepMedium() {
		metrics.SkippedIterations.Inc()
		return c.config.Period
	}
	if !c.cursorLoaded && !c.loadCursor() {
		return c.config.Period
	}
	if c.startPending {
		c.beginSession(journal.CausePress)
	}
	if !c.persisted && !c.persistIndex() {
		return c.config.Period
	}

	c.sample()
	return c.config.Period
}

func (c *controller) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	case <-c.wake:
		return true
	}
}

func (c *controller) applyPresses() {
	c.mu.Lock()
	n := c.pending
	c.pending = 0
	c.mu.Unlock()

	for i := 0; i < n; i++ {
		c.toggle()
	}
}

func (c *controller) toggle() {
	if c.state == Idle {
		c.mu.Lock()
		c.state = Logging
		c.cycle = 1
		c.startPending = true
		c.mu.Unlock()
		c.setEnabled(true)
		c.logger.Info("logging enabled")
		return
	}

	if !c.startPending {
		c.endSession(journal.EndStopped)
	}
	c.mu.Lock()
	c.state = Idle
	c.startPending = false
	c.mu.Unlock()
	c.setEnabled(false)
	c.logger.Info("logging stopped", "index", c.index, "offset", c.offset)
}

func (c *controller) setEnabled(on bool) {
	c.enabled.Store(on)
	metrics.SetLoggingEnabled(on)
	c.indicate(on)
}

// stepMedium advances the medium monitor. A reinitialized medium may hold
// a different file, so the write offset is re-read before the next write.
func (c *controller) stepMedium() bool {
	ok, err := c.deps.Medium.Step()
	if errcode.Transient(err) {
		c.logger.Debug("medium unavailable", "reason", err)
	} else {
		c.report(err)
	}

	if r := c.deps.Medium.Reinits(); r != c.reinits {
		c.mu.Lock()
		c.reinits = r
		c.offsetKnown = false
		c.mu.Unlock()
	}
	return ok
}

// loadCursor reads the persisted index and immediately reserves the next
// one, so a reset never reuses an index that may already hold data.
func (c *controller) loadCursor() bool {
	n, err := c.deps.Cursor.ReadIndex()
	switch {
	case err == nil:
	case cursor.Defaulted(err):
		c.logger.Warn("cursor unusable, starting from index 0", "reason", err)
	default:
		c.report(errcode.Wrap(errcode.MediumIO, "read cursor", err))
		return false
	}

	c.mu.Lock()
	c.index = n
	c.cursorLoaded = true
	c.mu.Unlock()
	metrics.SessionIndex.Set(float64(n))

	if err := c.deps.Cursor.WriteIndex(n + 1); err != nil {
		c.report(errcode.Wrap(errcode.CursorWrite, "reserve next index", err))
		return true
	}
	c.logger.Info("cursor loaded", "index", n, "reserved", n+1)
	return true
}

// beginSession moves to the next index. It runs only while the medium is
// available; records are held back until the new index has been persisted.
func (c *controller) beginSession(cause journal.Cause) {
	c.mu.Lock()
	c.index++
	c.cycle = 1
	c.offset = 0
	c.offsetKnown = false
	c.persisted = false
	c.startPending = false
	c.sessionRecords = 0
	c.sessionBytes = 0
	c.sessionStart = time.Now()
	idx := c.index
	c.mu.Unlock()

	c.persistIndex()

	file := c.deps.Writer.FileName(idx)
	metrics.RecordSessionStart(string(cause), idx)
	metrics.Cycle.Set(1)
	if c.deps.Journal != nil {
		c.reportJournal("begin session", c.deps.Journal.Begin(idx, file, cause))
	}
	c.logger.Info("session started", "index", idx, "file", file, "cause", cause)
}

func (c *controller) endSession(reason journal.EndReason) {
	if c.deps.Journal != nil {
		c.reportJournal("end session",
			c.deps.Journal.End(c.index, reason, c.sessionRecords, c.sessionBytes))
	}
	c.logger.Info("session ended",
		"index", c.index,
		"reason", reason,
		"records", c.sessionRecords,
		"bytes", c.sessionBytes)
}

func (c *controller) persistIndex() bool {
	if err := c.deps.Cursor.WriteIndex(c.index); err != nil {
		c.report(errcode.Wrap(errcode.CursorWrite, "persist session index",
			fmt.Errorf("%w: index %d: %w", ErrCursorNotPersisted, c.index, err)))
		return false
	}
	c.mu.Lock()
	c.persisted = true
	c.mu.Unlock()
	return true
}

// sample takes one measurement and appends it to the session file.
// Each phase stops the iteration on its first failure.
func (c *controller) sample() {
	s, err := c.deps.Sensors.Read()
	if err != nil {
		code := errcode.SensorRead
		if errors.Is(err, sensor.ErrNotReady) {
			code = errcode.SensorNotReady
		}
		c.report(errcode.Wrap(code, "read sensors", err))
		return
	}

	mv, err := c.deps.Battery.MilliVolts()
	if err != nil {
		c.report(errcode.Wrap(errcode.BatteryRead, "read battery", err))
		return
	}

	if !c.offsetKnown {
		size, err := c.deps.Writer.Size(c.index)
		if err != nil {
			c.report(errcode.Wrap(errcode.MediumIO, "stat session file", err))
			return
		}
		c.mu.Lock()
		c.offset = size
		c.offsetKnown = true
		c.mu.Unlock()
	}

	line := sessionlog.Format(sessionlog.Record{
		ElapsedMs:   int64(c.cycle) * c.config.Period.Milliseconds(),
		AccelX:      int64(s.AccelX),
		AccelY:      int64(s.AccelY),
		AccelZ:      int64(s.AccelZ),
		Humidity:    int64(s.Humidity),
		Pressure:    int64(s.Pressure),
		Temperature: float64(s.TemperatureMilliC) / 1000.0,
		Light:       float64(s.LightMilliLux) / 1000.0,
		Battery:     float64(mv) / 1000.0,
	})

	// A short write is not accounted; the next record overwrites it.
	n, err := c.deps.Writer.Append(c.index, line, c.offset)
	if err != nil {
		c.report(errcode.Wrap(errcode.WriteFailed, "append record", err))
		return
	}

	c.mu.Lock()
	c.offset += int64(n)
	c.sessionRecords++
	c.sessionBytes += int64(n)
	c.totalRecords++
	c.lastWrite = time.Now()
	c.mu.Unlock()
	metrics.RecordWrite(n)

	if c.deps.Journal != nil && c.sessionRecords%c.config.CheckpointEvery == 0 {
		c.reportJournal("checkpoint session",
			c.deps.Journal.Checkpoint(c.index, c.sessionRecords, c.sessionBytes))
	}

	if c.cycle >= c.config.Ceiling {
		c.rollover()
		return
	}
	c.mu.Lock()
	c.cycle++
	c.mu.Unlock()
	metrics.Cycle.Set(float64(c.cycle))
}

func (c *controller) rollover() {
	c.logger.Info("cycle ceiling reached, rolling over", "index", c.index, "cycle", c.cycle)
	c.endSession(journal.EndRollover)
	c.beginSession(journal.CauseRollover)
}

func (c *controller) shutdown() {
	if c.state == Logging && !c.startPending {
		c.endSession(journal.EndShutdown)
	}
	c.indicate(false)
}

func (c *controller) indicate(logging bool) {
	if c.deps.Activity == nil {
		return
	}
	var err error
	if logging {
		err = c.deps.Activity.Blink(c.config.BlinkOn, c.config.BlinkOff)
	} else {
		err = c.deps.Activity.Off()
	}
	if err != nil {
		c.logger.Warn("failed to drive activity indicator", "error", err)
	}
}

func (c *controller) report(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	c.deps.Reporter.Report(err)
}

func (c *controller) reportJournal(op string, err error) {
	if err == nil {
		return
	}
	c.report(errcode.WithSeverity(errcode.Journal, errcode.Warning, op, err))
}
