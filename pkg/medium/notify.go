package medium

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// Event reports filesystem activity at the medium mount point.
type Event struct {
	// Path is the path that triggered the event.
	Path string

	// Op is the fsnotify operation, e.g. "CREATE" or "REMOVE".
	Op string

	// Timestamp is when the debounced event was emitted.
	Timestamp time.Time
}

// Notifier reports hot-plug activity so the logging loop can probe the
// medium without waiting for its next period.
type Notifier interface {
	// Start begins watching and returns immediately.
	Start(ctx context.Context) error

	// Events delivers debounced mount point events. Bursts collapse into
	// a single pending event.
	Events() <-chan Event

	// Errors delivers non-fatal watcher errors.
	Errors() <-chan error

	// Close stops watching, waits for the event loop and closes both channels.
	Close() error
}

type notifier struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config NotifierConfig
	mount  string

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	failureCount int
}

// NewNotifier creates a hot-plug notifier for cfg.MountPath.
func NewNotifier(cfg NotifierConfig, log logger.Logger) (Notifier, error) {
	if cfg.MountPath == "" {
		return nil, fmt.Errorf("failed to create notifier: empty mount path")
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 200 * time.Millisecond
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}
	if log == nil {
		log = logger.Noop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &notifier{
		fsw:      fsw,
		logger:   log.With("component", "medium-notifier"),
		config:   cfg,
		mount:    filepath.Clean(cfg.MountPath),
		events:   make(chan Event, 1),
		errors:   make(chan error, 10),
		stopChan: make(chan struct{}),
	}, nil
}

func (n *notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNotifierClosed
	}
	if n.running {
		return ErrAlreadyStarted
	}

	parent := filepath.Dir(n.mount)
	if err := n.fsw.Add(parent); err != nil {
		return fmt.Errorf("failed to watch %s: %w", parent, err)
	}
	// The mount point itself may not exist yet.
	if err := n.fsw.Add(n.mount); err != nil {
		n.logger.Debug("mount point not watchable yet", "path", n.mount, "error", err)
	}

	n.running = true
	n.wg.Add(1)
	go n.processEvents(ctx)

	n.logger.Info("notifier started", "mount", n.mount, "parent", parent)
	return nil
}

func (n *notifier) Events() <-chan Event { return n.events }

func (n *notifier) Errors() <-chan error { return n.errors }

func (n *notifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	if n.running {
		close(n.stopChan)
		n.running = false
	}
	n.mu.Unlock()

	n.wg.Wait()

	n.debounceMu.Lock()
	if n.debounceTimer != nil {
		n.debounceTimer.Stop()
		n.debounceTimer = nil
	}
	n.debounceMu.Unlock()

	// Serialize with emit, which holds the read lock while sending.
	n.mu.Lock()
	close(n.events)
	close(n.errors)
	n.mu.Unlock()

	if err := n.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close notifier: %w", err)
	}
	n.logger.Info("notifier closed")
	return nil
}

func (n *notifier) processEvents(ctx context.Context) {
	defer n.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.stopChan:
			return
		case ev, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			n.handleEvent(ev)
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			n.handleError(err)
		}
	}
}

// handleEvent keeps events that concern the mount point and re-arms the
// watch on the mount point when it is recreated.
func (n *notifier) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if path != n.mount && filepath.Dir(path) != n.mount {
		return
	}

	if path == n.mount && ev.Has(fsnotify.Create) {
		if err := n.fsw.Add(n.mount); err != nil {
			n.logger.Debug("failed to watch mount point", "path", n.mount, "error", err)
		}
	}

	n.failureCount = 0
	n.debounce(Event{Path: path, Op: ev.Op.String()})
}

func (n *notifier) debounce(ev Event) {
	n.debounceMu.Lock()
	defer n.debounceMu.Unlock()

	if n.debounceTimer != nil {
		n.debounceTimer.Stop()
	}
	n.debounceTimer = time.AfterFunc(n.config.DebounceInterval, func() {
		ev.Timestamp = time.Now()
		n.emit(ev)
	})
}

func (n *notifier) emit(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.events <- ev:
		n.logger.Debug("mount point activity", "path", ev.Path, "op", ev.Op)
	default:
		// An event is already pending.
	}
}

func (n *notifier) handleError(err error) {
	n.failureCount++
	n.logger.Warn("fsnotify error", "error", err, "failure_count", n.failureCount)

	out := err
	if n.failureCount == n.config.CircuitBreakerThreshold {
		n.logger.Error("circuit breaker opened", "threshold", n.config.CircuitBreakerThreshold)
		out = ErrCircuitBreakerOpen
	} else if n.failureCount > n.config.CircuitBreakerThreshold {
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.errors <- out:
	default:
	}
}
