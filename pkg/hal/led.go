package hal

import (
	"fmt"
	"sync"
	"time"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// LED is an Indicator on an output pin. Blinking runs on its own goroutine,
// which is stopped by any other command and by Close.
type LED struct {
	pin    OutputPin
	name   string
	logger logger.Logger

	mu       sync.Mutex
	mode     string
	blinkOn  time.Duration
	blinkOff time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewLED wraps pin. The lamp starts dark.
func NewLED(name string, pin OutputPin, log logger.Logger) *LED {
	if log == nil {
		log = logger.Noop()
	}
	return &LED{
		pin:    pin,
		name:   name,
		logger: log.With("component", "led", "led", name),
		mode:   "off",
	}
}

// On lights the lamp steadily.
func (l *LED) On() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopBlinkLocked()
	l.mode = "on"
	return l.set(true)
}

// Off darkens the lamp.
func (l *LED) Off() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopBlinkLocked()
	l.mode = "off"
	return l.set(false)
}

// Blink starts toggling the lamp. Repeating the current blink pattern is a
// no-op, so callers may assert the pattern every iteration.
func (l *LED) Blink(on, off time.Duration) error {
	if on <= 0 || off <= 0 {
		return fmt.Errorf("invalid blink pattern %v/%v", on, off)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == "blink" && l.blinkOn == on && l.blinkOff == off {
		return nil
	}
	l.stopBlinkLocked()

	l.mode = "blink"
	l.blinkOn, l.blinkOff = on, off
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.blink(on, off, l.stop, l.done)
	return nil
}

// Mode returns "on", "off" or "blink".
func (l *LED) Mode() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// Close stops blinking and darkens the lamp.
func (l *LED) Close() error {
	return l.Off()
}

func (l *LED) blink(on, off time.Duration, stop, done chan struct{}) {
	defer close(done)

	lit := true
	for {
		if err := l.set(lit); err != nil {
			l.logger.Warn("failed to drive led", "error", err)
		}
		wait := off
		if lit {
			wait = on
		}

		t := time.NewTimer(wait)
		select {
		case <-stop:
			t.Stop()
			return
		case <-t.C:
		}
		lit = !lit
	}
}

func (l *LED) stopBlinkLocked() {
	if l.stop == nil {
		return
	}
	close(l.stop)
	<-l.done
	l.stop, l.done = nil, nil
}

func (l *LED) set(high bool) error {
	if err := l.pin.Set(high); err != nil {
		return fmt.Errorf("failed to set %s led: %w", l.name, err)
	}
	return nil
}
