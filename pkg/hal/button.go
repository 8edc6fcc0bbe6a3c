package hal

import (
	"context"
	"time"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// Button turns raw pin activity into debounced Press and Release edges.
type Button struct {
	pin    InputPin
	cfg    ButtonConfig
	logger logger.Logger

	pressed   bool
	missed    bool
	lastEvent time.Time
}

// NewButton wraps pin. The current level is taken as the initial state.
func NewButton(pin InputPin, cfg ButtonConfig, log logger.Logger) *Button {
	if cfg.Debounce == 0 {
		cfg.Debounce = 50 * time.Millisecond
	}
	if cfg.Poll == 0 {
		cfg.Poll = 200 * time.Millisecond
	}
	if log == nil {
		log = logger.Noop()
	}
	b := &Button{pin: pin, cfg: cfg, logger: log.With("component", "button")}
	b.pressed = b.level()
	return b
}

// Run delivers edges to handle until ctx is done. handle runs on the
// caller's goroutine and must not block.
func (b *Button) Run(ctx context.Context, handle func(Edge)) error {
	b.logger.Debug("button watch started", "active_low", b.cfg.ActiveLow)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// A timeout still samples, so a change swallowed by the debounce
		// window is delivered once the window has passed.
		b.pin.WaitForEdge(b.cfg.Poll)
		for _, e := range b.sample(time.Now()) {
			b.logger.Debug("button edge", "edge", e)
			handle(e)
		}
	}
}

// sample reads the pin and returns the edges since the last debounced
// state. A level change seen inside the debounce window is remembered; if
// the pin is back at the old level by the time the window has passed, the
// full tap is reported as two edges.
func (b *Button) sample(now time.Time) []Edge {
	pressed := b.level()

	if !b.lastEvent.IsZero() && now.Sub(b.lastEvent) < b.cfg.Debounce {
		if pressed != b.pressed {
			b.missed = true
		}
		return nil
	}

	var edges []Edge
	if pressed == b.pressed {
		if !b.missed {
			return nil
		}
		edges = append(edges, edgeFor(!pressed))
	}
	edges = append(edges, edgeFor(pressed))

	b.pressed = pressed
	b.missed = false
	b.lastEvent = now
	return edges
}

func edgeFor(pressed bool) Edge {
	if pressed {
		return Press
	}
	return Release
}

func (b *Button) level() bool {
	high := b.pin.Read()
	if b.cfg.ActiveLow {
		return !high
	}
	return high
}
