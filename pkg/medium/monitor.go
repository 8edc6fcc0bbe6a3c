package medium

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/0xmhha/sdlogger/pkg/errcode"
	"github.com/0xmhha/sdlogger/pkg/logger"
	"github.com/0xmhha/sdlogger/pkg/metrics"
)

type monitor struct {
	driver    Driver
	indicator Indicator
	logger    logger.Logger

	// mu serializes Step; state and reinits are read without it so
	// status readers never wait on driver I/O.
	mu      sync.Mutex
	state   atomic.Int32
	ejected bool
	reinits atomic.Uint64
	lampOn  *bool
}

// NewMonitor creates a Monitor in the Removed state. indicator may be nil.
func NewMonitor(driver Driver, indicator Indicator, log logger.Logger) Monitor {
	if log == nil {
		log = logger.Noop()
	}
	m := &monitor{
		driver:    driver,
		indicator: indicator,
		logger:    log.With("component", "medium"),
	}
	m.state.Store(int32(Removed))
	return m
}

func (m *monitor) Step() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.driver.Probe()
	switch {
	case err == nil:
		return m.present()

	case errors.Is(err, ErrUninitialized):
		m.logger.Debug("medium not initialized, enabling")
		m.setState(Removed)
		enErr := m.driver.Enable()
		switch {
		case enErr == nil:
			return false, errcode.Wrap(errcode.MediumUninitialized, "probe medium", err)
		case errors.Is(enErr, ErrNotPresent):
			return false, errcode.Wrap(errcode.MediumAbsent, "enable medium", enErr)
		default:
			return false, errcode.Wrap(errcode.MediumIO, "enable medium", enErr)
		}

	default:
		if m.State() == Inserted {
			m.ejected = true
			m.logger.Warn("medium removed", "root", m.driver.Root())
		}
		m.setState(Removed)
		if errors.Is(err, ErrNotPresent) {
			return false, errcode.Wrap(errcode.MediumAbsent, "probe medium", err)
		}
		return false, errcode.Wrap(errcode.MediumIO, "probe medium", err)
	}
}

// present handles a successful probe. After an ejection the driver is
// cycled once; writes stay suspended until that succeeds.
func (m *monitor) present() (bool, error) {
	if m.ejected {
		if err := m.driver.Disable(); err != nil {
			m.setState(Removed)
			return false, errcode.Wrap(errcode.Reinitialize, "disable medium", err)
		}
		if err := m.driver.Enable(); err != nil {
			m.setState(Removed)
			return false, errcode.Wrap(errcode.Reinitialize, "enable medium", err)
		}
		m.ejected = false
		n := m.reinits.Add(1)
		metrics.MediumReinits.Inc()
		m.logger.Info("medium reinitialized", "root", m.driver.Root(), "reinits", n)
	}

	if m.State() != Inserted {
		m.logger.Info("medium inserted", "root", m.driver.Root())
	}
	m.setState(Inserted)
	return true, nil
}

func (m *monitor) setState(s State) {
	m.state.Store(int32(s))
	on := s == Inserted
	metrics.SetMediumPresent(on)

	if m.indicator == nil || (m.lampOn != nil && *m.lampOn == on) {
		return
	}
	var err error
	if on {
		err = m.indicator.On()
	} else {
		err = m.indicator.Off()
	}
	if err != nil {
		m.logger.Warn("failed to drive presence indicator", "error", err)
		return
	}
	m.lampOn = &on
}

func (m *monitor) State() State {
	return State(m.state.Load())
}

func (m *monitor) Reinits() uint64 {
	return m.reinits.Load()
}
