package sensor

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/adxl345"
	"tinygo.org/x/drivers/bh1750"
	"tinygo.org/x/drivers/bme280"

	"github.com/0xmhha/sdlogger/pkg/logger"
)

// hardware reads the sensors on one I²C bus. Channels of sensors that are
// not fitted read as zero.
type hardware struct {
	mu     sync.Mutex
	env    *bme280.Device
	motion *adxl345.Device
	light  *bh1750.Device
	logger logger.Logger
}

// NewHardware configures the enabled sensors on bus.
//
// Returns ErrNoSensors when cfg enables nothing and ErrNotReady when the
// environment sensor does not answer.
func NewHardware(bus drivers.I2C, cfg HardwareConfig, log logger.Logger) (Source, error) {
	if !cfg.Environment && !cfg.Motion && !cfg.Light {
		return nil, ErrNoSensors
	}
	if log == nil {
		log = logger.Noop()
	}
	h := &hardware{logger: log.With("component", "sensor")}

	if cfg.Environment {
		dev := bme280.New(bus)
		if !dev.Connected() {
			return nil, fmt.Errorf("failed to find BME280: %w", ErrNotReady)
		}
		dev.Configure()
		h.env = &dev
	}
	if cfg.Motion {
		dev := adxl345.New(bus)
		dev.Configure()
		h.motion = &dev
	}
	if cfg.Light {
		dev := bh1750.New(bus)
		dev.Configure()
		h.light = &dev
	}

	h.logger.Info("sensors configured",
		"environment", cfg.Environment,
		"motion", cfg.Motion,
		"light", cfg.Light)
	return h, nil
}

func (h *hardware) Read() (Sample, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var s Sample

	if h.motion != nil {
		// Reported in micro-g.
		x, y, z, err := h.motion.ReadAcceleration()
		if err != nil {
			return Sample{}, fmt.Errorf("failed to read acceleration: %w", err)
		}
		s.AccelX, s.AccelY, s.AccelZ = x/1000, y/1000, z/1000
	}

	if h.env != nil {
		t, err := h.env.ReadTemperature()
		if err != nil {
			return Sample{}, fmt.Errorf("failed to read temperature: %w", err)
		}
		p, err := h.env.ReadPressure()
		if err != nil {
			return Sample{}, fmt.Errorf("failed to read pressure: %w", err)
		}
		rh, err := h.env.ReadHumidity()
		if err != nil {
			return Sample{}, fmt.Errorf("failed to read humidity: %w", err)
		}
		// Pressure comes in milli-pascal, humidity in hundredths of a percent.
		s.TemperatureMilliC = t
		s.Pressure = p / 1000
		s.Humidity = rh / 100
	}

	if h.light != nil {
		s.LightMilliLux = h.light.Illuminance()
	}

	return s, nil
}
