package hal

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	host "periph.io/x/host/v3"
)

// ErrUnknownPin is returned when a GPIO line name is not registered.
var ErrUnknownPin = errors.New("unknown pin")

// InitHost loads the periph.io host drivers. It must run before any
// Open* call.
func InitHost() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return nil
}

// OpenInput configures the named GPIO line as an input with edge
// detection on both edges.
func OpenInput(name string, pullUp bool) (InputPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}
	pull := gpio.PullDown
	if pullUp {
		pull = gpio.PullUp
	}
	if err := p.In(pull, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to configure input %s: %w", name, err)
	}
	return periphInput{pin: p}, nil
}

// OpenOutput configures the named GPIO line as an output driven low.
func OpenOutput(name string) (OutputPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure output %s: %w", name, err)
	}
	return periphOutput{pin: p}, nil
}

// OpenI2C opens the named I²C bus ("" selects the first one). The bus
// implements the Tx method sensor drivers expect.
func OpenI2C(name string) (i2c.BusCloser, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

type periphInput struct {
	pin gpio.PinIO
}

func (p periphInput) Read() bool {
	return p.pin.Read() == gpio.High
}

func (p periphInput) WaitForEdge(timeout time.Duration) bool {
	return p.pin.WaitForEdge(timeout)
}

type periphOutput struct {
	pin gpio.PinIO
}

func (p periphOutput) Set(high bool) error {
	return p.pin.Out(gpio.Level(high))
}
