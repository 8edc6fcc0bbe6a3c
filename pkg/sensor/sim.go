package sensor

import (
	"math"
	"sync"
)

// Sim produces a deterministic, slowly varying signal on every channel.
// It stands in for real sensors on hosts without an I²C bus.
type Sim struct {
	mu   sync.Mutex
	tick int
}

// NewSim returns a simulated source starting at tick 0.
func NewSim() *Sim {
	return &Sim{}
}

// Read implements Source.
func (s *Sim) Read() (Sample, error) {
	s.mu.Lock()
	t := float64(s.tick)
	s.tick++
	s.mu.Unlock()

	wave := func(period float64) float64 { return math.Sin(2 * math.Pi * t / period) }

	return Sample{
		AccelX:            int32(20 * wave(17)),
		AccelY:            int32(-15 * wave(23)),
		AccelZ:            1000 + int32(5*wave(7)),
		Humidity:          45 + int32(math.Round(5*wave(600))),
		Pressure:          101325 + int32(120*wave(3600)),
		TemperatureMilliC: 21500 + int32(1500*wave(900)),
		LightMilliLux:     250000 + int32(50000*wave(300)),
	}, nil
}

// MilliVolts implements Battery with a slow discharge from 4.2 V that
// bottoms out at 3.3 V.
func (s *Sim) MilliVolts() (uint32, error) {
	s.mu.Lock()
	t := s.tick
	s.mu.Unlock()

	mv := 4200 - t/60
	if mv < 3300 {
		mv = 3300
	}
	return uint32(mv), nil
}
