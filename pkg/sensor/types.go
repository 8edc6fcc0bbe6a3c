// Package sensor reads the environmental, motion and battery measurements
// that make up one logged record.
package sensor

// Sample is one reading of every environmental and motion channel.
type Sample struct {
	// AccelX, AccelY, AccelZ are accelerations in milli-g.
	AccelX int32
	AccelY int32
	AccelZ int32

	// Humidity is relative humidity in whole percent.
	Humidity int32

	// Pressure is barometric pressure in pascal.
	Pressure int32

	// TemperatureMilliC is the temperature in thousandths of a degree Celsius.
	TemperatureMilliC int32

	// LightMilliLux is the illuminance in thousandths of a lux.
	LightMilliLux int32
}

// Source produces samples.
type Source interface {
	// Read takes one sample of every channel. Any channel failure fails
	// the whole sample.
	Read() (Sample, error)
}

// Battery measures the supply voltage.
type Battery interface {
	// MilliVolts returns the battery voltage in millivolts.
	MilliVolts() (uint32, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (Sample, error)

// Read implements Source.
func (f SourceFunc) Read() (Sample, error) { return f() }

// BatteryFunc adapts a function to Battery.
type BatteryFunc func() (uint32, error)

// MilliVolts implements Battery.
func (f BatteryFunc) MilliVolts() (uint32, error) { return f() }

// HardwareConfig selects which sensors are fitted on the bus.
type HardwareConfig struct {
	// Environment enables the BME280 (temperature, humidity, pressure).
	Environment bool

	// Motion enables the ADXL345 accelerometer.
	Motion bool

	// Light enables the BH1750 ambient light sensor.
	Light bool
}
