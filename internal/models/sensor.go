package models

import "time"

// Channel identifies an analog input of the sensor front end
type Channel string

const (
	ChannelECG   Channel = "ecg"
	ChannelPulse Channel = "pulse"
)

// SensorSample is one raw ADC reading taken by the sampler
type SensorSample struct {
	Channel   Channel   `json:"channel"`
	Value     int       `json:"value"` // ADC counts, 0..ADC max
	Timestamp time.Time `json:"timestamp"`
}

// BeatEvent marks a detected upward threshold crossing on a channel
type BeatEvent struct {
	Channel   Channel   `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
}

// EnvReading is the environmental sensor output (BMP180 class)
type EnvReading struct {
	TemperatureC float64 `json:"temperature_c"`
	PressureHPa  float64 `json:"pressure_hpa"`
}

// TemperatureF converts the Celsius reading to Fahrenheit
func (e EnvReading) TemperatureF() float64 {
	return e.TemperatureC*9.0/5.0 + 32.0
}

// SensorStatus carries the per-sensor ready flags
type SensorStatus struct {
	ECGReady   bool `json:"ecg"`
	PulseReady bool `json:"pulse"`
	EnvReady   bool `json:"environment"`
	LeadOff    bool `json:"leadOff"`
}
