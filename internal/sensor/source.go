package sensor

import (
	"time"

	"vitalcare-backend/internal/models"
)

// Frame is one poll of every input of a source at the same instant
type Frame struct {
	ECG      int
	Pulse    int
	LeadOff  bool
	Env      models.EnvReading
	EnvReady bool
}

// Source is the swappable origin of raw sensor values.
// Implementations never fail; an unavailable input reads as zero.
type Source interface {
	Name() string
	Poll(now time.Time) Frame
	Status(now time.Time) models.SensorStatus
}

// Reading is the clamped, timestamped output of one sampling step
type Reading struct {
	ECG      models.SensorSample
	Pulse    models.SensorSample
	LeadOff  bool
	Env      models.EnvReading
	EnvReady bool
}

// Reader samples a Source and clamps every count into the ADC range
type Reader struct {
	src    Source
	adcMax int
}

// NewReader creates a reader for a 0..adcMax converter
func NewReader(src Source, adcMax int) *Reader {
	if adcMax <= 0 {
		adcMax = 4095
	}
	return &Reader{src: src, adcMax: adcMax}
}

// Sample polls the source once and returns the readings for every channel
func (r *Reader) Sample(now time.Time) Reading {
	f := r.src.Poll(now)
	return Reading{
		ECG:      models.SensorSample{Channel: models.ChannelECG, Value: r.clamp(f.ECG), Timestamp: now},
		Pulse:    models.SensorSample{Channel: models.ChannelPulse, Value: r.clamp(f.Pulse), Timestamp: now},
		LeadOff:  f.LeadOff,
		Env:      f.Env,
		EnvReady: f.EnvReady,
	}
}

// Status returns the ready flags of the underlying source
func (r *Reader) Status(now time.Time) models.SensorStatus {
	return r.src.Status(now)
}

// SourceName returns the name of the underlying source
func (r *Reader) SourceName() string {
	return r.src.Name()
}

func (r *Reader) clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > r.adcMax {
		return r.adcMax
	}
	return v
}
