package sensor

import (
	"math/rand"
	"sync"
	"time"

	"vitalcare-backend/internal/models"
)

// SimulatedConfig configures the synthetic source
type SimulatedConfig struct {
	HeartRate float64 // BPM of the synthesized waveforms
	LeadOff   bool
	Seed      int64
	Noise     float64 // fraction of full swing, e.g. 0.02
}

// Simulated is a test double for the sensor front end. It synthesizes ECG
// and pulse waveforms at a fixed heart rate and a resting environment.
// Nothing it produces is a measurement.
type Simulated struct {
	mu        sync.Mutex
	start     time.Time
	heartRate float64
	leadOff   bool
	noise     float64
	rng       *rand.Rand
}

// NewSimulated creates a simulated source
func NewSimulated(config SimulatedConfig) *Simulated {
	hr := config.HeartRate
	if hr <= 0 {
		hr = 72
	}
	return &Simulated{
		heartRate: hr,
		leadOff:   config.LeadOff,
		noise:     config.Noise,
		rng:       rand.New(rand.NewSource(config.Seed)),
	}
}

func (s *Simulated) Name() string { return "simulated" }

// SetHeartRate changes the rate of the synthesized waveforms
func (s *Simulated) SetHeartRate(bpm float64) {
	s.mu.Lock()
	s.heartRate = bpm
	s.mu.Unlock()
}

// SetLeadOff toggles the simulated lead-off input
func (s *Simulated) SetLeadOff(off bool) {
	s.mu.Lock()
	s.leadOff = off
	s.mu.Unlock()
}

// Poll evaluates the waveforms at now
func (s *Simulated) Poll(now time.Time) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.start.IsZero() {
		s.start = now
	}

	f := Frame{LeadOff: s.leadOff}

	var phase float64
	if s.heartRate > 0 {
		phase = fract(now.Sub(s.start).Seconds() * s.heartRate / 60.0)
	}

	// ECG rests near 1200 counts with the R peak near 3200
	if !s.leadOff {
		f.ECG = int(1200 + 2000*(ecgShape(phase)+s.jitter()))
	}
	// pulse rests near 900 counts with the systolic peak near 2900
	f.Pulse = int(900 + 2000*(pulseShape(phase)+s.jitter()))

	f.Env = models.EnvReading{
		TemperatureC: 37.0 + (s.rng.Float64()-0.5)*0.2,
		PressureHPa:  1013.25 + (s.rng.Float64()-0.5)*2,
	}
	f.EnvReady = true
	return f
}

// Status reports every simulated sensor as ready
func (s *Simulated) Status(now time.Time) models.SensorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SensorStatus{ECGReady: true, PulseReady: true, EnvReady: true, LeadOff: s.leadOff}
}

func (s *Simulated) jitter() float64 {
	if s.noise == 0 {
		return 0
	}
	return s.noise * (2*s.rng.Float64() - 1)
}
