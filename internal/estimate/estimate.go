// Package estimate derives blood pressure and SpO2 for the snapshot.
//
// No sensor for either vital is wired yet. The Simulated estimator produces
// plausible placeholder values from the heart rate so the dashboard and the
// alert bands can be exercised; its output is not a measurement.
package estimate

import (
	"math/rand"
	"sync"
)

// Inputs are the measured values an estimator may use
type Inputs struct {
	HeartRate    float64
	ECGValue     int
	ECGConnected bool
}

// Estimates are the derived vitals; zero means not available
type Estimates struct {
	SystolicBP  float64
	DiastolicBP float64
	SpO2        float64
}

// Estimator derives vitals that have no dedicated sensor
type Estimator interface {
	Name() string
	Simulated() bool
	Estimate(in Inputs) Estimates
}

// None reports every derived vital as unavailable
type None struct{}

func (None) Name() string              { return "none" }
func (None) Simulated() bool           { return false }
func (None) Estimate(Inputs) Estimates { return Estimates{} }

// Simulated derives placeholder values from the heart rate with some noise
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated estimator seeded for reproducibility
func NewSimulated(seed int64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewSource(seed))}
}

func (s *Simulated) Name() string    { return "simulated" }
func (s *Simulated) Simulated() bool { return true }

// Estimate shifts a 120/80 baseline with the heart rate: up above 100 BPM,
// down below 60 BPM. Without a pulse nothing is estimated.
func (s *Simulated) Estimate(in Inputs) Estimates {
	if in.HeartRate <= 0 {
		return Estimates{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	systolic, diastolic := 120.0, 80.0
	switch {
	case in.HeartRate > 100:
		systolic += (in.HeartRate - 100) * 0.5
		diastolic += (in.HeartRate - 100) * 0.3
	case in.HeartRate < 60:
		systolic -= (60 - in.HeartRate) * 0.3
		diastolic -= (60 - in.HeartRate) * 0.2
	}
	systolic += s.uniform(-5, 5)
	diastolic += s.uniform(-3, 3)

	spo2 := 95.0
	if in.ECGConnected && in.ECGValue > 0 {
		spo2 = 98 + s.uniform(-2, 2)
		if spo2 > 100 {
			spo2 = 100
		}
	}

	return Estimates{SystolicBP: systolic, DiastolicBP: diastolic, SpO2: spo2}
}

func (s *Simulated) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
