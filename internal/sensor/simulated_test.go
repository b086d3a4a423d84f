package sensor

import (
	"testing"
	"time"

	"vitalcare-backend/internal/aggregator"
	"vitalcare-backend/internal/models"
)

func TestSimulatedProducesDetectableRate(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	reader := NewReader(NewSimulated(SimulatedConfig{HeartRate: 72}), 4095)

	det := aggregator.NewDetector(aggregator.DetectorConfig{
		Channel:    models.ChannelPulse,
		Threshold:  2048,
		Refractory: 300 * time.Millisecond,
	})
	rate := aggregator.NewRateAggregator(aggregator.RateConfig{
		Window:     15 * time.Second,
		StaleAfter: 10 * time.Second,
		Max:        200,
	})
	rate.Update(start)

	for now := start; now.Before(start.Add(15 * time.Second)); now = now.Add(100 * time.Millisecond) {
		r := reader.Sample(now)
		if ev, ok := det.Process(r.Pulse); ok {
			rate.Observe(ev)
		}
	}

	got := rate.Update(start.Add(15 * time.Second))
	if got < 64 || got > 80 {
		t.Fatalf("rate = %v, want close to 72", got)
	}
}

func TestSimulatedECGDetectableRate(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	reader := NewReader(NewSimulated(SimulatedConfig{HeartRate: 60}), 4095)

	det := aggregator.NewDetector(aggregator.DetectorConfig{
		Channel:    models.ChannelECG,
		Threshold:  2000,
		Refractory: 300 * time.Millisecond,
	})

	beats := 0
	for now := start; now.Before(start.Add(15 * time.Second)); now = now.Add(100 * time.Millisecond) {
		if _, ok := det.Process(reader.Sample(now).ECG); ok {
			beats++
		}
	}
	if beats < 14 || beats > 16 {
		t.Fatalf("beats = %d, want about 15", beats)
	}
}

func TestSimulatedLeadOff(t *testing.T) {
	sim := NewSimulated(SimulatedConfig{HeartRate: 72})
	sim.SetLeadOff(true)

	now := time.Now()
	f := sim.Poll(now)
	if !f.LeadOff {
		t.Fatal("expected lead-off")
	}
	if f.ECG != 0 {
		t.Fatalf("ECG = %d, want 0 with leads off", f.ECG)
	}
	if st := sim.Status(now); !st.LeadOff || !st.EnvReady {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestSimulatedEnvironmentNearResting(t *testing.T) {
	sim := NewSimulated(SimulatedConfig{Seed: 7})
	f := sim.Poll(time.Now())
	if !f.EnvReady {
		t.Fatal("environment must be ready")
	}
	if tf := f.Env.TemperatureF(); tf < 98 || tf > 99.2 {
		t.Fatalf("temperature = %.2f F, want near 98.6", tf)
	}
	if f.Env.PressureHPa < 1011 || f.Env.PressureHPa > 1015 {
		t.Fatalf("pressure = %.2f, want near 1013", f.Env.PressureHPa)
	}
}

type fixedSource struct{ f Frame }

func (s fixedSource) Name() string                         { return "fixed" }
func (s fixedSource) Poll(time.Time) Frame                 { return s.f }
func (s fixedSource) Status(time.Time) models.SensorStatus { return models.SensorStatus{} }

func TestReaderClampsToADCRange(t *testing.T) {
	r := NewReader(fixedSource{Frame{ECG: 5000, Pulse: -12}}, 4095)
	got := r.Sample(time.Now())
	if got.ECG.Value != 4095 {
		t.Errorf("ECG = %d, want 4095", got.ECG.Value)
	}
	if got.Pulse.Value != 0 {
		t.Errorf("Pulse = %d, want 0", got.Pulse.Value)
	}
	if got.ECG.Channel != models.ChannelECG || got.Pulse.Channel != models.ChannelPulse {
		t.Errorf("unexpected channels %+v", got)
	}
}
