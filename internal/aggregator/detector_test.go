package aggregator

import (
	"testing"
	"time"

	"vitalcare-backend/internal/models"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func sample(v int, at time.Duration) models.SensorSample {
	return models.SensorSample{Channel: models.ChannelPulse, Value: v, Timestamp: t0.Add(at)}
}

func newPulseDetector() *Detector {
	return NewDetector(DetectorConfig{
		Channel:    models.ChannelPulse,
		Threshold:  2048,
		Refractory: 300 * time.Millisecond,
	})
}

func TestDetectorBelowThresholdNeverBeats(t *testing.T) {
	d := newPulseDetector()
	for i := 0; i < 100; i++ {
		if _, ok := d.Process(sample(1000+i*10, time.Duration(i)*100*time.Millisecond)); ok {
			t.Fatalf("unexpected beat at sample %d", i)
		}
	}
}

func TestDetectorUpwardCrossing(t *testing.T) {
	d := newPulseDetector()

	if _, ok := d.Process(sample(1500, 0)); ok {
		t.Fatal("first sample only initializes state")
	}
	ev, ok := d.Process(sample(2500, 100*time.Millisecond))
	if !ok {
		t.Fatal("expected beat on upward crossing")
	}
	if ev.Channel != models.ChannelPulse || !ev.Timestamp.Equal(t0.Add(100*time.Millisecond)) {
		t.Fatalf("unexpected event %+v", ev)
	}
	// staying above the threshold is not a new crossing
	if _, ok := d.Process(sample(2600, 500*time.Millisecond)); ok {
		t.Fatal("no beat expected while above threshold")
	}
	// downward crossing is not a beat
	if _, ok := d.Process(sample(1200, 600*time.Millisecond)); ok {
		t.Fatal("no beat expected on downward crossing")
	}
}

func TestDetectorFirstSampleAboveThresholdIsNotABeat(t *testing.T) {
	d := newPulseDetector()
	if _, ok := d.Process(sample(3000, 0)); ok {
		t.Fatal("initial sample above threshold must not count")
	}
}

func TestDetectorRefractory(t *testing.T) {
	d := newPulseDetector()
	seq := []struct {
		v  int
		at time.Duration
	}{
		{1000, 0},
		{3000, 100 * time.Millisecond}, // beat
		{1000, 150 * time.Millisecond},
		{3000, 250 * time.Millisecond}, // 150ms later, inside refractory
		{1000, 300 * time.Millisecond},
		{3000, 400 * time.Millisecond}, // exactly 300ms after the first beat
	}

	var beats []time.Time
	for _, s := range seq {
		if ev, ok := d.Process(sample(s.v, s.at)); ok {
			beats = append(beats, ev.Timestamp)
		}
	}

	if len(beats) != 2 {
		t.Fatalf("expected 2 beats, got %d (%v)", len(beats), beats)
	}
	if !beats[0].Equal(t0.Add(100*time.Millisecond)) || !beats[1].Equal(t0.Add(400*time.Millisecond)) {
		t.Fatalf("unexpected beat times %v", beats)
	}
}

func TestDetectorLeadOffIsSticky(t *testing.T) {
	d := NewDetector(DetectorConfig{Channel: models.ChannelECG, Threshold: 2000, Refractory: 300 * time.Millisecond})
	d.Process(sample(1000, 0))

	d.SetLeadOff(true)
	if !d.Disconnected() {
		t.Fatal("expected disconnected after lead-off")
	}
	// residual analog value must not produce beats
	if _, ok := d.Process(sample(4095, time.Second)); ok {
		t.Fatal("disconnected channel produced a beat")
	}
	d.SetLeadOff(true)
	if !d.Disconnected() {
		t.Fatal("flag must stay set while input asserted")
	}

	d.SetLeadOff(false)
	if d.Disconnected() {
		t.Fatal("flag must clear when input deasserts")
	}
	// fresh history: first sample after reconnect only initializes
	if _, ok := d.Process(sample(4095, 2*time.Second)); ok {
		t.Fatal("first sample after reconnect must not count")
	}
	if _, ok := d.Process(sample(1000, 2100*time.Millisecond)); ok {
		t.Fatal("downward move is not a beat")
	}
	if _, ok := d.Process(sample(3000, 2200*time.Millisecond)); !ok {
		t.Fatal("expected beat after reconnect")
	}
}
