package aggregator

import (
	"time"

	"vitalcare-backend/internal/models"
)

// DetectorConfig holds the per-channel beat detection parameters
type DetectorConfig struct {
	Channel    models.Channel
	Threshold  int           // ADC counts
	Refractory time.Duration // minimum spacing between beats
}

// Detector turns a stream of raw samples into beat events by looking for
// upward threshold crossings separated by at least the refractory interval.
type Detector struct {
	config DetectorConfig

	lastValue    int
	lastBeat     time.Time
	initialized  bool
	disconnected bool
}

// NewDetector creates a detector for one channel
func NewDetector(config DetectorConfig) *Detector {
	return &Detector{config: config}
}

// Process feeds one sample and returns a beat event when one is detected.
// Samples are ignored while the channel is disconnected.
func (d *Detector) Process(sample models.SensorSample) (models.BeatEvent, bool) {
	if d.disconnected {
		return models.BeatEvent{}, false
	}

	if !d.initialized {
		d.initialized = true
		d.lastValue = sample.Value
		return models.BeatEvent{}, false
	}

	crossed := d.lastValue <= d.config.Threshold && sample.Value > d.config.Threshold
	d.lastValue = sample.Value

	if !crossed {
		return models.BeatEvent{}, false
	}
	if !d.lastBeat.IsZero() && sample.Timestamp.Sub(d.lastBeat) < d.config.Refractory {
		return models.BeatEvent{}, false
	}

	d.lastBeat = sample.Timestamp
	return models.BeatEvent{Channel: d.config.Channel, Timestamp: sample.Timestamp}, true
}

// SetLeadOff applies the lead-off digital input. The disconnected flag stays
// set until the input deasserts; reconnection starts a fresh crossing history.
func (d *Detector) SetLeadOff(asserted bool) {
	if asserted {
		d.disconnected = true
		return
	}
	if d.disconnected {
		d.disconnected = false
		d.initialized = false
	}
}

// Disconnected reports whether the channel is currently flagged lead-off
func (d *Detector) Disconnected() bool {
	return d.disconnected
}

// Channel returns the channel this detector watches
func (d *Detector) Channel() models.Channel {
	return d.config.Channel
}
