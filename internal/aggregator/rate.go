package aggregator

import (
	"time"

	"vitalcare-backend/internal/models"
)

// RateConfig holds the counting window parameters
type RateConfig struct {
	Window     time.Duration // non-overlapping counting window
	StaleAfter time.Duration // no beat for this long forces the rate to 0
	Min        float64
	Max        float64
}

// RateAggregator converts beat events into beats per minute using a fixed,
// non-overlapping counting window.
type RateAggregator struct {
	config RateConfig

	windowStart time.Time
	count       int
	rate        float64
	lastBeat    time.Time
	started     time.Time
	windows     int  // windows closed since start or reset
	isStale     bool // staleness at the last Update
}

// NewRateAggregator creates an aggregator with an empty first window
func NewRateAggregator(config RateConfig) *RateAggregator {
	return &RateAggregator{config: config}
}

// Observe records one beat in the current window
func (r *RateAggregator) Observe(ev models.BeatEvent) {
	r.count++
	if ev.Timestamp.After(r.lastBeat) {
		r.lastBeat = ev.Timestamp
	}
}

// Update closes the window when it has elapsed and applies the staleness
// rule. It returns the current rate.
func (r *RateAggregator) Update(now time.Time) float64 {
	if r.started.IsZero() {
		r.started = now
		r.windowStart = now
	}

	// the window closes on the caller's update grid, so divide by the span
	// actually covered; it is never shorter than Window
	if elapsed := now.Sub(r.windowStart); elapsed >= r.config.Window {
		r.rate = r.clamp(RateFromCount(r.count, elapsed))
		r.count = 0
		r.windowStart = now
		r.windows++
	}

	r.isStale = r.stale(now)
	if r.isStale {
		r.rate = 0
	}
	return r.rate
}

// Measured reports whether Rate reflects observed data: a full window has
// closed, or the channel has gone stale. Before that a zero rate only means
// the first window is still filling.
func (r *RateAggregator) Measured() bool {
	return r.windows > 0 || r.isStale
}

// Rate returns the last computed rate without advancing the window
func (r *RateAggregator) Rate() float64 {
	return r.rate
}

// Reset discards the window, the rate and the beat history
func (r *RateAggregator) Reset() {
	*r = RateAggregator{config: r.config}
}

func (r *RateAggregator) stale(now time.Time) bool {
	if r.config.StaleAfter <= 0 {
		return false
	}
	last := r.lastBeat
	if last.IsZero() {
		last = r.started
	}
	return now.Sub(last) > r.config.StaleAfter
}

func (r *RateAggregator) clamp(v float64) float64 {
	if v < r.config.Min {
		return r.config.Min
	}
	if r.config.Max > 0 && v > r.config.Max {
		return r.config.Max
	}
	return v
}

// RateFromCount converts a beat count over a window to beats per minute
func RateFromCount(count int, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	return float64(count) * 60.0 / window.Seconds()
}
