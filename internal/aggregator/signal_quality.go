package aggregator

import "math"

// SignalConfig holds configuration for ECG signal level analysis
type SignalConfig struct {
	MidScale   float64 // ADC count treated as the zero line
	FullScale  float64 // reference amplitude for dBFS
	MinimumRMS float64 // floor to avoid log(0) on a flat line
	ADCMax     int
}

// DefaultSignalConfig returns the configuration for a 12-bit ADC
func DefaultSignalConfig(adcMax int) SignalConfig {
	return SignalConfig{
		MidScale:   float64(adcMax) / 2,
		FullScale:  float64(adcMax) / 2,
		MinimumRMS: 1.0,
		ADCMax:     adcMax,
	}
}

// SignalMetrics describes one aggregation cycle of raw ECG samples
type SignalMetrics struct {
	RMS         float64
	LevelDB     float64
	PeakToPeak  int
	IsClipping  bool // a sample sat on either rail
	IsFlat      bool // RMS below the configured floor
	SampleCount int
}

// AnalyzeSignal computes RMS level and rail clipping for a block of ADC samples
func AnalyzeSignal(samples []int, config SignalConfig) SignalMetrics {
	metrics := SignalMetrics{SampleCount: len(samples)}

	if len(samples) == 0 {
		metrics.IsFlat = true
		metrics.LevelDB = -80.0
		return metrics
	}

	var sumSquares float64
	lo, hi := samples[0], samples[0]
	for _, s := range samples {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
		if s <= 0 || s >= config.ADCMax {
			metrics.IsClipping = true
		}
		d := float64(s) - config.MidScale
		sumSquares += d * d
	}

	metrics.RMS = math.Sqrt(sumSquares / float64(len(samples)))
	metrics.PeakToPeak = hi - lo

	// A flat line anywhere on the scale carries no cardiac signal
	if metrics.PeakToPeak == 0 || metrics.RMS < config.MinimumRMS {
		metrics.IsFlat = true
		metrics.LevelDB = -80.0
		return metrics
	}

	metrics.LevelDB = calculateDecibels(metrics.RMS, config.FullScale)
	return metrics
}

// calculateDecibels converts RMS value to decibels
// Formula: dB = 20 * log10(RMS / reference)
func calculateDecibels(rms float64, reference float64) float64 {
	if rms <= 0 || reference <= 0 {
		return -80.0
	}

	db := 20.0 * math.Log10(rms/reference)
	if db < -80.0 {
		db = -80.0
	}
	if db > 0.0 {
		db = 0.0
	}
	return db
}

// SignalWindow collects the raw samples of one aggregation cycle
type SignalWindow struct {
	samples []int
}

// NewSignalWindow creates a window sized for the expected samples per cycle
func NewSignalWindow(capacity int) *SignalWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &SignalWindow{samples: make([]int, 0, capacity)}
}

func (w *SignalWindow) Add(v int) {
	w.samples = append(w.samples, v)
}

// Flush analyzes the collected samples and starts a new cycle
func (w *SignalWindow) Flush(config SignalConfig) SignalMetrics {
	m := AnalyzeSignal(w.samples, config)
	w.samples = w.samples[:0]
	return m
}
