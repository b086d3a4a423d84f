package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names
const (
	SamplesTotal       = "vitalcare_samples_total"
	BeatsTotal         = "vitalcare_beats_detected_total"
	BroadcastsTotal    = "vitalcare_broadcasts_total"
	BroadcastErrors    = "vitalcare_broadcast_errors_total"
	AlertsTotal        = "vitalcare_alerts_total"
	NotificationsTotal = "vitalcare_notifications_sent_total"
	RecordsTotal       = "vitalcare_records_persisted_total"
	DroppedTotal       = "vitalcare_handoff_dropped_total"
	HeartRateGauge     = "vitalcare_heart_rate_bpm"
	ObserversGauge     = "vitalcare_ws_clients"
	ECGSignalGauge     = "vitalcare_ecg_signal_dbfs"
	LeadOffGauge       = "vitalcare_ecg_lead_off"
	BroadcastLatency   = "vitalcare_broadcast_latency_seconds"
	PersistLatency     = "vitalcare_persist_latency_seconds"
)

// Observability is the metrics surface used by the monitor and its services
type Observability interface {
	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

// Nop discards every metric
type Nop struct{}

func (Nop) IncCounter(string, float64)     {}
func (Nop) SetGauge(string, float64)       {}
func (Nop) ObserveLatency(string, float64) {}

// PromObs keeps prometheus collectors keyed by metric name
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs creates the collectors and registers them with reg
func NewPromObs(reg prometheus.Registerer) *PromObs {
	p := &PromObs{
		counters: map[string]prometheus.Counter{},
		gauges:   map[string]prometheus.Gauge{},
		histos:   map[string]prometheus.Observer{},
	}

	counter := func(name, help string) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		reg.MustRegister(c)
		p.counters[name] = c
	}
	gauge := func(name, help string) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		reg.MustRegister(g)
		p.gauges[name] = g
	}
	histo := func(name, help string) {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		})
		reg.MustRegister(h)
		p.histos[name] = h
	}

	counter(SamplesTotal, "Sampling steps taken by the monitor loop.")
	counter(BeatsTotal, "Beat events detected across all channels.")
	counter(BroadcastsTotal, "Vitals frames delivered to observers.")
	counter(BroadcastErrors, "Observer deliveries that failed.")
	counter(AlertsTotal, "Alert records produced by the evaluator.")
	counter(NotificationsTotal, "External alert notifications sent.")
	counter(RecordsTotal, "Vitals records written by recorders.")
	counter(DroppedTotal, "Snapshots or alerts dropped because a handoff channel was full.")
	gauge(HeartRateGauge, "Last aggregated heart rate.")
	gauge(ObserversGauge, "Connected dashboard websocket clients.")
	gauge(ECGSignalGauge, "RMS level of the ECG channel over the last cycle.")
	gauge(LeadOffGauge, "1 while the ECG leads are reported off.")
	histo(BroadcastLatency, "Time to serialize and deliver one vitals frame.")
	histo(PersistLatency, "Time to write one vitals record to all recorders.")

	return p
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}
