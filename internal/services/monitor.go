package services

import (
	"context"
	"log"
	"time"

	"vitalcare-backend/internal/aggregator"
	"vitalcare-backend/internal/alerts"
	"vitalcare-backend/internal/estimate"
	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/observability"
	"vitalcare-backend/internal/sensor"
	"vitalcare-backend/internal/session"
	"vitalcare-backend/pkg/config"
)

// MonitorConfig holds the loop timing and detection parameters
type MonitorConfig struct {
	SampleInterval  time.Duration
	UpdateInterval  time.Duration
	PersistInterval time.Duration
	IdleDelay       time.Duration

	ECGThreshold     int
	PulseThreshold   int
	Refractory       time.Duration
	RateWindow       time.Duration
	HeartbeatTimeout time.Duration
	RateMin          float64
	RateMax          float64
	ADCMax           int
}

// DefaultMonitorConfig returns the timing of the bedside unit
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		SampleInterval:   100 * time.Millisecond,
		UpdateInterval:   time.Second,
		PersistInterval:  30 * time.Second,
		IdleDelay:        10 * time.Millisecond,
		ECGThreshold:     2000,
		PulseThreshold:   2048,
		Refractory:       300 * time.Millisecond,
		RateWindow:       15 * time.Second,
		HeartbeatTimeout: 10 * time.Second,
		RateMin:          0,
		RateMax:          200,
		ADCMax:           4095,
	}
}

// MonitorConfigFrom maps the process configuration onto the loop
func MonitorConfigFrom(cfg *config.Config) MonitorConfig {
	return MonitorConfig{
		SampleInterval:   cfg.SampleInterval,
		UpdateInterval:   cfg.UpdateInterval,
		PersistInterval:  cfg.PersistInterval,
		IdleDelay:        cfg.IdleDelay,
		ECGThreshold:     cfg.ECGThreshold,
		PulseThreshold:   cfg.PulseThreshold,
		Refractory:       cfg.Refractory,
		RateWindow:       cfg.RateWindow,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
		RateMin:          cfg.RateMin,
		RateMax:          cfg.RateMax,
		ADCMax:           cfg.ADCMax,
	}
}

// VitalsPublisher receives every committed cycle; broadcast.Emitter implements it
type VitalsPublisher interface {
	Publish(cur session.Current, patientID string)
}

// RecordSink accepts persistence work without blocking the loop
type RecordSink interface {
	Submit(rec *models.VitalsRecord) bool
}

// AlertSink accepts alert events without blocking the loop
type AlertSink interface {
	Submit(ev *models.AlertEvent) bool
}

// MonitorDeps are the collaborators of the loop. Publisher, Records and
// Alerts are optional.
type MonitorDeps struct {
	Session   *session.Session
	Reader    *sensor.Reader
	Estimator estimate.Estimator
	Evaluator *alerts.Evaluator
	Publisher VitalsPublisher
	Records   RecordSink
	Alerts    AlertSink
	Obs       observability.Observability
}

// Monitor is the single control loop: sample, aggregate and emit, persist.
// All steps run on the goroutine calling Tick; none preempts another.
type Monitor struct {
	config MonitorConfig
	deps   MonitorDeps

	ecg       *aggregator.Detector
	pulse     *aggregator.Detector
	ecgRate   *aggregator.RateAggregator
	pulseRate *aggregator.RateAggregator

	signal       *aggregator.SignalWindow
	signalConfig aggregator.SignalConfig

	initialized bool
	lastSample  time.Time
	lastUpdate  time.Time
	lastPersist time.Time
	latest      sensor.Reading
}

// NewMonitor wires detectors and rate aggregators for both channels
func NewMonitor(config MonitorConfig, deps MonitorDeps) *Monitor {
	if deps.Obs == nil {
		deps.Obs = observability.Nop{}
	}
	if deps.Estimator == nil {
		deps.Estimator = estimate.None{}
	}

	rateConfig := aggregator.RateConfig{
		Window:     config.RateWindow,
		StaleAfter: config.HeartbeatTimeout,
		Min:        config.RateMin,
		Max:        config.RateMax,
	}

	perCycle := 1
	if config.SampleInterval > 0 {
		perCycle = int(config.UpdateInterval/config.SampleInterval) + 1
	}

	return &Monitor{
		config: config,
		deps:   deps,
		ecg: aggregator.NewDetector(aggregator.DetectorConfig{
			Channel:    models.ChannelECG,
			Threshold:  config.ECGThreshold,
			Refractory: config.Refractory,
		}),
		pulse: aggregator.NewDetector(aggregator.DetectorConfig{
			Channel:    models.ChannelPulse,
			Threshold:  config.PulseThreshold,
			Refractory: config.Refractory,
		}),
		ecgRate:      aggregator.NewRateAggregator(rateConfig),
		pulseRate:    aggregator.NewRateAggregator(rateConfig),
		signal:       aggregator.NewSignalWindow(perCycle),
		signalConfig: aggregator.DefaultSignalConfig(config.ADCMax),
	}
}

// Run calls Tick every IdleDelay until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) {
	log.Printf("Monitor: Starting (source=%s, estimator=%s, sample=%v, update=%v, persist=%v)",
		m.deps.Reader.SourceName(), m.deps.Estimator.Name(),
		m.config.SampleInterval, m.config.UpdateInterval, m.config.PersistInterval)
	if m.deps.Estimator.Simulated() {
		log.Println("Monitor: Blood pressure and SpO2 are SIMULATED placeholders, not measurements")
	}

	ticker := time.NewTicker(m.config.IdleDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor: Shutting down...")
			return
		case now := <-ticker.C:
			m.Tick(now)
		}
	}
}

// Tick runs every step whose interval has elapsed, in order: sample,
// aggregate and emit, persist. The first call only primes the timers and
// takes the first sample.
func (m *Monitor) Tick(now time.Time) {
	if !m.initialized {
		m.initialized = true
		m.lastSample, m.lastUpdate, m.lastPersist = now, now, now
		m.ecgRate.Update(now)
		m.pulseRate.Update(now)
		m.sample(now)
		return
	}

	if now.Sub(m.lastSample) >= m.config.SampleInterval {
		m.lastSample = now
		m.sample(now)
	}
	if now.Sub(m.lastUpdate) >= m.config.UpdateInterval {
		m.lastUpdate = now
		m.update(now)
	}
	if now.Sub(m.lastPersist) >= m.config.PersistInterval {
		m.lastPersist = now
		m.persist()
	}
}

func (m *Monitor) sample(now time.Time) {
	r := m.deps.Reader.Sample(now)
	m.latest = r
	m.deps.Obs.IncCounter(observability.SamplesTotal, 1)

	wasOff := m.ecg.Disconnected()
	m.ecg.SetLeadOff(r.LeadOff)
	if wasOff && !m.ecg.Disconnected() {
		// the open window holds no beats from before reconnection; start a
		// fresh one so the pulse rate carries the heart rate until it closes
		m.ecgRate.Reset()
		m.ecgRate.Update(now)
		log.Println("Monitor: ECG leads reconnected")
	}
	if !m.ecg.Disconnected() {
		m.signal.Add(r.ECG.Value)
		if ev, ok := m.ecg.Process(r.ECG); ok {
			m.ecgRate.Observe(ev)
			m.deps.Obs.IncCounter(observability.BeatsTotal, 1)
		}
	}
	if ev, ok := m.pulse.Process(r.Pulse); ok {
		m.pulseRate.Observe(ev)
		m.deps.Obs.IncCounter(observability.BeatsTotal, 1)
	}
}

func (m *Monitor) update(now time.Time) {
	disconnected := m.ecg.Disconnected()
	ecgBPM := m.ecgRate.Update(now)
	pulseBPM := m.pulseRate.Update(now)

	hr := aggregator.FuseHeartRate(
		aggregator.ChannelRate{BPM: ecgBPM, Disconnected: disconnected},
		aggregator.ChannelRate{BPM: pulseBPM},
	)

	snap := models.VitalsSnapshot{
		HeartRate:         hr,
		HeartRateMeasured: hr > 0 || (!disconnected && m.ecgRate.Measured()) || m.pulseRate.Measured(),
		Timestamp:         now,
	}
	if !disconnected {
		snap.ECGValue = m.latest.ECG.Value
	}
	if m.latest.EnvReady {
		snap.Temperature = m.latest.Env.TemperatureF()
		snap.Pressure = m.latest.Env.PressureHPa
	}

	est := m.deps.Estimator.Estimate(estimate.Inputs{
		HeartRate:    hr,
		ECGValue:     snap.ECGValue,
		ECGConnected: !disconnected,
	})
	snap.SystolicBP = est.SystolicBP
	snap.DiastolicBP = est.DiastolicBP
	snap.SpO2 = est.SpO2

	m.observeSignal(disconnected)

	patient, registered := m.deps.Session.Patient()
	var alert *models.AlertRecord
	if !registered {
		snap.Status = models.StatusNoPatient
	} else {
		res := m.deps.Evaluator.Evaluate(patient.ID, snap)
		snap.Status = res.Status
		alert = res.Record
	}

	m.deps.Session.Commit(snap, alert)
	m.deps.Obs.SetGauge(observability.HeartRateGauge, hr)

	if m.deps.Publisher != nil {
		m.deps.Publisher.Publish(m.deps.Session.Current(), patient.ID)
	}
	if alert != nil && m.deps.Alerts != nil {
		m.deps.Alerts.Submit(&models.AlertEvent{Patient: patient, Record: *alert})
	}
}

func (m *Monitor) observeSignal(disconnected bool) {
	metrics := m.signal.Flush(m.signalConfig)
	if disconnected {
		m.deps.Obs.SetGauge(observability.LeadOffGauge, 1)
		return
	}
	m.deps.Obs.SetGauge(observability.LeadOffGauge, 0)
	if metrics.SampleCount > 0 {
		m.deps.Obs.SetGauge(observability.ECGSignalGauge, metrics.LevelDB)
	}
	if metrics.IsClipping && !metrics.IsFlat {
		log.Printf("Monitor: ECG clipping (peak-to-peak=%d)", metrics.PeakToPeak)
	}
}

func (m *Monitor) persist() {
	if m.deps.Records == nil {
		return
	}
	patient, ok := m.deps.Session.Patient()
	if !ok {
		return
	}
	m.deps.Records.Submit(&models.VitalsRecord{Patient: patient, Snapshot: m.deps.Session.Current().Snapshot})
}
