package services

import (
	"context"
	"log"
	"time"

	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/observability"
)

// VitalsRecorder persists one snapshot of a patient
type VitalsRecorder interface {
	Name() string
	RecordVitals(ctx context.Context, p models.Patient, snap models.VitalsSnapshot) error
}

// RecorderService writes persisted cycles to every recorder (CSV file,
// ClickHouse) off the monitor goroutine.
type RecorderService struct {
	recorders []VitalsRecorder
	obs       observability.Observability
	timeout   time.Duration

	// Input channel (written by the monitor, read by the service)
	RecordChan chan *models.VitalsRecord
}

// RecorderServiceConfig holds configuration for recorder service
type RecorderServiceConfig struct {
	ChannelSize  int
	WriteTimeout time.Duration
}

// DefaultRecorderServiceConfig returns default configuration
func DefaultRecorderServiceConfig() RecorderServiceConfig {
	return RecorderServiceConfig{
		ChannelSize:  16,
		WriteTimeout: 5 * time.Second,
	}
}

// NewRecorderService creates a new recorder service
func NewRecorderService(config RecorderServiceConfig, obs observability.Observability, recorders ...VitalsRecorder) *RecorderService {
	if obs == nil {
		obs = observability.Nop{}
	}
	return &RecorderService{
		recorders:  recorders,
		obs:        obs,
		timeout:    config.WriteTimeout,
		RecordChan: make(chan *models.VitalsRecord, config.ChannelSize),
	}
}

// AddRecorder registers a recorder before Start is called
func (s *RecorderService) AddRecorder(r VitalsRecorder) {
	s.recorders = append(s.recorders, r)
}

// Submit hands a record to the service. It never blocks; when the channel
// is full the record is dropped and false is returned.
func (s *RecorderService) Submit(rec *models.VitalsRecord) bool {
	select {
	case s.RecordChan <- rec:
		return true
	default:
		s.obs.IncCounter(observability.DroppedTotal, 1)
		log.Printf("Warning: Record channel full, dropping vitals of %s", rec.Patient.ID)
		return false
	}
}

// Start processes records until ctx is cancelled
func (s *RecorderService) Start(ctx context.Context) {
	log.Printf("RecorderService: Starting with %d recorders...", len(s.recorders))

	for {
		select {
		case <-ctx.Done():
			log.Println("RecorderService: Shutting down...")
			return
		case rec, ok := <-s.RecordChan:
			if !ok {
				return
			}
			s.processRecord(ctx, rec)
		}
	}
}

// processRecord writes one record to every recorder; failures are logged
// and do not stop the others.
func (s *RecorderService) processRecord(ctx context.Context, rec *models.VitalsRecord) int {
	written := 0
	for _, r := range s.recorders {
		start := time.Now()
		wctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := r.RecordVitals(wctx, rec.Patient, rec.Snapshot)
		cancel()
		if err != nil {
			log.Printf("Error saving vitals to %s: %v", r.Name(), err)
			continue
		}
		s.obs.ObserveLatency(observability.PersistLatency, time.Since(start).Seconds())
		written++
	}

	if written > 0 {
		s.obs.IncCounter(observability.RecordsTotal, 1)
		log.Printf("Saved vitals: patient=%s, hr=%.1f, status=%s", rec.Patient.ID, rec.Snapshot.HeartRate, rec.Snapshot.Status)
	}
	return written
}
