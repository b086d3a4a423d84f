package sensor

import (
	"context"
	"log"
	"sync"
	"time"

	"vitalcare-backend/internal/models"
)

// Remote is fed by a networked sensor module. Polling returns the latest
// pushed values until they are older than the staleness limit.
type Remote struct {
	mu         sync.RWMutex
	latest     *models.RemoteReading
	staleAfter time.Duration
}

// NewRemote creates a remote source
func NewRemote(staleAfter time.Duration) *Remote {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Second
	}
	return &Remote{staleAfter: staleAfter}
}

func (r *Remote) Name() string { return "remote" }

// Update stores the newest reading; older out-of-order readings are dropped
func (r *Remote) Update(reading *models.RemoteReading) {
	if reading == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest != nil && reading.ReceivedAt.Before(r.latest.ReceivedAt) {
		return
	}
	r.latest = reading
}

// Consume applies readings from ch until ctx is cancelled or ch is closed
func (r *Remote) Consume(ctx context.Context, ch <-chan *models.RemoteReading) {
	log.Println("RemoteSensor: Starting...")
	for {
		select {
		case <-ctx.Done():
			log.Println("RemoteSensor: Shutting down...")
			return
		case reading, ok := <-ch:
			if !ok {
				log.Println("RemoteSensor: Channel closed, shutting down...")
				return
			}
			r.Update(reading)
		}
	}
}

// Poll returns the latest reading, or an all-zero frame when stale
func (r *Remote) Poll(now time.Time) Frame {
	latest := r.fresh(now)
	if latest == nil {
		return Frame{}
	}
	f := Frame{ECG: latest.ECG, Pulse: latest.Pulse, LeadOff: latest.LeadOff}
	if latest.LeadOff {
		f.ECG = 0
	}
	if latest.Env != nil {
		f.Env = *latest.Env
		f.EnvReady = true
	}
	return f
}

// Status reports readiness from the freshness of the last reading
func (r *Remote) Status(now time.Time) models.SensorStatus {
	latest := r.fresh(now)
	if latest == nil {
		return models.SensorStatus{}
	}
	return models.SensorStatus{
		ECGReady:   true,
		PulseReady: true,
		EnvReady:   latest.Env != nil,
		LeadOff:    latest.LeadOff,
	}
}

func (r *Remote) fresh(now time.Time) *models.RemoteReading {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil || now.Sub(r.latest.ReceivedAt) > r.staleAfter {
		return nil
	}
	return r.latest
}
