// Package session holds the state of the monitored subject: the registered
// patient and the last committed vitals snapshot.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"vitalcare-backend/internal/models"
)

// Current is one committed cycle: the snapshot and its alert record
type Current struct {
	Snapshot models.VitalsSnapshot
	Alert    *models.AlertRecord
}

// Session is shared by the loop, the HTTP handlers and the emitter.
// The snapshot is replaced as a whole so readers never see a partial commit.
type Session struct {
	mu      sync.RWMutex
	patient *models.Patient

	current atomic.Pointer[Current]
	started time.Time
}

// New creates an empty session that has not committed any snapshot yet
func New(started time.Time) *Session {
	s := &Session{started: started}
	s.current.Store(&Current{Snapshot: models.VitalsSnapshot{Status: models.StatusNoPatient, Timestamp: started}})
	return s
}

// Register makes p the monitored subject, replacing any previous one
func (s *Session) Register(p models.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patient = &p
}

// Patient returns the current subject, if any
func (s *Session) Patient() (models.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.patient == nil {
		return models.Patient{}, false
	}
	return *s.patient, true
}

// Registered reports whether a subject is being monitored
func (s *Session) Registered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patient != nil
}

// Commit publishes the result of one aggregation cycle
func (s *Session) Commit(snap models.VitalsSnapshot, alert *models.AlertRecord) {
	s.current.Store(&Current{Snapshot: snap, Alert: alert})
}

// Current returns the last committed cycle
func (s *Session) Current() Current {
	return *s.current.Load()
}

// Uptime is the time since the session was created
func (s *Session) Uptime(now time.Time) time.Duration {
	return now.Sub(s.started)
}
