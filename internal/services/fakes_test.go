package services

import (
	"context"
	"errors"
	"sync"

	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/session"
)

type capturePublisher struct {
	published []session.Current
	patients  []string
}

func (p *capturePublisher) Publish(cur session.Current, patientID string) {
	p.published = append(p.published, cur)
	p.patients = append(p.patients, patientID)
}

type captureRecords struct{ records []*models.VitalsRecord }

func (c *captureRecords) Submit(rec *models.VitalsRecord) bool {
	c.records = append(c.records, rec)
	return true
}

type captureAlerts struct{ events []*models.AlertEvent }

func (c *captureAlerts) Submit(ev *models.AlertEvent) bool {
	c.events = append(c.events, ev)
	return true
}

type memoryRecorder struct {
	name string
	err  error

	mu   sync.Mutex
	rows []models.VitalsSnapshot
}

func (r *memoryRecorder) Name() string { return r.name }

func (r *memoryRecorder) RecordVitals(_ context.Context, _ models.Patient, snap models.VitalsSnapshot) error {
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, snap)
	return nil
}

type memoryStore struct {
	alerts   []models.AlertRecord
	patients []models.Patient
	err      error
}

func (s *memoryStore) Name() string { return "memory" }

func (s *memoryStore) SaveAlert(_ context.Context, rec models.AlertRecord) error {
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, rec)
	return nil
}

func (s *memoryStore) SavePatient(_ context.Context, p models.Patient) error {
	if s.err != nil {
		return s.err
	}
	s.patients = append(s.patients, p)
	return nil
}

func (s *memoryStore) LatestPatient(context.Context) (*models.Patient, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.patients) == 0 {
		return nil, nil
	}
	p := s.patients[len(s.patients)-1]
	return &p, nil
}

type countingNotifier struct {
	events []models.AlertEvent
}

func (n *countingNotifier) Name() string { return "counting" }

func (n *countingNotifier) Notify(_ context.Context, ev models.AlertEvent) error {
	n.events = append(n.events, ev)
	return nil
}

var errStoreDown = errors.New("store down")
