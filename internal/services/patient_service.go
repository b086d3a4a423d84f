package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/session"
)

// ErrInvalidPatient is returned for registrations that fail validation
var ErrInvalidPatient = errors.New("invalid patient registration")

// PatientStore persists registered patients
type PatientStore interface {
	Name() string
	SavePatient(ctx context.Context, p models.Patient) error
}

// PatientLoader restores the last registered patient at startup
type PatientLoader interface {
	LatestPatient(ctx context.Context) (*models.Patient, error)
}

// PatientService registers the monitored subject
type PatientService struct {
	sess   *session.Session
	stores []PatientStore
	now    func() time.Time
	newID  func() string
}

// NewPatientService creates a patient service writing to stores
func NewPatientService(sess *session.Session, stores ...PatientStore) *PatientService {
	return &PatientService{
		sess:   sess,
		stores: stores,
		now:    time.Now,
		newID:  func() string { return "VCR-" + strings.ToUpper(uuid.NewString()[:8]) },
	}
}

// Register validates reg, makes the patient the monitored subject and
// persists it. Store failures are logged; the registration still applies.
func (s *PatientService) Register(ctx context.Context, reg models.PatientRegistration) (models.Patient, error) {
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		return models.Patient{}, fmt.Errorf("%w: name is required", ErrInvalidPatient)
	}
	if reg.Age < 1 || reg.Age > 150 {
		return models.Patient{}, fmt.Errorf("%w: age must be between 1 and 150", ErrInvalidPatient)
	}

	p := models.Patient{
		ID:                s.newID(),
		Name:              name,
		Age:               reg.Age,
		Gender:            strings.TrimSpace(reg.Gender),
		Contact:           strings.TrimSpace(reg.Contact),
		EmergencyContact:  strings.TrimSpace(reg.EmergencyContact),
		MedicalConditions: strings.TrimSpace(reg.MedicalConditions),
		RegisteredAt:      s.now(),
	}

	s.sess.Register(p)
	log.Printf("PatientService: Registered %s (%s)", p.ID, p.Name)

	for _, st := range s.stores {
		if err := st.SavePatient(ctx, p); err != nil {
			log.Printf("Error saving patient to %s: %v", st.Name(), err)
		}
	}
	return p, nil
}

// Restore registers the last persisted patient, if any
func (s *PatientService) Restore(ctx context.Context, loader PatientLoader) error {
	p, err := loader.LatestPatient(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore patient: %w", err)
	}
	if p == nil {
		return nil
	}
	s.sess.Register(*p)
	log.Printf("PatientService: Restored %s (%s)", p.ID, p.Name)
	return nil
}
