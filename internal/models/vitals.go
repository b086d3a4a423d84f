package models

import (
	"fmt"
	"time"
)

// Severity is the classification of a single vital or of a whole snapshot
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityCritical:
		return "Critical"
	default:
		return "Normal"
	}
}

// ParseSeverity is the inverse of Severity.String
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "Normal":
		return SeverityNormal, nil
	case "Warning":
		return SeverityWarning, nil
	case "Critical":
		return SeverityCritical, nil
	}
	return SeverityNormal, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Snapshot status labels that are not severities
const (
	StatusNoPatient = "No Patient"
	StatusNoSignal  = "No Signal"
)

// VitalsSnapshot is the aggregated per-cycle view of the subject.
// Blood pressure and SpO2 come from an estimator, not a sensor.
type VitalsSnapshot struct {
	HeartRate   float64   `json:"heartRate"`
	SystolicBP  float64   `json:"systolicBP"`
	DiastolicBP float64   `json:"diastolicBP"`
	SpO2        float64   `json:"spO2"`
	Temperature float64   `json:"temperature"` // Fahrenheit
	ECGValue    int       `json:"ecgValue"`
	Pressure    float64   `json:"pressure"` // hPa
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`

	// HeartRateMeasured marks a zero HeartRate as a real reading (no beats
	// within the timeout) rather than a rate still being gathered.
	HeartRateMeasured bool `json:"-"`
}

// Finding is one vital that fell outside its normal band
type Finding struct {
	Vital    string   `json:"vital"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
	Severity Severity `json:"severity"`
}

// AlertRecord is produced when at least one vital is outside its normal band
type AlertRecord struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Findings  []Finding `json:"findings"`
	Timestamp time.Time `json:"timestamp"`
}

// NeedsNotification reports whether the record must reach external notifiers
func (a *AlertRecord) NeedsNotification() bool {
	return a != nil && a.Severity == SeverityCritical
}

// AlertEvent pairs an alert with the subject it concerns
type AlertEvent struct {
	Patient Patient
	Record  AlertRecord
}

// VitalsRecord pairs a persisted snapshot with its subject
type VitalsRecord struct {
	Patient  Patient
	Snapshot VitalsSnapshot
}
