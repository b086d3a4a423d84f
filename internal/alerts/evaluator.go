package alerts

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vitalcare-backend/internal/models"
)

// Vital names a classified field of the snapshot
type Vital string

const (
	VitalHeartRate   Vital = "Heart Rate"
	VitalSystolic    Vital = "Systolic BP"
	VitalDiastolic   Vital = "Diastolic BP"
	VitalSpO2        Vital = "SpO2"
	VitalTemperature Vital = "Temperature"
)

// Result is the outcome of evaluating one snapshot
type Result struct {
	Status string              // worst severity, or StatusNoSignal
	Record *models.AlertRecord // nil when every measured vital is normal
}

// Evaluator classifies snapshots against fixed bands
type Evaluator struct {
	bands Bands
	newID func() string
}

// NewEvaluator creates an evaluator for the given bands
func NewEvaluator(bands Bands) *Evaluator {
	return &Evaluator{bands: bands, newID: uuid.NewString}
}

// Bands returns the bands in use
func (e *Evaluator) Bands() Bands {
	return e.bands
}

// Classify returns the severity of a single vital value
func (e *Evaluator) Classify(v Vital, value float64) models.Severity {
	return e.bandFor(v).Classify(value)
}

// Evaluate classifies every measured vital of snap. A zero value is treated
// as not measured and skipped, except a heart rate flagged as measured:
// no beats at all is the lowest reading there is.
func (e *Evaluator) Evaluate(patientID string, snap models.VitalsSnapshot) Result {
	checks := []struct {
		vital Vital
		value float64
		unit  string
	}{
		{VitalHeartRate, snap.HeartRate, "BPM"},
		{VitalSystolic, snap.SystolicBP, "mmHg"},
		{VitalDiastolic, snap.DiastolicBP, "mmHg"},
		{VitalSpO2, snap.SpO2, "%"},
		{VitalTemperature, snap.Temperature, "°F"},
	}

	worst := models.SeverityNormal
	measured := 0
	var findings []models.Finding

	for _, c := range checks {
		if c.value == 0 && !(c.vital == VitalHeartRate && snap.HeartRateMeasured) {
			continue
		}
		measured++

		sev := e.Classify(c.vital, c.value)
		if sev == models.SeverityNormal {
			continue
		}
		if sev > worst {
			worst = sev
		}
		findings = append(findings, models.Finding{
			Vital:    string(c.vital),
			Value:    c.value,
			Unit:     c.unit,
			Severity: sev,
		})
	}

	if measured == 0 {
		return Result{Status: models.StatusNoSignal}
	}
	if len(findings) == 0 {
		return Result{Status: worst.String()}
	}

	ts := snap.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Result{
		Status: worst.String(),
		Record: &models.AlertRecord{
			ID:        e.newID(),
			PatientID: patientID,
			Severity:  worst,
			Message:   FormatFindings(findings),
			Findings:  findings,
			Timestamp: ts,
		},
	}
}

func (e *Evaluator) bandFor(v Vital) Band {
	switch v {
	case VitalHeartRate:
		return e.bands.HeartRate
	case VitalSystolic:
		return e.bands.Systolic
	case VitalDiastolic:
		return e.bands.Diastolic
	case VitalSpO2:
		return e.bands.SpO2
	default:
		return e.bands.Temperature
	}
}

// FormatFindings renders findings as "Heart Rate: 45 BPM. SpO2: 85%. "
func FormatFindings(findings []models.Finding) string {
	var b strings.Builder
	for _, f := range findings {
		b.WriteString(f.Vital)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(math.Round(f.Value*10)/10, 'f', -1, 64))
		if f.Unit != "%" && f.Unit != "°F" {
			b.WriteString(" ")
		}
		b.WriteString(f.Unit)
		b.WriteString(". ")
	}
	return b.String()
}

// AlertMessage builds the text sent to the emergency contact
func AlertMessage(p models.Patient, rec models.AlertRecord, location string) string {
	var b strings.Builder
	b.WriteString("ALERT: ")
	b.WriteString(p.Name)
	if p.ID != "" {
		b.WriteString(" (")
		b.WriteString(p.ID)
		b.WriteString(")")
	}
	b.WriteString(" - ")
	b.WriteString(rec.Message)
	b.WriteString("Location: ")
	b.WriteString(location)
	return b.String()
}
