package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/session"
)

// Message types sent to dashboard observers
const (
	TypeVitals = "vitals"
	TypeInit   = "init"
)

// VitalsMessage is the dashboard wire format of one committed cycle.
// Values are rounded to their declared precision before encoding.
type VitalsMessage struct {
	Type        string        `json:"type"`
	HeartRate   float64       `json:"heartRate"`
	SystolicBP  float64       `json:"systolicBP"`
	DiastolicBP float64       `json:"diastolicBP"`
	SpO2        float64       `json:"spO2"`
	Temperature float64       `json:"temperature"`
	ECGValue    int           `json:"ecgValue"`
	Pressure    float64       `json:"pressure"`
	Timestamp   int64         `json:"timestamp"` // Unix milliseconds
	Status      string        `json:"status"`
	Alert       *AlertPayload `json:"alert,omitempty"`
}

// AlertPayload is the alert part of a vitals message
type AlertPayload struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// InitMessage is sent once to every new observer
type InitMessage struct {
	Type              string                 `json:"type"`
	PatientRegistered bool                   `json:"patientRegistered"`
	Patient           *models.PatientSummary `json:"patient,omitempty"`
}

// Declared decimal places per field
const (
	heartRatePlaces   = 1
	bloodPressPlaces  = 0
	spo2Places        = 1
	temperaturePlaces = 1
	pressurePlaces    = 1
)

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// NewVitalsMessage converts a committed cycle to its wire form
func NewVitalsMessage(cur session.Current) VitalsMessage {
	s := cur.Snapshot
	msg := VitalsMessage{
		Type:        TypeVitals,
		HeartRate:   round(s.HeartRate, heartRatePlaces),
		SystolicBP:  round(s.SystolicBP, bloodPressPlaces),
		DiastolicBP: round(s.DiastolicBP, bloodPressPlaces),
		SpO2:        round(s.SpO2, spo2Places),
		Temperature: round(s.Temperature, temperaturePlaces),
		ECGValue:    s.ECGValue,
		Pressure:    round(s.Pressure, pressurePlaces),
		Timestamp:   s.Timestamp.UnixMilli(),
		Status:      s.Status,
	}
	if cur.Alert != nil {
		msg.Alert = &AlertPayload{
			ID:       cur.Alert.ID,
			Severity: cur.Alert.Severity.String(),
			Message:  cur.Alert.Message,
		}
	}
	return msg
}

// Snapshot converts the message back into a snapshot
func (m VitalsMessage) Snapshot() models.VitalsSnapshot {
	return models.VitalsSnapshot{
		HeartRate:   m.HeartRate,
		SystolicBP:  m.SystolicBP,
		DiastolicBP: m.DiastolicBP,
		SpO2:        m.SpO2,
		Temperature: m.Temperature,
		ECGValue:    m.ECGValue,
		Pressure:    m.Pressure,
		Timestamp:   time.UnixMilli(m.Timestamp).UTC(),
		Status:      m.Status,
	}
}

// EncodeVitals serializes a committed cycle
func EncodeVitals(cur session.Current) ([]byte, error) {
	b, err := json.Marshal(NewVitalsMessage(cur))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vitals: %w", err)
	}
	return b, nil
}

// DecodeVitals parses a vitals frame
func DecodeVitals(b []byte) (VitalsMessage, error) {
	var m VitalsMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return VitalsMessage{}, fmt.Errorf("failed to unmarshal vitals: %w", err)
	}
	if m.Type != TypeVitals {
		return VitalsMessage{}, fmt.Errorf("unexpected message type %q", m.Type)
	}
	return m, nil
}

// EncodeInit serializes the greeting for a new observer
func EncodeInit(p models.Patient, registered bool) ([]byte, error) {
	msg := InitMessage{Type: TypeInit, PatientRegistered: registered}
	if registered {
		summary := p.Summary()
		msg.Patient = &summary
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal init message: %w", err)
	}
	return b, nil
}
