// Package notify delivers critical alerts outside the dashboard: a local
// buzzer and an SMS to the patient's emergency contact.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"vitalcare-backend/internal/alerts"
	"vitalcare-backend/internal/models"
)

// ErrNoContact is returned when the patient has no emergency contact
var ErrNoContact = errors.New("patient has no emergency contact")

// Notifier delivers one alert event
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev models.AlertEvent) error
}

// Buzzer sounds the local alarm. There is no hardware behind it in this
// process, so an activation is logged and counted.
type Buzzer struct {
	activations atomic.Int64
}

func NewBuzzer() *Buzzer { return &Buzzer{} }

func (b *Buzzer) Name() string { return "buzzer" }

func (b *Buzzer) Notify(_ context.Context, ev models.AlertEvent) error {
	b.activations.Add(1)
	log.Printf("Buzzer: %s alert for patient %s", ev.Record.Severity, ev.Patient.ID)
	return nil
}

// Activations returns how many times the buzzer sounded
func (b *Buzzer) Activations() int64 {
	return b.activations.Load()
}

// SMSNotifier texts the emergency contact of the patient
type SMSNotifier struct {
	sender   Sender
	location string
}

// NewSMSNotifier creates a notifier that signs messages with location
func NewSMSNotifier(sender Sender, location string) *SMSNotifier {
	return &SMSNotifier{sender: sender, location: location}
}

func (n *SMSNotifier) Name() string { return "sms" }

func (n *SMSNotifier) Notify(ctx context.Context, ev models.AlertEvent) error {
	phone := normalizePhone(ev.Patient.EmergencyContact)
	if phone == "" {
		return ErrNoContact
	}

	msg := alerts.AlertMessage(ev.Patient, ev.Record, n.location)
	if err := n.sender.Send(ctx, phone, msg); err != nil {
		return fmt.Errorf("failed to send SMS to emergency contact: %w", err)
	}
	log.Printf("SMS: alert %s sent for patient %s", ev.Record.ID, ev.Patient.ID)
	return nil
}

// normalizePhone keeps the digits of a phone number ("+91 98000-00000" -> "919800000000")
func normalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
