package mqtt

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"vitalcare-backend/internal/broadcast"
)

// Publisher forwards vitals frames to the broker. It is a broadcast observer.
type Publisher struct {
	client mqtt.Client

	vitalsTopic string // e.g., "vitalcare/{patient_id}/vitals"
}

// PublisherConfig holds configuration for MQTT publisher
type PublisherConfig struct {
	VitalsTopic string
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(client mqtt.Client, config PublisherConfig) *Publisher {
	return &Publisher{
		client:      client,
		vitalsTopic: config.VitalsTopic,
	}
}

func (p *Publisher) Name() string { return "mqtt" }

// Active is false while the broker connection is down
func (p *Publisher) Active() bool {
	return p.client.IsConnected()
}

// Deliver publishes the frame and waits for the broker or ctx
func (p *Publisher) Deliver(ctx context.Context, f broadcast.Frame) error {
	patientID := f.PatientID
	if patientID == "" {
		patientID = "unregistered"
	}
	topic := formatTopic(p.vitalsTopic, patientID)

	token := p.client.Publish(topic, 0, false, f.Payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("failed to publish vitals to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish vitals to %s: %w", topic, err)
	}
	return nil
}

// formatTopic replaces {patient_id} placeholder with actual patient ID
func formatTopic(topicPattern, patientID string) string {
	return strings.ReplaceAll(topicPattern, "{patient_id}", patientID)
}
