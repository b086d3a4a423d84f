package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"vitalcare-backend/internal/models"
)

// Subscriber receives raw readings pushed by networked sensor modules and
// writes them to a channel consumed by the remote sensor source.
type Subscriber struct {
	client mqtt.Client

	// Output channel (written by subscriber, read by the remote source)
	ReadingChan chan<- *models.RemoteReading

	sensorTopic string
	sendTimeout time.Duration
	now         func() time.Time
}

// SubscriberConfig holds configuration for MQTT subscriber
type SubscriberConfig struct {
	SensorTopic string // e.g., "vitalcare/+/sensor"
}

// NewSubscriber creates a new MQTT subscriber writing to readingChan
func NewSubscriber(client mqtt.Client, config SubscriberConfig, readingChan chan<- *models.RemoteReading) *Subscriber {
	return &Subscriber{
		client:      client,
		ReadingChan: readingChan,
		sensorTopic: config.SensorTopic,
		sendTimeout: time.Second,
		now:         time.Now,
	}
}

// SubscribeAll subscribes to all configured sensor topics
func (s *Subscriber) SubscribeAll() error {
	if s.sensorTopic == "" {
		return nil
	}
	if err := s.subscribeToTopic(s.sensorTopic, s.handleSensor); err != nil {
		return fmt.Errorf("failed to subscribe to sensor topic: %w", err)
	}
	log.Printf("Subscribed to sensor topic: %s", s.sensorTopic)
	return nil
}

// subscribeToTopic is a helper function to subscribe to a topic with a handler
func (s *Subscriber) subscribeToTopic(topic string, handler mqtt.MessageHandler) error {
	token := s.client.Subscribe(topic, 0, handler)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// handleSensor parses a JSON reading and hands it to the remote source
func (s *Subscriber) handleSensor(client mqtt.Client, msg mqtt.Message) {
	var payload models.RemoteReadingPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.Printf("Error unmarshaling sensor reading: %v", err)
		return
	}

	// Extract device ID from topic (vitalcare/{device_id}/sensor)
	deviceID := extractDeviceID(msg.Topic())
	if deviceID == "" && payload.DeviceID == "" {
		log.Printf("Could not extract device ID from topic: %s", msg.Topic())
		return
	}

	// Readings are stamped server-side; module clocks are not trusted
	reading := payload.ToReading(deviceID, s.now())

	select {
	case s.ReadingChan <- reading:
	case <-time.After(s.sendTimeout):
		log.Printf("Warning: Sensor channel full, dropping reading from %s", reading.DeviceID)
	}
}

// extractDeviceID extracts device ID from MQTT topic
// Example: "vitalcare/bedside-01/sensor" -> "bedside-01"
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}
