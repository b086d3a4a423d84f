package models

import "time"

// RemoteReading is a raw reading pushed by a networked sensor module
type RemoteReading struct {
	DeviceID   string
	ReceivedAt time.Time
	ECG        int
	Pulse      int
	LeadOff    bool
	Env        *EnvReading
}

// RemoteReadingPayload is the wire format used on MQTT and POST /api/sensor-data
type RemoteReadingPayload struct {
	DeviceID     string   `json:"deviceId,omitempty"`
	ECG          int      `json:"ecg"`
	Pulse        int      `json:"pulse"`
	LeadOff      bool     `json:"leadOff"`
	TemperatureC *float64 `json:"temperatureC,omitempty"`
	PressureHPa  *float64 `json:"pressure,omitempty"`
}

// ToReading converts the payload into a reading stamped with receivedAt.
// Environment is only attached when both temperature and pressure are present.
func (p RemoteReadingPayload) ToReading(deviceID string, receivedAt time.Time) *RemoteReading {
	if p.DeviceID != "" {
		deviceID = p.DeviceID
	}
	r := &RemoteReading{
		DeviceID:   deviceID,
		ReceivedAt: receivedAt,
		ECG:        p.ECG,
		Pulse:      p.Pulse,
		LeadOff:    p.LeadOff,
	}
	if p.TemperatureC != nil && p.PressureHPa != nil {
		r.Env = &EnvReading{TemperatureC: *p.TemperatureC, PressureHPa: *p.PressureHPa}
	}
	return r
}
