// Package server exposes the HTTP API, the dashboard and the websocket
// channel of the monitor.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"vitalcare-backend/internal/broadcast"
	"vitalcare-backend/internal/database"
	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/sensor"
	"vitalcare-backend/internal/services"
	"vitalcare-backend/internal/session"
)

// AlertLister returns recent persisted alerts
type AlertLister interface {
	ListAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error)
}

// VitalsSummarizer aggregates archived vitals
type VitalsSummarizer interface {
	SummarizeVitals(ctx context.Context, patientID string, since time.Time) (*database.VitalsSummary, error)
}

// ReadingSink accepts readings pushed by a sensor module
type ReadingSink interface {
	Update(reading *models.RemoteReading)
}

// Deps are the collaborators of the HTTP server. Remote, Alerts, Summaries,
// Dashboard and Metrics may be nil.
type Deps struct {
	Session   *session.Session
	Patients  *services.PatientService
	Reader    *sensor.Reader
	Remote    ReadingSink
	Alerts    AlertLister
	Summaries VitalsSummarizer
	Hub       *broadcast.Hub
	Dashboard http.Handler
	Metrics   http.Handler

	Estimator          string
	EstimatesSimulated bool
	// Integrations reports readiness of optional pieces by name
	Integrations map[string]func() bool
}

// Server routes HTTP requests to the monitor
type Server struct {
	deps Deps
	mux  *http.ServeMux
	now  func() time.Time
}

func NewServer(deps Deps) *Server {
	s := &Server{deps: deps, mux: http.NewServeMux(), now: time.Now}
	s.routes()
	return s
}

func (s *Server) Router() http.Handler { return s.mux }

func (s *Server) routes() {
	if s.deps.Dashboard != nil {
		s.mux.Handle("GET /{$}", s.deps.Dashboard)
	}
	if s.deps.Hub != nil {
		s.mux.Handle("GET /ws", s.deps.Hub)
	}
	if s.deps.Metrics != nil {
		s.mux.Handle("GET /metrics", s.deps.Metrics)
	}

	s.mux.HandleFunc("POST /api/register-patient", s.handleRegister)
	s.mux.HandleFunc("GET /api/patient", s.handlePatient)
	s.mux.HandleFunc("GET /api/vitals", s.handleVitals)
	s.mux.HandleFunc("GET /api/vitals/summary", s.handleSummary)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/sensor-data", s.handleSensorData)
	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)
}

type registerResponse struct {
	Success   bool   `json:"success"`
	PatientID string `json:"patientId,omitempty"`
	Message   string `json:"message"`
}

// POST /api/register-patient
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.PatientRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: "Invalid JSON"})
		return
	}

	p, err := s.deps.Patients.Register(r.Context(), reg)
	if errors.Is(err, services.ErrInvalidPatient) {
		writeJSON(w, http.StatusBadRequest, registerResponse{Message: err.Error()})
		return
	}
	if err != nil {
		log.Printf("Server: registration failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, registerResponse{Message: "Registration failed"})
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{Success: true, PatientID: p.ID, Message: "Patient registered successfully"})
}

// GET /api/patient
func (s *Server) handlePatient(w http.ResponseWriter, r *http.Request) {
	p, ok := s.deps.Session.Patient()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"registered": false, "message": "No patient registered"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registered": true, "patient": p})
}

// GET /api/vitals: the last committed cycle in dashboard format
func (s *Server) handleVitals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, broadcast.NewVitalsMessage(s.deps.Session.Current()))
}

// GET /api/vitals/summary?window=1h
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summaries == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"message": "vitals archive not configured"})
		return
	}
	p, ok := s.deps.Session.Patient()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "No patient registered"})
		return
	}

	window := time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid window"})
			return
		}
		window = d
	}

	summary, err := s.deps.Summaries.SummarizeVitals(r.Context(), p.ID, s.now().Add(-window))
	if err != nil {
		log.Printf("Server: summary failed: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"message": "vitals archive unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type statusResponse struct {
	UptimeSeconds      int64               `json:"uptimeSeconds"`
	Observers          int                 `json:"observers"`
	PatientRegistered  bool                `json:"patientRegistered"`
	Source             string              `json:"source"`
	Sensors            models.SensorStatus `json:"sensors"`
	Estimator          string              `json:"estimator"`
	EstimatesSimulated bool                `json:"estimatesSimulated"`
	Integrations       map[string]bool     `json:"integrations"`
}

// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	resp := statusResponse{
		UptimeSeconds:      int64(s.deps.Session.Uptime(now).Seconds()),
		PatientRegistered:  s.deps.Session.Registered(),
		Estimator:          s.deps.Estimator,
		EstimatesSimulated: s.deps.EstimatesSimulated,
		Integrations:       make(map[string]bool, len(s.deps.Integrations)),
	}
	if s.deps.Hub != nil {
		resp.Observers = s.deps.Hub.Clients()
	}
	if s.deps.Reader != nil {
		resp.Source = s.deps.Reader.SourceName()
		resp.Sensors = s.deps.Reader.Status(now)
	}
	for name, ready := range s.deps.Integrations {
		resp.Integrations[name] = ready()
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/sensor-data: a sensor module pushes one raw reading
func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	if s.deps.Remote == nil {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "sensor source is not remote"})
		return
	}

	var payload models.RemoteReadingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid JSON"})
		return
	}
	s.deps.Remote.Update(payload.ToReading("http", s.now()))
	writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
}

// GET /api/alerts?limit=50
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Alerts == nil {
		writeJSON(w, http.StatusOK, []models.AlertRecord{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	list, err := s.deps.Alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		log.Printf("Server: listing alerts failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "failed to list alerts"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// writeJSON encodes before writing the status so an unencodable value
// becomes a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Println("Server: error encoding response:", err)
		buf.Reset()
		buf.WriteString(`{"message":"internal error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Println("Server: error writing response:", err)
	}
}
