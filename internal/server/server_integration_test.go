package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vitalcare-backend/internal/broadcast"
	"vitalcare-backend/internal/database"
	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/sensor"
	srvpkg "vitalcare-backend/internal/server"
	"vitalcare-backend/internal/services"
	"vitalcare-backend/internal/session"
	"vitalcare-backend/internal/storage"
)

type testEnv struct {
	ts     *httptest.Server
	sess   *session.Session
	store  *storage.SQLiteStore
	remote *sensor.Remote
}

func newTestEnv(t *testing.T, opts ...func(*srvpkg.Deps)) *testEnv {
	t.Helper()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "itest.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sess := session.New(time.Now())
	remote := sensor.NewRemote(5 * time.Second)
	hub := broadcast.NewHub(func() ([]byte, error) {
		p, ok := sess.Patient()
		return broadcast.EncodeInit(p, ok)
	}, nil)

	deps := srvpkg.Deps{
		Session:  sess,
		Patients: services.NewPatientService(sess, store),
		Reader:   sensor.NewReader(remote, 4095),
		Remote:   remote,
		Alerts:   store,
		Hub:      hub,
		Dashboard: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("dashboard"))
		}),
		Estimator:          "simulated",
		EstimatesSimulated: true,
		Integrations:       map[string]func() bool{"sqlite": func() bool { return true }},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	srv := srvpkg.NewServer(deps)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, sess: sess, store: store, remote: remote}
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s failed: %v", url, err)
	}
	return resp
}

func TestRegisterAndFetchPatient(t *testing.T) {
	env := newTestEnv(t)

	var before map[string]any
	getJSON(t, env.ts.URL+"/api/patient", &before)
	if before["registered"] != false {
		t.Fatalf("expected no patient, got %v", before)
	}

	resp, out := postJSON(t, env.ts.URL+"/api/register-patient", map[string]any{
		"name": "Asha", "age": 67, "gender": "female", "emergencyContact": "919800000000",
	})
	if resp.StatusCode != http.StatusOK || out["success"] != true {
		t.Fatalf("register failed: %d %v", resp.StatusCode, out)
	}
	id, _ := out["patientId"].(string)
	if !strings.HasPrefix(id, "VCR-") {
		t.Fatalf("unexpected patient ID %q", id)
	}

	var after struct {
		Registered bool           `json:"registered"`
		Patient    models.Patient `json:"patient"`
	}
	getJSON(t, env.ts.URL+"/api/patient", &after)
	if !after.Registered || after.Patient.ID != id || after.Patient.Name != "Asha" {
		t.Fatalf("unexpected patient response %+v", after)
	}

	stored, err := env.store.LatestPatient(context.Background())
	if err != nil || stored == nil || stored.ID != id {
		t.Fatalf("patient not persisted: %v %+v", err, stored)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	resp, out := postJSON(t, env.ts.URL+"/api/register-patient", map[string]any{"name": "", "age": 30})
	if resp.StatusCode != http.StatusBadRequest || out["success"] != false {
		t.Fatalf("expected 400, got %d %v", resp.StatusCode, out)
	}

	raw, err := http.Post(env.ts.URL+"/api/register-patient", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", raw.StatusCode)
	}

	get, err := http.Get(env.ts.URL + "/api/register-patient")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", get.StatusCode)
	}
}

func TestVitalsAndStatus(t *testing.T) {
	env := newTestEnv(t)
	ts := time.UnixMilli(1700000000123)
	env.sess.Commit(models.VitalsSnapshot{HeartRate: 72.04, SystolicBP: 120.6, Status: "Normal", Timestamp: ts}, nil)

	var vitals broadcast.VitalsMessage
	getJSON(t, env.ts.URL+"/api/vitals", &vitals)
	if vitals.Type != "vitals" || vitals.HeartRate != 72 || vitals.SystolicBP != 121 || vitals.Timestamp != 1700000000123 {
		t.Fatalf("unexpected vitals %+v", vitals)
	}

	var status map[string]any
	getJSON(t, env.ts.URL+"/api/status", &status)
	if status["source"] != "remote" || status["estimatesSimulated"] != true {
		t.Fatalf("unexpected status %v", status)
	}
	integrations, _ := status["integrations"].(map[string]any)
	if integrations["sqlite"] != true {
		t.Fatalf("integrations = %v", status["integrations"])
	}
}

func TestSensorDataFeedsRemoteSource(t *testing.T) {
	env := newTestEnv(t)

	resp, out := postJSON(t, env.ts.URL+"/api/sensor-data", map[string]any{"ecg": 2500, "pulse": 1500, "leadOff": false})
	if resp.StatusCode != http.StatusAccepted || out["success"] != true {
		t.Fatalf("sensor push failed: %d %v", resp.StatusCode, out)
	}

	f := env.remote.Poll(time.Now())
	if f.ECG != 2500 || f.Pulse != 1500 {
		t.Fatalf("remote source not updated: %+v", f)
	}
}

func TestAlertsListed(t *testing.T) {
	env := newTestEnv(t)
	rec := models.AlertRecord{ID: "a-1", PatientID: "VCR-1", Severity: models.SeverityCritical, Message: "SpO2: 85%. ", Timestamp: time.Now()}
	if err := env.store.SaveAlert(context.Background(), rec); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}

	var list []models.AlertRecord
	getJSON(t, env.ts.URL+"/api/alerts?limit=10", &list)
	if len(list) != 1 || list[0].ID != "a-1" || list[0].Severity != models.SeverityCritical {
		t.Fatalf("unexpected alerts %+v", list)
	}

	resp, err := http.Get(env.ts.URL + "/api/alerts?limit=zero")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestSummaryWithoutArchive(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.ts.URL + "/api/vitals/summary")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

type summaryFunc func(ctx context.Context, patientID string, since time.Time) (*database.VitalsSummary, error)

func (f summaryFunc) SummarizeVitals(ctx context.Context, patientID string, since time.Time) (*database.VitalsSummary, error) {
	return f(ctx, patientID, since)
}

func TestSummaryEmptyWindow(t *testing.T) {
	env := newTestEnv(t, func(d *srvpkg.Deps) {
		d.Summaries = summaryFunc(func(ctx context.Context, patientID string, since time.Time) (*database.VitalsSummary, error) {
			return &database.VitalsSummary{PatientID: patientID, Since: since}, nil
		})
	})
	env.sess.Register(models.Patient{ID: "VCR-4", Name: "Asha", Age: 40})

	var out map[string]any
	resp := getJSON(t, env.ts.URL+"/api/vitals/summary?window=10m", &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if out["hasData"] != false || out["avgHeartRate"] != 0.0 || out["patientId"] != "VCR-4" {
		t.Fatalf("unexpected summary %v", out)
	}
}

func TestUnencodableSummaryIsServerError(t *testing.T) {
	env := newTestEnv(t, func(d *srvpkg.Deps) {
		d.Summaries = summaryFunc(func(ctx context.Context, patientID string, since time.Time) (*database.VitalsSummary, error) {
			return &database.VitalsSummary{PatientID: patientID, AvgHeartRate: math.NaN()}, nil
		})
	})
	env.sess.Register(models.Patient{ID: "VCR-5", Name: "Ravi", Age: 61})

	resp, err := http.Get(env.ts.URL + "/api/vitals/summary")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestWebSocketGreeting(t *testing.T) {
	env := newTestEnv(t)
	env.sess.Register(models.Patient{ID: "VCR-9", Name: "Meena", Age: 58, Gender: "female"})

	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var init broadcast.InitMessage
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init: %v", err)
	}
	if init.Type != "init" || !init.PatientRegistered || init.Patient == nil || init.Patient.Name != "Meena" {
		t.Fatalf("unexpected init %+v", init)
	}
}

func TestDashboardServedAtRoot(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.ts.URL + "/")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	missing, err := http.Get(env.ts.URL + "/nope")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}
