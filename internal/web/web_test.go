package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDashboardRenders(t *testing.T) {
	d, err := NewDashboard(func() PageData {
		return PageData{
			Title:              "VitalCare Rural",
			ClinicLocation:     "Kottur <PHC>",
			EstimatesSimulated: true,
			SourceName:         "simulated",
			UpdateIntervalMs:   1000,
		}
	})
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Kottur &lt;PHC&gt;") {
		t.Fatal("clinic location missing or not escaped")
	}
	if !strings.Contains(body, "simulated estimate") {
		t.Fatal("simulated estimates must be labeled")
	}
	if !strings.Contains(body, "/api/register-patient") {
		t.Fatal("registration form missing")
	}
}

func TestDashboardHidesSimulatedLabel(t *testing.T) {
	d, err := NewDashboard(func() PageData { return PageData{Title: "x", UpdateIntervalMs: 1000} })
	if err != nil {
		t.Fatalf("NewDashboard: %v", err)
	}
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Contains(rec.Body.String(), "simulated estimate") {
		t.Fatal("label shown without simulated estimator")
	}
}
