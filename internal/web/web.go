// Package web renders the bedside dashboard from an embedded template.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is what the dashboard template is rendered with
type PageData struct {
	Title              string
	ClinicLocation     string
	EstimatesSimulated bool
	SourceName         string
	UpdateIntervalMs   int64
}

// Dashboard serves the single page UI. Live values arrive over /ws.
type Dashboard struct {
	tmpl *template.Template
	data func() PageData
}

// NewDashboard parses the embedded template. data is called per request.
func NewDashboard(data func() PageData) (*Dashboard, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}
	return &Dashboard{tmpl: tmpl, data: data}, nil
}

func (d *Dashboard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, d.data()); err != nil {
		log.Printf("Dashboard: render failed: %v", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
