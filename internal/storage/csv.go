package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"vitalcare-backend/internal/models"
)

// CSVHeader is the first line of every vitals file
var CSVHeader = []string{"timestamp", "heartRate", "systolicBP", "diastolicBP", "spO2", "temperature", "ecgValue", "pressure", "status"}

// CSVRecorder appends one row per persistence cycle to a file per patient
type CSVRecorder struct {
	dir string
	mu  sync.Mutex
}

// NewCSVRecorder creates dir if needed
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &CSVRecorder{dir: dir}, nil
}

func (r *CSVRecorder) Name() string { return "csv" }

// Path returns the file the patient's vitals are written to
func (r *CSVRecorder) Path(p models.Patient) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%d.csv", p.ID, p.RegisteredAt.Unix()))
}

// Ready reports whether the data directory is usable
func (r *CSVRecorder) Ready() bool {
	info, err := os.Stat(r.dir)
	return err == nil && info.IsDir()
}

// RecordVitals appends snap to the patient's file, writing the header first
// when the file is new.
func (r *CSVRecorder) RecordVitals(_ context.Context, p models.Patient, snap models.VitalsSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.Path(p)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(CSVHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(csvRow(snap)); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}

func csvRow(s models.VitalsSnapshot) []string {
	return []string{
		strconv.FormatInt(s.Timestamp.UnixMilli(), 10),
		strconv.FormatFloat(s.HeartRate, 'f', 1, 64),
		strconv.FormatFloat(s.SystolicBP, 'f', 0, 64),
		strconv.FormatFloat(s.DiastolicBP, 'f', 0, 64),
		strconv.FormatFloat(s.SpO2, 'f', 1, 64),
		strconv.FormatFloat(s.Temperature, 'f', 1, 64),
		strconv.Itoa(s.ECGValue),
		strconv.FormatFloat(s.Pressure, 'f', 1, 64),
		s.Status,
	}
}
