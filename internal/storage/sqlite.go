package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vitalcare-backend/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS patients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	age INTEGER NOT NULL,
	gender TEXT,
	contact TEXT,
	emergency_contact TEXT,
	medical_conditions TEXT,
	registered_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	severity TEXT NOT NULL,
	message TEXT,
	findings TEXT,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
`

// timeLayout is fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps the patient registry and the alert history on local disk
// (pure Go driver modernc.org/sqlite).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer keeps sqlite away from SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Println("SQLite: warning: could not set WAL mode:", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// SavePatient inserts or replaces a patient row
func (s *SQLiteStore) SavePatient(ctx context.Context, p models.Patient) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO patients(id, name, age, gender, contact, emergency_contact, medical_conditions, registered_at) VALUES(?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Age, p.Gender, p.Contact, p.EmergencyContact, p.MedicalConditions,
		p.RegisteredAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save patient: %w", err)
	}
	return nil
}

// LatestPatient returns the most recently registered patient, or nil when
// the registry is empty.
func (s *SQLiteStore) LatestPatient(ctx context.Context) (*models.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, age, gender, contact, emergency_contact, medical_conditions, registered_at FROM patients ORDER BY registered_at DESC LIMIT 1`)

	var p models.Patient
	var registered string
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Contact, &p.EmergencyContact, &p.MedicalConditions, &registered)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	if t, err := time.Parse(timeLayout, registered); err == nil {
		p.RegisteredAt = t
	}
	return &p, nil
}

// SaveAlert stores an alert record; findings are kept as JSON text
func (s *SQLiteStore) SaveAlert(ctx context.Context, rec models.AlertRecord) error {
	findings, err := json.Marshal(rec.Findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO alerts(id, patient_id, severity, message, findings, timestamp) VALUES(?,?,?,?,?,?)`,
		rec.ID, rec.PatientID, rec.Severity.String(), rec.Message, string(findings),
		rec.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}

// ListAlerts returns up to limit alerts, newest first
func (s *SQLiteStore) ListAlerts(ctx context.Context, limit int) ([]models.AlertRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, patient_id, severity, message, findings, timestamp FROM alerts ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertRecord, 0)
	for rows.Next() {
		var rec models.AlertRecord
		var severity, findings, ts string
		if err := rows.Scan(&rec.ID, &rec.PatientID, &severity, &rec.Message, &findings, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if sev, err := models.ParseSeverity(severity); err == nil {
			rec.Severity = sev
		}
		if findings != "" {
			if err := json.Unmarshal([]byte(findings), &rec.Findings); err != nil {
				log.Printf("SQLite: skipping malformed findings of alert %s: %v", rec.ID, err)
			}
		}
		if t, err := time.Parse(timeLayout, ts); err == nil {
			rec.Timestamp = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
