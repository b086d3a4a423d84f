package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"vitalcare-backend/internal/models"
)

// ClickHouseDB is the remote time-series archive of vitals, patients and alerts
type ClickHouseDB struct {
	db *sql.DB
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, addr, database, username, password string) (*ClickHouseDB, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", addr)

	db := NewClickHouseDBFromConn(conn)
	if err := db.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// NewClickHouseDBFromConn wraps an already opened connection
func NewClickHouseDBFromConn(conn *sql.DB) *ClickHouseDB {
	return &ClickHouseDB{db: conn}
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if _, err := db.db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("Database schema initialized successfully")
	return nil
}

func (db *ClickHouseDB) Name() string { return "clickhouse" }

// RecordVitals saves one persisted snapshot
func (db *ClickHouseDB) RecordVitals(ctx context.Context, p models.Patient, snap models.VitalsSnapshot) error {
	query := `
		INSERT INTO vitals (timestamp, patient_id, heart_rate, systolic_bp, diastolic_bp, spo2, temperature, ecg_value, pressure, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.db.ExecContext(ctx, query,
		snap.Timestamp,
		p.ID,
		snap.HeartRate,
		snap.SystolicBP,
		snap.DiastolicBP,
		snap.SpO2,
		snap.Temperature,
		int32(snap.ECGValue),
		snap.Pressure,
		snap.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vitals: %w", err)
	}

	return nil
}

// SavePatient upserts a registered patient
func (db *ClickHouseDB) SavePatient(ctx context.Context, p models.Patient) error {
	query := `
		INSERT INTO patients (patient_id, name, age, gender, contact, emergency_contact, medical_conditions, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		uint16(p.Age),
		p.Gender,
		p.Contact,
		p.EmergencyContact,
		p.MedicalConditions,
		p.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert patient: %w", err)
	}

	return nil
}

// SaveAlert saves an alert record with its findings as JSON
func (db *ClickHouseDB) SaveAlert(ctx context.Context, rec models.AlertRecord) error {
	findings, err := json.Marshal(rec.Findings)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}

	query := `
		INSERT INTO alerts (timestamp, alert_id, patient_id, severity, message, findings)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = db.db.ExecContext(ctx, query,
		rec.Timestamp,
		rec.ID,
		rec.PatientID,
		rec.Severity.String(),
		rec.Message,
		string(findings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// VitalsSummary holds aggregated vitals of one patient over a time window
type VitalsSummary struct {
	PatientID      string    `json:"patientId"`
	Since          time.Time `json:"since"`
	Records        uint64    `json:"records"`
	AvgHeartRate   float64   `json:"avgHeartRate"`
	MinHeartRate   float64   `json:"minHeartRate"`
	MaxHeartRate   float64   `json:"maxHeartRate"`
	AvgSpO2        float64   `json:"avgSpO2"`
	MaxTemperature float64   `json:"maxTemperature"`
	HasData        bool      `json:"hasData"`
}

// SummarizeVitals returns aggregates for the patient's records newer than since.
// Zero values mean "not measured" and are excluded from the aggregates.
func (db *ClickHouseDB) SummarizeVitals(ctx context.Context, patientID string, since time.Time) (*VitalsSummary, error) {
	query := `
		SELECT
			count(*) AS records,
			ifNotFinite(avgIf(heart_rate, heart_rate > 0), 0) AS avg_hr,
			minIf(heart_rate, heart_rate > 0) AS min_hr,
			maxIf(heart_rate, heart_rate > 0) AS max_hr,
			ifNotFinite(avgIf(spo2, spo2 > 0), 0) AS avg_spo2,
			maxIf(temperature, temperature > 0) AS max_temp
		FROM vitals
		WHERE patient_id = ? AND timestamp >= ?
	`

	summary := &VitalsSummary{PatientID: patientID, Since: since}
	row := db.db.QueryRowContext(ctx, query, patientID, since)
	err := row.Scan(
		&summary.Records,
		&summary.AvgHeartRate,
		&summary.MinHeartRate,
		&summary.MaxHeartRate,
		&summary.AvgSpO2,
		&summary.MaxTemperature,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize vitals: %w", err)
	}

	// avg over an empty match set is nan, which JSON cannot carry
	for _, v := range []*float64{
		&summary.AvgHeartRate, &summary.MinHeartRate, &summary.MaxHeartRate,
		&summary.AvgSpO2, &summary.MaxTemperature,
	} {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}

	summary.HasData = summary.Records > 0
	return summary, nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.db != nil {
		if err := db.db.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		log.Println("ClickHouse connection closed")
	}
	return nil
}
