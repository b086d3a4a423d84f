package database

// SQL schemas for all ClickHouse tables

const (
	// VitalsTableSQL creates the vitals table, one row per persisted cycle
	VitalsTableSQL = `
		CREATE TABLE IF NOT EXISTS vitals (
			timestamp DateTime64(3),
			patient_id String,
			heart_rate Float64,
			systolic_bp Float64,
			diastolic_bp Float64,
			spo2 Float64,
			temperature Float64,
			ecg_value Int32,
			pressure Float64,
			status LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (patient_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// PatientsTableSQL creates the patients table
	PatientsTableSQL = `
		CREATE TABLE IF NOT EXISTS patients (
			patient_id String,
			name String,
			age UInt16,
			gender String,
			contact String,
			emergency_contact String,
			medical_conditions String,
			registered_at DateTime64(3)
		) ENGINE = ReplacingMergeTree(registered_at)
		ORDER BY patient_id
	`

	// AlertsTableSQL creates the alerts table
	AlertsTableSQL = `
		CREATE TABLE IF NOT EXISTS alerts (
			timestamp DateTime64(3),
			alert_id String,
			patient_id String,
			severity LowCardinality(String),
			message String,
			findings String
		) ENGINE = MergeTree()
		ORDER BY (patient_id, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		VitalsTableSQL,
		PatientsTableSQL,
		AlertsTableSQL,
	}
}
