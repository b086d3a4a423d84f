package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP / dashboard
	HTTPAddr       string
	ClinicLocation string

	// Sensor source: "simulated" or "remote"
	SensorSource     string
	SimHeartRate     float64
	SimLeadOff       bool
	RemoteStaleAfter time.Duration
	ADCMax           int

	// Estimator for blood pressure and SpO2: "simulated" or "none"
	Estimator     string
	EstimatorSeed int64

	// Loop timing
	SampleInterval  time.Duration
	UpdateInterval  time.Duration
	PersistInterval time.Duration
	IdleDelay       time.Duration

	// Beat detection and rate aggregation
	ECGThreshold     int
	PulseThreshold   int
	Refractory       time.Duration
	RateWindow       time.Duration
	HeartbeatTimeout time.Duration
	RateMin          float64
	RateMax          float64

	// Alerting
	AlertBandsFile string
	AlertCooldown  time.Duration

	// Local storage
	DataDir    string
	SQLitePath string

	// ClickHouse remote sync (disabled when address is empty)
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// MQTT (disabled when broker is empty)
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicSensor string
	MQTTTopicVitals string

	// NATS fan-out (disabled when URL is empty)
	NATSURL     string
	NATSSubject string

	// SMS gateway (disabled when API key is empty)
	SMSAPIKey  string
	SMSBaseURL string
	SMSSender  string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ClinicLocation: getEnv("CLINIC_LOCATION", "VitalCare Rural Clinic"),

		SensorSource:     getEnv("SENSOR_SOURCE", "simulated"),
		SimHeartRate:     getEnvFloat("SIM_HEART_RATE", 72),
		SimLeadOff:       getEnvBool("SIM_LEAD_OFF", false),
		RemoteStaleAfter: getEnvDuration("REMOTE_STALE_AFTER", 5*time.Second),
		ADCMax:           getEnvInt("ADC_MAX", 4095),

		Estimator:     getEnv("ESTIMATOR", "simulated"),
		EstimatorSeed: int64(getEnvInt("ESTIMATOR_SEED", 0)),

		SampleInterval:  getEnvDuration("SAMPLE_INTERVAL", 100*time.Millisecond),
		UpdateInterval:  getEnvDuration("UPDATE_INTERVAL", time.Second),
		PersistInterval: getEnvDuration("PERSIST_INTERVAL", 30*time.Second),
		IdleDelay:       getEnvDuration("IDLE_DELAY", 10*time.Millisecond),

		ECGThreshold:     getEnvInt("ECG_THRESHOLD", 2000),
		PulseThreshold:   getEnvInt("PULSE_THRESHOLD", 2048),
		Refractory:       getEnvDuration("REFRACTORY", 300*time.Millisecond),
		RateWindow:       getEnvDuration("RATE_WINDOW", 15*time.Second),
		HeartbeatTimeout: getEnvDuration("HEARTBEAT_TIMEOUT", 10*time.Second),
		RateMin:          getEnvFloat("RATE_MIN", 0),
		RateMax:          getEnvFloat("RATE_MAX", 200),

		AlertBandsFile: getEnv("ALERT_BANDS_FILE", ""),
		AlertCooldown:  getEnvDuration("ALERT_COOLDOWN", 5*time.Minute),

		DataDir:    getEnv("DATA_DIR", "./data/vitals"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/vitalcare.db"),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "vitalcare"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "vitalcare-backend"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicSensor: getEnv("MQTT_TOPIC_SENSOR", "vitalcare/+/sensor"),
		MQTTTopicVitals: getEnv("MQTT_TOPIC_VITALS", "vitalcare/{patient_id}/vitals"),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "vitalcare.vitals"),

		SMSAPIKey:  getEnv("SMS_API_KEY", ""),
		SMSBaseURL: getEnv("SMS_BASE_URL", ""),
		SMSSender:  getEnv("SMS_SENDER", "VTLCRE"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

// getEnvDuration accepts Go duration strings ("250ms", "30s")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}
