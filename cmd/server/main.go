package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vitalcare-backend/internal/alerts"
	"vitalcare-backend/internal/broadcast"
	"vitalcare-backend/internal/database"
	"vitalcare-backend/internal/estimate"
	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/mqtt"
	"vitalcare-backend/internal/notify"
	"vitalcare-backend/internal/observability"
	"vitalcare-backend/internal/sensor"
	"vitalcare-backend/internal/server"
	"vitalcare-backend/internal/services"
	"vitalcare-backend/internal/session"
	"vitalcare-backend/internal/storage"
	"vitalcare-backend/internal/stream"
	"vitalcare-backend/internal/web"
	"vitalcare-backend/pkg/config"
)

func main() {
	log.Println("Starting VitalCare Rural monitor...")

	// Load configuration
	cfg := config.Load()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs := observability.NewPromObs(reg)

	sess := session.New(time.Now())

	// === Local storage (mandatory) ===
	sqliteStore, err := storage.NewSQLite(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	csvRecorder, err := storage.NewCSVRecorder(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize CSV recorder: %v", err)
	}

	patientStores := []services.PatientStore{sqliteStore}
	alertStores := []services.AlertStore{sqliteStore}
	recorders := []services.VitalsRecorder{csvRecorder}

	// === ClickHouse archive (optional) ===
	var archive *database.ClickHouseDB
	if cfg.ClickHouseAddr != "" {
		archive, err = database.NewClickHouseDB(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass)
		if err != nil {
			log.Printf("Warning: ClickHouse disabled: %v", err)
			archive = nil
		} else {
			defer archive.Close()
			patientStores = append(patientStores, archive)
			alertStores = append(alertStores, archive)
			recorders = append(recorders, archive)
		}
	}

	// === Patient registry ===
	patients := services.NewPatientService(sess, patientStores...)
	if err := patients.Restore(ctx, sqliteStore); err != nil {
		log.Printf("Warning: %v", err)
	}

	// === Alert bands ===
	bands := alerts.DefaultBands()
	if cfg.AlertBandsFile != "" {
		bands, err = alerts.LoadBands(cfg.AlertBandsFile)
		if err != nil {
			log.Fatalf("Failed to load alert bands: %v", err)
		}
		log.Printf("Loaded alert bands from %s", cfg.AlertBandsFile)
	}
	evaluator := alerts.NewEvaluator(bands)

	// === Estimator for blood pressure and SpO2 ===
	var estimator estimate.Estimator
	switch cfg.Estimator {
	case "none":
		estimator = estimate.None{}
	default:
		estimator = estimate.NewSimulated(seedOr(cfg.EstimatorSeed))
	}

	// === Sensor source ===
	var (
		source      sensor.Source
		remote      *sensor.Remote
		readingChan chan *models.RemoteReading
	)
	switch cfg.SensorSource {
	case "remote":
		remote = sensor.NewRemote(cfg.RemoteStaleAfter)
		readingChan = make(chan *models.RemoteReading, 100)
		go remote.Consume(ctx, readingChan)
		source = remote
	default:
		if cfg.SensorSource != "simulated" {
			log.Printf("Warning: unknown SENSOR_SOURCE %q, using simulated", cfg.SensorSource)
		}
		log.Printf("Sensor source is SIMULATED at %.0f BPM", cfg.SimHeartRate)
		source = sensor.NewSimulated(sensor.SimulatedConfig{
			HeartRate: cfg.SimHeartRate,
			LeadOff:   cfg.SimLeadOff,
			Seed:      time.Now().UnixNano(),
			Noise:     0.02,
		})
	}
	reader := sensor.NewReader(source, cfg.ADCMax)

	// === Broadcast observers ===
	hub := broadcast.NewHub(func() ([]byte, error) {
		p, ok := sess.Patient()
		return broadcast.EncodeInit(p, ok)
	}, obs)
	emitter := broadcast.NewEmitter(obs, hub)

	integrations := map[string]func() bool{
		"csv":        csvRecorder.Ready,
		"sqlite":     func() bool { return true },
		"clickhouse": func() bool { return archive != nil },
	}

	// === MQTT (optional) ===
	if cfg.MQTTBroker != "" {
		subscriberConfig := mqtt.SubscriberConfig{SensorTopic: cfg.MQTTTopicSensor}
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			// subscriptions do not survive a clean-session reconnect
			OnConnect: func(c paho.Client) {
				if readingChan == nil {
					return
				}
				if err := mqtt.NewSubscriber(c, subscriberConfig, readingChan).SubscribeAll(); err != nil {
					log.Printf("Failed to subscribe to MQTT topics: %v", err)
				}
			},
		})
		if err != nil {
			log.Printf("Warning: MQTT disabled: %v", err)
			integrations["mqtt"] = func() bool { return false }
		} else {
			defer mqttClient.Close()
			emitter.AddObserver(mqtt.NewPublisher(mqttClient.GetNativeClient(), mqtt.PublisherConfig{VitalsTopic: cfg.MQTTTopicVitals}))
			integrations["mqtt"] = mqttClient.IsConnected
		}
	}

	// === NATS (optional) ===
	if cfg.NATSURL != "" {
		nc, err := stream.Connect(cfg.NATSURL)
		if err != nil {
			log.Printf("Warning: NATS disabled: %v", err)
			integrations["nats"] = func() bool { return false }
		} else {
			defer nc.Close()
			emitter.AddObserver(stream.NewObserver(nc, cfg.NATSSubject))
			integrations["nats"] = nc.IsConnected
		}
	}

	// === Notifiers ===
	notifiers := []notify.Notifier{notify.NewBuzzer()}
	smsClient := notify.NewSMSClient(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender)
	if smsClient.Configured() {
		notifiers = append(notifiers, notify.NewSMSNotifier(smsClient, cfg.ClinicLocation))
	} else {
		log.Println("SMS_API_KEY not set, SMS alerts disabled")
	}
	integrations["sms"] = smsClient.Configured

	// === Services ===
	recorderService := services.NewRecorderService(services.DefaultRecorderServiceConfig(), obs, recorders...)

	alertConfig := services.DefaultAlertServiceConfig()
	alertConfig.Cooldown = cfg.AlertCooldown
	alertService := services.NewAlertService(alertConfig, obs, alertStores, notifiers)

	monitor := services.NewMonitor(services.MonitorConfigFrom(cfg), services.MonitorDeps{
		Session:   sess,
		Reader:    reader,
		Estimator: estimator,
		Evaluator: evaluator,
		Publisher: emitter,
		Records:   recorderService,
		Alerts:    alertService,
		Obs:       obs,
	})

	// === HTTP ===
	dashboard, err := web.NewDashboard(func() web.PageData {
		return web.PageData{
			Title:              "VitalCare Rural",
			ClinicLocation:     cfg.ClinicLocation,
			EstimatesSimulated: estimator.Simulated(),
			SourceName:         reader.SourceName(),
			UpdateIntervalMs:   cfg.UpdateInterval.Milliseconds(),
		}
	})
	if err != nil {
		log.Fatalf("Failed to load dashboard: %v", err)
	}

	deps := server.Deps{
		Session:            sess,
		Patients:           patients,
		Reader:             reader,
		Alerts:             sqliteStore,
		Hub:                hub,
		Dashboard:          dashboard,
		Metrics:            promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Estimator:          estimator.Name(),
		EstimatesSimulated: estimator.Simulated(),
		Integrations:       integrations,
	}
	if remote != nil {
		deps.Remote = remote
	}
	if archive != nil {
		deps.Summaries = archive
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewServer(deps).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go recorderService.Start(ctx)
	go alertService.Start(ctx)
	go emitter.Start(ctx)
	go monitor.Run(ctx)

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// === Log startup info ===
	log.Println("=== VitalCare Rural monitor is running ===")
	log.Printf("Source: %s, estimator: %s (simulated=%v)", reader.SourceName(), estimator.Name(), estimator.Simulated())
	log.Printf("Timing: sample=%v, update=%v, persist=%v", cfg.SampleInterval, cfg.UpdateInterval, cfg.PersistInterval)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping services...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	cancel()

	// Give services time to finish processing
	time.Sleep(500 * time.Millisecond)

	log.Println("Shutdown complete. Goodbye!")
}

// seedOr returns seed, or a time based one when seed is zero
func seedOr(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
