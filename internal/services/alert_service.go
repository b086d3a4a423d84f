package services

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"vitalcare-backend/internal/models"
	"vitalcare-backend/internal/notify"
	"vitalcare-backend/internal/observability"
)

// AlertStore persists alert records
type AlertStore interface {
	Name() string
	SaveAlert(ctx context.Context, rec models.AlertRecord) error
}

// AlertService stores alert records and notifies on critical ones.
//
// An alert is raised on every aggregation cycle while a vital is out of
// band. The service keeps one row per episode: a record is stored when the
// set of abnormal vitals or the severity changes, or after the cooldown.
// Notifications are limited to one per cooldown per patient.
type AlertService struct {
	stores    []AlertStore
	notifiers []notify.Notifier
	obs       observability.Observability
	cooldown  time.Duration
	timeout   time.Duration

	// Input channel (written by the monitor, read by the service)
	AlertChan chan *models.AlertEvent

	mu    sync.Mutex
	state map[string]*episode
}

type episode struct {
	key          string
	lastStored   time.Time
	lastNotified time.Time
}

// AlertServiceConfig holds configuration for alert service
type AlertServiceConfig struct {
	ChannelSize int
	Cooldown    time.Duration
	Timeout     time.Duration
}

// DefaultAlertServiceConfig returns default configuration
func DefaultAlertServiceConfig() AlertServiceConfig {
	return AlertServiceConfig{
		ChannelSize: 16,
		Cooldown:    5 * time.Minute,
		Timeout:     20 * time.Second,
	}
}

// NewAlertService creates a new alert service
func NewAlertService(config AlertServiceConfig, obs observability.Observability, stores []AlertStore, notifiers []notify.Notifier) *AlertService {
	if obs == nil {
		obs = observability.Nop{}
	}
	return &AlertService{
		stores:    stores,
		notifiers: notifiers,
		obs:       obs,
		cooldown:  config.Cooldown,
		timeout:   config.Timeout,
		AlertChan: make(chan *models.AlertEvent, config.ChannelSize),
		state:     make(map[string]*episode),
	}
}

// Submit hands an event to the service without blocking
func (s *AlertService) Submit(ev *models.AlertEvent) bool {
	select {
	case s.AlertChan <- ev:
		return true
	default:
		s.obs.IncCounter(observability.DroppedTotal, 1)
		log.Printf("Warning: Alert channel full, dropping alert for %s", ev.Patient.ID)
		return false
	}
}

// Start processes alert events until ctx is cancelled
func (s *AlertService) Start(ctx context.Context) {
	log.Printf("AlertService: Starting (stores=%d, notifiers=%d, cooldown=%v)...",
		len(s.stores), len(s.notifiers), s.cooldown)

	for {
		select {
		case <-ctx.Done():
			log.Println("AlertService: Shutting down...")
			return
		case ev, ok := <-s.AlertChan:
			if !ok {
				return
			}
			s.processAlert(ctx, ev)
		}
	}
}

// processAlert reports whether the record was stored and whether notifiers ran
func (s *AlertService) processAlert(ctx context.Context, ev *models.AlertEvent) (stored, notified bool) {
	store, notifyNow := s.decide(ev)

	if store {
		s.obs.IncCounter(observability.AlertsTotal, 1)
		log.Printf("AlertService: %s alert for %s: %s", ev.Record.Severity, ev.Patient.ID, ev.Record.Message)
		for _, st := range s.stores {
			sctx, cancel := context.WithTimeout(ctx, s.timeout)
			if err := st.SaveAlert(sctx, ev.Record); err != nil {
				log.Printf("Error saving alert to %s: %v", st.Name(), err)
			}
			cancel()
		}
	}

	if notifyNow {
		for _, n := range s.notifiers {
			nctx, cancel := context.WithTimeout(ctx, s.timeout)
			if err := n.Notify(nctx, *ev); err != nil {
				log.Printf("Error notifying via %s: %v", n.Name(), err)
			} else {
				s.obs.IncCounter(observability.NotificationsTotal, 1)
			}
			cancel()
		}
	}
	return store, notifyNow
}

func (s *AlertService) decide(ev *models.AlertEvent) (store, notifyNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := ev.Record.Timestamp
	ep, ok := s.state[ev.Patient.ID]
	if !ok {
		ep = &episode{}
		s.state[ev.Patient.ID] = ep
	}

	key := episodeKey(ev.Record)
	if key != ep.key || ep.lastStored.IsZero() || at.Sub(ep.lastStored) >= s.cooldown {
		ep.key = key
		ep.lastStored = at
		store = true
	}

	if ev.Record.NeedsNotification() && (ep.lastNotified.IsZero() || at.Sub(ep.lastNotified) >= s.cooldown) {
		ep.lastNotified = at
		notifyNow = true
	}
	return store, notifyNow
}

// episodeKey identifies an alert by severity and the vitals involved
func episodeKey(rec models.AlertRecord) string {
	parts := make([]string, 0, len(rec.Findings)+1)
	for _, f := range rec.Findings {
		parts = append(parts, f.Vital+"="+f.Severity.String())
	}
	sort.Strings(parts)
	return rec.Severity.String() + "|" + strings.Join(parts, ",")
}
