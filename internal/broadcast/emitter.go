package broadcast

import (
	"context"
	"log"
	"time"

	"vitalcare-backend/internal/observability"
	"vitalcare-backend/internal/session"
)

// Frame is one serialized vitals message addressed to every observer
type Frame struct {
	PatientID string
	Payload   []byte
	At        time.Time
}

// Observer receives vitals frames. Active reports whether anybody is
// listening; inactive observers are skipped.
type Observer interface {
	Name() string
	Active() bool
	Deliver(ctx context.Context, f Frame) error
}

type pending struct {
	cur       session.Current
	patientID string
}

// Emitter hands committed cycles from the monitor loop to observers.
// Publish never blocks: a newer cycle replaces one not yet delivered.
type Emitter struct {
	observers      []Observer
	queue          chan pending
	obs            observability.Observability
	deliverTimeout time.Duration
}

// NewEmitter creates an emitter for the given observers
func NewEmitter(obs observability.Observability, observers ...Observer) *Emitter {
	if obs == nil {
		obs = observability.Nop{}
	}
	return &Emitter{
		observers:      observers,
		queue:          make(chan pending, 1),
		obs:            obs,
		deliverTimeout: 2 * time.Second,
	}
}

// AddObserver registers an observer before Start is called
func (e *Emitter) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// Publish queues cur for delivery, replacing any undelivered cycle
func (e *Emitter) Publish(cur session.Current, patientID string) {
	item := pending{cur: cur, patientID: patientID}
	select {
	case e.queue <- item:
		return
	default:
	}
	// latest wins
	select {
	case <-e.queue:
	default:
	}
	select {
	case e.queue <- item:
	default:
	}
}

// Start delivers queued cycles until ctx is cancelled
func (e *Emitter) Start(ctx context.Context) {
	log.Printf("Emitter: Starting with %d observers...", len(e.observers))
	for {
		select {
		case <-ctx.Done():
			log.Println("Emitter: Shutting down...")
			return
		case item := <-e.queue:
			e.deliver(ctx, item)
		}
	}
}

// deliver serializes once and fans out to active observers
func (e *Emitter) deliver(ctx context.Context, item pending) int {
	active := make([]Observer, 0, len(e.observers))
	for _, o := range e.observers {
		if o.Active() {
			active = append(active, o)
		}
	}
	if len(active) == 0 {
		return 0
	}

	start := time.Now()
	payload, err := EncodeVitals(item.cur)
	if err != nil {
		log.Printf("Emitter: %v", err)
		return 0
	}
	frame := Frame{PatientID: item.patientID, Payload: payload, At: item.cur.Snapshot.Timestamp}

	delivered := 0
	for _, o := range active {
		dctx, cancel := context.WithTimeout(ctx, e.deliverTimeout)
		err := o.Deliver(dctx, frame)
		cancel()
		if err != nil {
			e.obs.IncCounter(observability.BroadcastErrors, 1)
			log.Printf("Emitter: delivery to %s failed: %v", o.Name(), err)
			continue
		}
		delivered++
	}
	e.obs.IncCounter(observability.BroadcastsTotal, float64(delivered))
	e.obs.ObserveLatency(observability.BroadcastLatency, time.Since(start).Seconds())
	return delivered
}
