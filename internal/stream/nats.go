package stream

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"vitalcare-backend/internal/broadcast"
)

// Connect opens a NATS connection that keeps reconnecting in the background
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("vitalcare-backend"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("NATS: Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS: Reconnected to %s", nc.ConnectedUrl())
		}),
	)
}

// conn is the part of *nats.Conn the observer needs
type conn interface {
	Publish(subj string, data []byte) error
	IsConnected() bool
}

// Observer publishes every vitals frame on a fixed subject
type Observer struct {
	nc      conn
	subject string
}

// NewObserver creates a broadcast observer publishing on subject
func NewObserver(nc conn, subject string) *Observer {
	return &Observer{nc: nc, subject: subject}
}

func (o *Observer) Name() string { return "nats" }

func (o *Observer) Active() bool {
	return o.nc.IsConnected()
}

func (o *Observer) Deliver(ctx context.Context, f broadcast.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := o.nc.Publish(o.subject, f.Payload); err != nil {
		return fmt.Errorf("failed to publish vitals on %s: %w", o.subject, err)
	}
	return nil
}
