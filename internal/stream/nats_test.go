package stream

import (
	"context"
	"errors"
	"testing"

	"vitalcare-backend/internal/broadcast"
)

type fakeConn struct {
	connected bool
	err       error
	subjects  []string
	payloads  [][]byte
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return nil
}

func (c *fakeConn) IsConnected() bool { return c.connected }

func TestObserverPublishesFrames(t *testing.T) {
	nc := &fakeConn{connected: true}
	o := NewObserver(nc, "vitalcare.vitals")

	if !o.Active() {
		t.Fatal("observer should be active")
	}
	if err := o.Deliver(context.Background(), broadcast.Frame{Payload: []byte(`{"type":"vitals"}`)}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(nc.subjects) != 1 || nc.subjects[0] != "vitalcare.vitals" {
		t.Fatalf("unexpected subjects %v", nc.subjects)
	}
}

func TestObserverErrors(t *testing.T) {
	boom := errors.New("connection closed")
	o := NewObserver(&fakeConn{err: boom}, "s")
	if o.Active() {
		t.Fatal("observer should be inactive while disconnected")
	}
	if err := o.Deliver(context.Background(), broadcast.Frame{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Deliver(ctx, broadcast.Frame{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
