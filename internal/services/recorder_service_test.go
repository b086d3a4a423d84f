package services

import (
	"context"
	"testing"
	"time"

	"vitalcare-backend/internal/models"
)

func TestRecorderServiceWritesToAllRecorders(t *testing.T) {
	csv := &memoryRecorder{name: "csv"}
	broken := &memoryRecorder{name: "clickhouse", err: errStoreDown}
	svc := NewRecorderService(DefaultRecorderServiceConfig(), nil, csv, broken)

	rec := &models.VitalsRecord{
		Patient:  models.Patient{ID: "VCR-1"},
		Snapshot: models.VitalsSnapshot{HeartRate: 72, Status: "Normal", Timestamp: time.Now()},
	}
	if got := svc.processRecord(context.Background(), rec); got != 1 {
		t.Fatalf("written = %d, want 1 (failing recorder must not stop the others)", got)
	}
	if len(csv.rows) != 1 || csv.rows[0].HeartRate != 72 {
		t.Fatalf("unexpected rows %+v", csv.rows)
	}
}

func TestRecorderServiceSubmitDropsWhenFull(t *testing.T) {
	svc := NewRecorderService(RecorderServiceConfig{ChannelSize: 1, WriteTimeout: time.Second}, nil)
	rec := &models.VitalsRecord{Patient: models.Patient{ID: "VCR-1"}}

	if !svc.Submit(rec) {
		t.Fatal("first submit should be accepted")
	}
	if svc.Submit(rec) {
		t.Fatal("second submit should be dropped while the channel is full")
	}
}

func TestRecorderServiceStartConsumesChannel(t *testing.T) {
	csv := &memoryRecorder{name: "csv"}
	svc := NewRecorderService(DefaultRecorderServiceConfig(), nil, csv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	svc.Submit(&models.VitalsRecord{Patient: models.Patient{ID: "VCR-1"}})

	deadline := time.Now().Add(2 * time.Second)
	for {
		csv.mu.Lock()
		n := len(csv.rows)
		csv.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("record was not consumed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}
