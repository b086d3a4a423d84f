package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg)

	obs.IncCounter(BeatsTotal, 3)
	if got := testutil.ToFloat64(obs.counters[BeatsTotal]); got != 3 {
		t.Fatalf("expected beats counter 3, got %f", got)
	}

	obs.IncCounter(DroppedTotal, 1)
	if got := testutil.ToFloat64(obs.counters[DroppedTotal]); got != 1 {
		t.Fatalf("expected dropped counter 1, got %f", got)
	}

	obs.SetGauge(HeartRateGauge, 72)
	if got := testutil.ToFloat64(obs.gauges[HeartRateGauge]); got != 72 {
		t.Fatalf("expected heart rate gauge 72, got %f", got)
	}

	obs.ObserveLatency(BroadcastLatency, 0.002)
	hCollector := obs.histos[BroadcastLatency].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	// unknown names are ignored
	obs.IncCounter("unknown_total", 1)
	obs.SetGauge("unknown", 1)

	if n, err := testutil.GatherAndCount(reg); err != nil || n != 14 {
		t.Fatalf("GatherAndCount = %d, %v; want 14 metrics", n, err)
	}
}
