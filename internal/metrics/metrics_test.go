package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/metrics"
)

func TestHooksDriveInstruments(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	ph := m.ProducerHooks()
	ph.OnDetected(domain.EntityOrder)
	ph.OnDetected(domain.EntityOrder)
	ph.OnQueued(domain.EventNewOrder)

	ch := m.ConsumerHooks()
	ch.OnDelivered(domain.EventNewOrder, 50*time.Millisecond)
	ch.OnFailed(domain.EventNewOrder)
	ch.OnSkipped(domain.EventNewOrder)

	if got := testutil.ToFloat64(m.EventsDetected.WithLabelValues("order")); got != 2 {
		t.Fatalf("expected 2 detected events, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsQueued.WithLabelValues("new_order")); got != 1 {
		t.Fatalf("expected 1 queued, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsSent.WithLabelValues("new_order")); got != 1 {
		t.Fatalf("expected 1 sent, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsFailed.WithLabelValues("new_order")); got != 1 {
		t.Fatalf("expected 1 failed, got %v", got)
	}
	if got := testutil.ToFloat64(m.NotificationsSkipped.WithLabelValues("new_order")); got != 1 {
		t.Fatalf("expected 1 skipped, got %v", got)
	}
}

func TestSetQueueDepths(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.SetQueueDepths(3, 2, 1)

	if got := testutil.ToFloat64(m.QueueDepthHigh); got != 3 {
		t.Fatalf("expected high depth 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueueDepthMedium); got != 2 {
		t.Fatalf("expected medium depth 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueueDepthLow); got != 1 {
		t.Fatalf("expected low depth 1, got %v", got)
	}
}
