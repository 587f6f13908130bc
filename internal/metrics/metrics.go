package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/pipeline"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EventsDetected        *prometheus.CounterVec
	NotificationsQueued   *prometheus.CounterVec
	NotificationsSent     *prometheus.CounterVec
	NotificationsFailed   *prometheus.CounterVec
	NotificationsSkipped  *prometheus.CounterVec
	DeliveryLatency       *prometheus.HistogramVec
	QueueDepthHigh        prometheus.Gauge
	QueueDepthMedium      prometheus.Gauge
	QueueDepthLow         prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_detected_total",
			Help: "Total number of change events produced by the snapshot differ.",
		}, []string{"entity_type"}),

		NotificationsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_queued_total",
			Help: "Total number of notifications placed on the priority queue.",
		}, []string{"type"}),

		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of successfully delivered notifications.",
		}, []string{"type"}),

		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of terminally failed notifications.",
		}, []string{"type"}),

		NotificationsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_skipped_total",
			Help: "Total number of deliveries skipped because the operation was already in flight.",
		}, []string{"type"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notification_delivery_seconds",
			Help:    "End-to-end delivery latency from dequeue to endpoint ack.",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),

		QueueDepthHigh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth_high",
			Help: "Current number of items in the high-priority bucket.",
		}),
		QueueDepthMedium: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth_medium",
			Help: "Current number of items in the medium-priority bucket.",
		}),
		QueueDepthLow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth_low",
			Help: "Current number of items in the low-priority bucket.",
		}),
	}

	reg.MustRegister(
		m.EventsDetected,
		m.NotificationsQueued,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.NotificationsSkipped,
		m.DeliveryLatency,
		m.QueueDepthHigh,
		m.QueueDepthMedium,
		m.QueueDepthLow,
	)

	return m
}

// ProducerHooks returns the metric callbacks expected by the orchestrator.
// Centralises the prometheus observation calls so the pipeline stays
// import-free.
func (m *Metrics) ProducerHooks() pipeline.ProducerHooks {
	return pipeline.ProducerHooks{
		OnDetected: func(et domain.EntityType) {
			m.EventsDetected.WithLabelValues(string(et)).Inc()
		},
		OnQueued: func(typ domain.EventType) {
			m.NotificationsQueued.WithLabelValues(string(typ)).Inc()
		},
	}
}

// SetQueueDepths refreshes the per-tier depth gauges; called from the depth
// poller in main.
func (m *Metrics) SetQueueDepths(high, medium, low int64) {
	m.QueueDepthHigh.Set(float64(high))
	m.QueueDepthMedium.Set(float64(medium))
	m.QueueDepthLow.Set(float64(low))
}

// ConsumerHooks returns the metric callbacks expected by the consumer pool.
func (m *Metrics) ConsumerHooks() pipeline.ConsumerHooks {
	return pipeline.ConsumerHooks{
		OnDelivered: func(typ domain.EventType, latency time.Duration) {
			m.NotificationsSent.WithLabelValues(string(typ)).Inc()
			m.DeliveryLatency.WithLabelValues(string(typ)).Observe(latency.Seconds())
		},
		OnFailed: func(typ domain.EventType) {
			m.NotificationsFailed.WithLabelValues(string(typ)).Inc()
		},
		OnSkipped: func(typ domain.EventType) {
			m.NotificationsSkipped.WithLabelValues(string(typ)).Inc()
		},
	}
}
