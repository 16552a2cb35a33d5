package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector defines the interface for collecting synchronization metrics
type Collector interface {
	RecordReconcile(eventType string, outcome string)
	RecordBidOutcome(state string, reason string)
	RecordConnectionState(state string)
	RecordNotification(kind string)
	RecordCacheSize(size int)
}

// Reconcile outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeMalformed = "malformed"
)

// NoOpCollector is a no-op implementation for when metrics aren't needed
type NoOpCollector struct{}

func (NoOpCollector) RecordReconcile(eventType string, outcome string) {}
func (NoOpCollector) RecordBidOutcome(state string, reason string)     {}
func (NoOpCollector) RecordConnectionState(state string)               {}
func (NoOpCollector) RecordNotification(kind string)                   {}
func (NoOpCollector) RecordCacheSize(size int)                         {}

// PrometheusMetrics implements Collector using Prometheus
type PrometheusMetrics struct {
	reconciled      *prometheus.CounterVec
	bidOutcomes     *prometheus.CounterVec
	connectionState *prometheus.GaugeVec
	notifications   *prometheus.CounterVec
	cacheSize       prometheus.Gauge
}

var connectionStates = []string{"DISCONNECTED", "CONNECTING", "CONNECTED", "FAILED"}

// NewPrometheusMetrics creates the collectors and registers them with reg
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livebid",
			Name:      "events_reconciled_total",
			Help:      "Inbound events seen by the auction state cache, by type and outcome.",
		}, []string{"event_type", "outcome"}),
		bidOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livebid",
			Name:      "bid_outcomes_total",
			Help:      "Resolved bid intents by terminal state and reason.",
		}, []string{"state", "reason"}),
		connectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "livebid",
			Name:      "connection_state",
			Help:      "1 for the current channel state, 0 for the others.",
		}, []string{"state"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livebid",
			Name:      "notifications_total",
			Help:      "Notifications pushed to the feed by kind.",
		}, []string{"kind"}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "livebid",
			Name:      "cached_auctions",
			Help:      "Auction records currently held by the state cache.",
		}),
	}

	reg.MustRegister(m.reconciled, m.bidOutcomes, m.connectionState, m.notifications, m.cacheSize)
	return m
}

func (m *PrometheusMetrics) RecordReconcile(eventType string, outcome string) {
	m.reconciled.WithLabelValues(eventType, outcome).Inc()
}

func (m *PrometheusMetrics) RecordBidOutcome(state string, reason string) {
	m.bidOutcomes.WithLabelValues(state, reason).Inc()
}

func (m *PrometheusMetrics) RecordConnectionState(state string) {
	for _, s := range connectionStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.connectionState.WithLabelValues(s).Set(v)
	}
}

func (m *PrometheusMetrics) RecordNotification(kind string) {
	m.notifications.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) RecordCacheSize(size int) {
	m.cacheSize.Set(float64(size))
}
