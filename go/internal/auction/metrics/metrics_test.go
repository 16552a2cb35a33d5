package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.RecordReconcile("bidUpdate", OutcomeApplied)
	m.RecordReconcile("bidUpdate", OutcomeApplied)
	m.RecordReconcile("bidUpdate", OutcomeIgnored)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reconciled.WithLabelValues("bidUpdate", OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconciled.WithLabelValues("bidUpdate", OutcomeIgnored)))

	m.RecordConnectionState("CONNECTED")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionState.WithLabelValues("CONNECTED")))
	m.RecordConnectionState("FAILED")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.connectionState.WithLabelValues("CONNECTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionState.WithLabelValues("FAILED")))

	m.RecordCacheSize(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.cacheSize))
}
