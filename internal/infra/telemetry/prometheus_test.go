package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widgetd/internal/domain"
)

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveRequest(domain.OutcomeServed)
	m.ObserveToolCall("show_cart", 10*time.Millisecond, nil)
	m.ObserveResourceRead("ui://widget/cart.html", nil)
	m.AddActiveConnections(1)

	metrics, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.GetName())
	}

	assert.Contains(t, names, "widgetd_http_requests_total")
	assert.Contains(t, names, "widgetd_tool_call_duration_seconds")
	assert.Contains(t, names, "widgetd_resource_reads_total")
	assert.Contains(t, names, "widgetd_active_connections")
}

func TestPrometheusMetrics_Counts(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.ObserveRequest(domain.OutcomeServed)
	m.ObserveRequest(domain.OutcomeServed)
	m.ObserveRequest(domain.OutcomeRateLimited)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("served")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("rate_limited")))

	m.ObserveResourceRead("ui://widget/a.html", errors.New("missing"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resourceReads.WithLabelValues("ui://widget/a.html", "error")))

	m.AddActiveConnections(2)
	m.AddActiveConnections(-1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeConnections))
}

func TestPrometheusMetrics_ToolCallStatus(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.ObserveToolCall("place_order", time.Millisecond, nil)
	m.ObserveToolCall("place_order", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.toolCallDuration))
}
