package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"widgetd/internal/domain"
)

type PrometheusMetrics struct {
	requests          *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	resourceReads     *prometheus.CounterVec
	activeConnections prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetd_http_requests_total",
				Help: "Requests on the MCP endpoint by admission outcome",
			},
			[]string{"outcome"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "widgetd_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"tool", "status"},
		),
		resourceReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetd_resource_reads_total",
				Help: "Widget resource reads",
			},
			[]string{"uri", "status"},
		),
		activeConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "widgetd_active_connections",
				Help: "MCP requests currently bound to a server instance",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveRequest(outcome domain.RequestOutcome) {
	p.requests.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) ObserveToolCall(tool string, duration time.Duration, err error) {
	p.toolCallDuration.WithLabelValues(tool, statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveResourceRead(uri string, err error) {
	p.resourceReads.WithLabelValues(uri, statusLabel(err)).Inc()
}

func (p *PrometheusMetrics) AddActiveConnections(delta int) {
	p.activeConnections.Add(float64(delta))
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
