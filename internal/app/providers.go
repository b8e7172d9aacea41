package app

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"widgetd/internal/domain"
	"widgetd/internal/infra/gateway"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/ratelimit"
	"widgetd/internal/infra/telemetry"
	"widgetd/internal/infra/transport"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	registry.MustRegister(prometheus.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewManifest(cfg ServeConfig, logger *zap.Logger) (*manifest.Manifest, error) {
	return manifest.Load(cfg.ManifestPath, logger)
}

func NewContentLoader(cfg ServeConfig, logger *zap.Logger) *manifest.ContentLoader {
	return manifest.NewContentLoader(cfg.WidgetsDir, cfg.WidgetHTMLPath, logger)
}

func NewLimiter(cfg ServeConfig) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitWindow)
}

func NewCatalog(
	cfg ServeConfig,
	widgets *manifest.Manifest,
	content *manifest.ContentLoader,
	metrics domain.Metrics,
	logger *zap.Logger,
) (*gateway.Catalog, error) {
	return gateway.NewCatalog(gateway.Options{
		Name:           domain.DefaultServerName,
		Version:        cfg.Version,
		Manifest:       widgets,
		Content:        content,
		Policy:         cfg.ManifestPolicy,
		WorkerDomain:   cfg.WorkerDomain,
		WidgetDomain:   cfg.WidgetDomain,
		HandlerTimeout: cfg.HandlerTimeout,
		Metrics:        metrics,
		Middlewares:    []mcp.Middleware{telemetry.TracingMiddleware(nil)},
		Logger:         logger,
	})
}

func NewHTTPServer(
	cfg ServeConfig,
	catalog *gateway.Catalog,
	limiter *ratelimit.Limiter,
	metrics domain.Metrics,
	logger *zap.Logger,
) (*transport.HTTPServer, error) {
	return transport.NewHTTPServer(transport.Options{
		Addr:                   cfg.Addr(),
		Path:                   domain.DefaultProtocolPath,
		CORSOrigin:             cfg.CORSOrigin,
		DNSRebindingProtection: cfg.DNSRebindingProtection,
		AllowedHosts:           cfg.AllowedHosts,
		MaxBodyBytes:           domain.DefaultMaxBodyBytes,
		Limiter:                limiter,
		NewServer:              catalog.NewServer,
		Metrics:                metrics,
		Logger:                 logger,
		Version:                cfg.Version,
	})
}
