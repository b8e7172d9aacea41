package app

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"widgetd/internal/infra/gateway"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/telemetry"
	"widgetd/internal/infra/transport"
)

const (
	componentHTTP     = "mcp_http"
	componentManifest = "widget_manifest"
	componentWatch    = "widget_watch"
)

var errFallbackManifest = errors.New("widget manifest not found; serving fallback entries")

// Application wires the widget server and its supporting listeners.
type Application struct {
	cfg      ServeConfig
	logger   *zap.Logger
	registry *prometheus.Registry
	health   *telemetry.HealthTracker
	manifest *manifest.Manifest
	catalog  *gateway.Catalog
	server   *transport.HTTPServer
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	ServeConfig ServeConfig
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	Health      *telemetry.HealthTracker
	Manifest    *manifest.Manifest
	Catalog     *gateway.Catalog
	Server      *transport.HTTPServer
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		cfg:      opts.ServeConfig,
		logger:   logger,
		registry: opts.Registry,
		health:   opts.Health,
		manifest: opts.Manifest,
		catalog:  opts.Catalog,
		server:   opts.Server,
	}
}

// Catalog exposes the assembled tool catalog.
func (a *Application) Catalog() *gateway.Catalog {
	return a.catalog
}

// Health exposes the component health tracker.
func (a *Application) Health() *telemetry.HealthTracker {
	return a.health
}

// Run serves until ctx is cancelled or a listener fails.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("configuration loaded",
		zap.String("addr", a.server.Addr()),
		zap.String("environment", a.cfg.Environment),
		zap.String("manifest_policy", string(a.cfg.ManifestPolicy)),
		zap.String("manifest", a.manifest.Source()),
		zap.Int("widgets", a.manifest.Len()),
	)
	if a.cfg.Host != "127.0.0.1" && a.cfg.Host != "localhost" && a.cfg.Host != "::1" && !a.cfg.DNSRebindingProtection {
		a.logger.Warn("listening on a non-loopback host without DNS rebinding protection", zap.String("host", a.cfg.Host))
	}

	if a.manifest.IsFallback() {
		a.health.Set(componentManifest, errFallbackManifest)
	} else {
		a.health.Set(componentManifest, nil)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		a.health.Set(componentHTTP, nil)
		err := a.server.Run(ctx)
		if err != nil {
			a.health.Set(componentHTTP, err)
		}
		return err
	})

	if a.cfg.ObservabilityAddr != "" {
		group.Go(func() error {
			return telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
				Addr:          a.cfg.ObservabilityAddr,
				EnableMetrics: true,
				EnableHealthz: true,
				Health:        a.health,
				Registry:      a.registry,
			}, a.logger)
		})
	}

	if a.cfg.WatchWidgets {
		group.Go(func() error {
			a.health.Set(componentWatch, nil)
			if err := manifest.Watch(ctx, a.cfg.ManifestPath, a.cfg.WidgetsDir, a.logger); err != nil {
				a.logger.Warn("widget watcher stopped", zap.Error(err))
				a.health.Set(componentWatch, err)
			}
			return nil
		})
	}

	return group.Wait()
}
