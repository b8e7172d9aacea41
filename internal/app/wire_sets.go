//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var WidgetSet = wire.NewSet(
	NewManifest,
	NewContentLoader,
	NewCatalog,
)

var TransportSet = wire.NewSet(
	NewLimiter,
	NewHTTPServer,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	WidgetSet,
	TransportSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
