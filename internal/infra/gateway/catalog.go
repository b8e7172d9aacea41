// Package gateway assembles the widget tools and resources served over MCP.
package gateway

import (
	"errors"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/domain"
	"widgetd/internal/infra/hashutil"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/schema"
	"widgetd/internal/infra/widgets"
)

// Options configures a Catalog.
type Options struct {
	Name           string
	Version        string
	Manifest       *manifest.Manifest
	Content        *manifest.ContentLoader
	Policy         domain.ManifestPolicy
	WorkerDomain   string
	WidgetDomain   string
	HandlerTimeout time.Duration
	Metrics        domain.Metrics
	// Middlewares wrap every server in order, outermost first.
	Middlewares []mcp.Middleware
	Now         func() time.Time
	NewID       func() string
	Logger      *zap.Logger
}

// Catalog holds everything needed to stand up an MCP server. It is built
// once at startup and is read-only afterwards, so NewServer may be called
// concurrently.
type Catalog struct {
	name        string
	version     string
	timeout     time.Duration
	metrics     domain.Metrics
	middlewares []mcp.Middleware
	tools       *toolRegistry
	etag        string
	resources   *resourceRegistry
	labels      metricLabels
	logger      *zap.Logger
}

func NewCatalog(opts Options) (*Catalog, error) {
	if opts.Manifest == nil {
		return nil, errors.New("widget manifest is required")
	}
	if opts.Content == nil {
		return nil, errors.New("widget content loader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("catalog")
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	name := opts.Name
	if name == "" {
		name = domain.DefaultServerName
	}

	handlers := newToolHandlers(opts.Now, opts.NewID, logger)
	builder := widgets.NewBuilder(opts.Manifest, opts.Policy, logger)

	defs := handlers.catalogue()
	specs := make([]widgets.Spec, 0, len(defs)+opts.Manifest.Len())
	for _, def := range defs {
		specs = append(specs, widgets.Spec{
			Widget:   def.widget,
			ToolName: def.id.String(),
			Meta:     def.meta,
			Handler:  def.handler,
		})
	}
	entries := opts.Manifest.Entries()
	specs = append(specs, handlers.previewSpecs(entries)...)

	bindings, err := builder.BuildAll(specs)
	if err != nil {
		return nil, err
	}
	tools, err := newToolRegistry(bindings, logger)
	if err != nil {
		return nil, err
	}
	advertised, err := tools.tools()
	if err != nil {
		return nil, err
	}

	served := resourceEntries(entries, bindings)
	resources := newResourceRegistry(served, opts.Content, resourceMeta(opts.WorkerDomain, opts.WidgetDomain), logger)

	catalog := &Catalog{
		name:        name,
		version:     opts.Version,
		timeout:     opts.HandlerTimeout,
		metrics:     metrics,
		middlewares: opts.Middlewares,
		tools:       tools,
		etag:        hashutil.ToolETag(logger, advertised),
		resources:   resources,
		labels:      newMetricLabels(bindings, served),
		logger:      logger,
	}
	logger.Info("catalog assembled",
		zap.Int("tools", len(bindings)),
		zap.Int("resources", len(served)),
		zap.Bool("fallback_manifest", opts.Manifest.IsFallback()),
		zap.String("etag", catalog.etag),
	)
	return catalog, nil
}

// resourceEntries adds the fallback entries synthesised for widgets missing
// from the manifest, so every advertised output template resolves.
func resourceEntries(entries []manifest.Entry, bindings []widgets.Binding) []manifest.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]manifest.Entry, 0, len(entries))
	for _, entry := range entries {
		seen[entry.URI] = true
		out = append(out, entry)
	}
	for _, binding := range bindings {
		entry := binding.Widget()
		if !entry.IsFallback() || seen[entry.URI] {
			continue
		}
		seen[entry.URI] = true
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewServer returns a fresh server with every tool and resource registered.
func (c *Catalog) NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    c.name,
		Version: c.version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
	})
	middlewares := make([]mcp.Middleware, 0, len(c.middlewares)+3)
	middlewares = append(middlewares, metricsMiddleware(c.metrics, c.labels))
	middlewares = append(middlewares, c.middlewares...)
	middlewares = append(middlewares, deadlineMiddleware(c.timeout), c.tools.listToolsMiddleware())
	server.AddReceivingMiddleware(middlewares...)

	c.resources.register(server)
	c.tools.register(server)
	return server
}

// Tools returns the tool descriptors as advertised to clients.
func (c *Catalog) Tools() ([]*mcp.Tool, error) {
	return c.tools.tools()
}

// ETag fingerprints the advertised tool list.
func (c *Catalog) ETag() string {
	return c.etag
}

// Resources returns the widget resource descriptors.
func (c *Catalog) Resources() []*mcp.Resource {
	return c.resources.resources()
}

// Schemas returns the precomputed schema table.
func (c *Catalog) Schemas() *schema.Table {
	return c.tools.table
}
