package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/domain"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/mcpcodec"
)

// resourceRegistry exposes one widget resource per manifest entry.
type resourceRegistry struct {
	entries []manifest.Entry
	content *manifest.ContentLoader
	meta    mcp.Meta
	logger  *zap.Logger
}

func newResourceRegistry(entries []manifest.Entry, content *manifest.ContentLoader, meta domain.ResourceMeta, logger *zap.Logger) *resourceRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &resourceRegistry{
		entries: entries,
		content: content,
		meta:    mcpcodec.ResourceMetaToMCP(meta),
		logger:  logger.Named("resource_registry"),
	}
}

func (r *resourceRegistry) resources() []*mcp.Resource {
	out := make([]*mcp.Resource, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, &mcp.Resource{
			Meta:        r.meta,
			Description: fmt.Sprintf("%s widget markup", entry.Name),
			MIMEType:    domain.WidgetMIMEType,
			Name:        entry.Name,
			Title:       entry.Name,
			URI:         entry.TemplateURI(),
		})
	}
	return out
}

func (r *resourceRegistry) register(server *mcp.Server) {
	for i, resource := range r.resources() {
		server.AddResource(resource, r.handler(r.entries[i]))
	}
}

// handler reads the markup on every call so rebuilt bundles are served
// without a restart.
func (r *resourceRegistry) handler(entry manifest.Entry) mcp.ResourceHandler {
	uri := entry.TemplateURI()
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := r.content.Read(ctx, entry)
		if err != nil {
			r.logger.Error("read widget content failed",
				zap.String("widget", entry.Name),
				zap.String("uri", uri),
				zap.Error(err),
			)
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				Meta:     r.meta,
				URI:      uri,
				MIMEType: domain.WidgetMIMEType,
				Text:     string(data),
			}},
		}, nil
	}
}

// resourceMeta builds the CSP block, adding the worker domain to both
// connect and resource origins when configured.
func resourceMeta(workerDomain, widgetDomain string) domain.ResourceMeta {
	meta := domain.ResourceMeta{
		CSP: domain.WidgetCSP{
			ConnectDomains:  []string{},
			ResourceDomains: []string{},
		},
		Domain:        originOf(widgetDomain),
		PrefersBorder: true,
	}
	if origin := originOf(workerDomain); origin != "" {
		meta.CSP.ConnectDomains = append(meta.CSP.ConnectDomains, origin)
		meta.CSP.ResourceDomains = append(meta.CSP.ResourceDomains, origin)
	}
	return meta
}

func originOf(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}
