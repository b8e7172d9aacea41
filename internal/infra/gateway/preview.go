package gateway

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"widgetd/internal/domain"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/widgets"
)

// previewSpecs returns one echo tool per manifest entry for exercising
// widgets with arbitrary payloads.
func (h *toolHandlers) previewSpecs(entries []manifest.Entry) []widgets.Spec {
	specs := make([]widgets.Spec, 0, len(entries))
	for _, entry := range entries {
		specs = append(specs, widgets.Spec{
			Widget:   entry.Name,
			ToolName: domain.PreviewToolPrefix + entry.Name,
			Meta: widgets.Meta{
				Title:       fmt.Sprintf("Preview %s widget", entry.Name),
				Description: fmt.Sprintf("Render the %s widget with an arbitrary payload.", entry.Name),
				Annotations: readOnlyAnnotations,
			},
			Handler: h.preview(entry.Name),
		})
	}
	return specs
}

func (h *toolHandlers) preview(widget string) widgets.Handler {
	return widgets.HandlerFor(func(_ context.Context, _ *mcp.CallToolRequest, in map[string]any) (*mcp.CallToolResult, PreviewOutput, error) {
		if in == nil {
			in = map[string]any{}
		}
		out := PreviewOutput{Widget: widget, Payload: in}
		res, err := h.result(fmt.Sprintf("Previewing %s widget", widget), out, resultMeta{})
		return res, out, err
	})
}
