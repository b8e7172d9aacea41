package gateway

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/infra/schema"
	"widgetd/internal/infra/widgets"
)

// toolRegistry owns the built tool bindings and their precomputed schemas.
// It is immutable after construction and shared by every connection.
type toolRegistry struct {
	bindings []widgets.Binding
	table    *schema.Table
	logger   *zap.Logger
}

func newToolRegistry(bindings []widgets.Binding, logger *zap.Logger) (*toolRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries := make(map[string]schema.Entry, len(bindings))
	for _, binding := range bindings {
		entry, err := binding.Schemas()
		if err != nil {
			return nil, err
		}
		entries[binding.Name()] = entry
	}
	return &toolRegistry{
		bindings: bindings,
		table:    schema.NewTable(entries),
		logger:   logger.Named("tool_registry"),
	}, nil
}

func (r *toolRegistry) register(server *mcp.Server) {
	for _, binding := range r.bindings {
		if err := binding.Register(server); err != nil {
			r.logger.Error("register tool failed", zap.String("tool", binding.Name()), zap.Error(err))
		}
	}
}

// tools returns the descriptors in registration order.
func (r *toolRegistry) tools() ([]*mcp.Tool, error) {
	out := make([]*mcp.Tool, 0, len(r.bindings))
	for _, binding := range r.bindings {
		tool, err := binding.Tool()
		if err != nil {
			return nil, err
		}
		out = append(out, tool)
	}
	return out, nil
}

// listToolsMiddleware rewrites tools/list results so every schema comes from
// the precomputed table instead of being re-derived per request.
func (r *toolRegistry) listToolsMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			res, err := next(ctx, method, req)
			if err != nil || method != "tools/list" {
				return res, err
			}
			list, ok := res.(*mcp.ListToolsResult)
			if !ok || list == nil {
				return res, err
			}
			out := &mcp.ListToolsResult{
				Meta:       list.Meta,
				NextCursor: list.NextCursor,
				Tools:      make([]*mcp.Tool, 0, len(list.Tools)),
			}
			for _, tool := range list.Tools {
				out.Tools = append(out.Tools, r.describe(tool))
			}
			return out, nil
		}
	}
}

func (r *toolRegistry) describe(tool *mcp.Tool) *mcp.Tool {
	desc := &mcp.Tool{
		Meta:        tool.Meta,
		Annotations: tool.Annotations,
		Description: tool.Description,
		Name:        tool.Name,
		Title:       tool.Title,
	}
	if entry, ok := r.table.Lookup(tool.Name); ok {
		desc.InputSchema = entry.Input
		if entry.Output != nil {
			desc.OutputSchema = entry.Output
		}
		return desc
	}

	desc.InputSchema = tool.InputSchema
	if input, err := schema.Compile(tool.InputSchema); err == nil {
		desc.InputSchema = input
	} else {
		r.logger.Warn("compile input schema failed", zap.String("tool", tool.Name), zap.Error(err))
	}
	if tool.OutputSchema != nil {
		desc.OutputSchema = tool.OutputSchema
		if output, err := schema.Compile(tool.OutputSchema); err == nil {
			desc.OutputSchema = output
		} else {
			r.logger.Warn("compile output schema failed", zap.String("tool", tool.Name), zap.Error(err))
		}
	}
	return desc
}
