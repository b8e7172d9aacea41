package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"widgetd/internal/domain"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/widgets"
)

const (
	methodListTools    = "tools/list"
	methodCallTool     = "tools/call"
	methodReadResource = "resources/read"
)

var errToolResult = errors.New("tool returned an error result")

// deadlineMiddleware bounds tool calls and resource reads. Work that outlives
// the deadline keeps running but its result is discarded.
func deadlineMiddleware(timeout time.Duration) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if timeout <= 0 || (method != methodCallTool && method != methodReadResource) {
				return next(ctx, method, req)
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type outcome struct {
				res mcp.Result
				err error
			}
			done := make(chan outcome, 1)
			go func() {
				res, err := next(ctx, method, req)
				done <- outcome{res: res, err: err}
			}()

			select {
			case out := <-done:
				return out.res, out.err
			case <-ctx.Done():
				msg := fmt.Sprintf("%s did not finish within %s", method, timeout)
				return nil, domain.E(domain.CodeDeadlineExceeded, method, msg, ctx.Err())
			}
		}
	}
}

// metricLabels holds the tool names and resource URIs the catalog serves.
// Anything else is recorded under domain.UnknownMetricLabel so callers cannot
// mint new series.
type metricLabels struct {
	tools map[string]struct{}
	uris  map[string]struct{}
}

func newMetricLabels(bindings []widgets.Binding, entries []manifest.Entry) metricLabels {
	labels := metricLabels{
		tools: make(map[string]struct{}, len(bindings)),
		uris:  make(map[string]struct{}, len(entries)),
	}
	for _, binding := range bindings {
		labels.tools[binding.Name()] = struct{}{}
	}
	for _, entry := range entries {
		labels.uris[entry.TemplateURI()] = struct{}{}
	}
	return labels
}

func (l metricLabels) tool(name string) string {
	if _, ok := l.tools[name]; ok {
		return name
	}
	return domain.UnknownMetricLabel
}

func (l metricLabels) uri(uri string) string {
	if _, ok := l.uris[uri]; ok {
		return uri
	}
	return domain.UnknownMetricLabel
}

// metricsMiddleware records tool call latency and resource read outcomes.
func metricsMiddleware(metrics domain.Metrics, labels metricLabels) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			switch method {
			case methodCallTool:
				start := time.Now()
				res, err := next(ctx, method, req)
				observed := err
				if result, ok := res.(*mcp.CallToolResult); ok && err == nil && result != nil && result.IsError {
					observed = errToolResult
				}
				metrics.ObserveToolCall(labels.tool(toolName(req)), time.Since(start), observed)
				return res, err
			case methodReadResource:
				res, err := next(ctx, method, req)
				metrics.ObserveResourceRead(labels.uri(resourceURI(req)), err)
				return res, err
			default:
				return next(ctx, method, req)
			}
		}
	}
}

func toolName(req mcp.Request) string {
	if call, ok := req.(*mcp.CallToolRequest); ok && call.Params != nil {
		return call.Params.Name
	}
	return ""
}

func resourceURI(req mcp.Request) string {
	if read, ok := req.(*mcp.ReadResourceRequest); ok && read.Params != nil {
		return read.Params.URI
	}
	return ""
}
