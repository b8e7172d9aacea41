package telemetry

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "widgetd/mcp"

// Tracer returns the tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// TracingMiddleware opens one span per MCP method call. Tool names and
// resource URIs are recorded as attributes; tool error results mark the span
// as failed.
func TracingMiddleware(tracer trace.Tracer) mcp.Middleware {
	if tracer == nil {
		tracer = Tracer()
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			ctx, span := tracer.Start(ctx, "mcp "+method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.method", method)),
			)
			defer span.End()

			switch r := req.(type) {
			case *mcp.CallToolRequest:
				if r.Params != nil {
					span.SetAttributes(attribute.String("mcp.tool", r.Params.Name))
				}
			case *mcp.ReadResourceRequest:
				if r.Params != nil {
					span.SetAttributes(attribute.String("mcp.resource_uri", r.Params.URI))
				}
			}

			res, err := next(ctx, method, req)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case isToolError(res):
				span.SetStatus(codes.Error, "tool returned an error result")
			default:
				span.SetStatus(codes.Ok, "")
			}
			return res, err
		}
	}
}

func isToolError(res mcp.Result) bool {
	result, ok := res.(*mcp.CallToolResult)
	return ok && result != nil && result.IsError
}
