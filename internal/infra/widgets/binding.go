package widgets

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/schema"
)

// Handler is a typed tool handler with its argument types erased so that
// tools with different inputs can share one catalogue.
type Handler interface {
	bind(tool *mcp.Tool, widget manifest.Entry, refine func(*jsonschema.Schema)) Binding
}

// HandlerFor wraps a typed handler. The SDK validates arguments against the
// schema inferred from In before fn runs.
func HandlerFor[In, Out any](fn mcp.ToolHandlerFor[In, Out]) Handler {
	return typedHandler[In, Out]{fn: fn}
}

type typedHandler[In, Out any] struct {
	fn mcp.ToolHandlerFor[In, Out]
}

func (h typedHandler[In, Out]) bind(tool *mcp.Tool, widget manifest.Entry, refine func(*jsonschema.Schema)) Binding {
	return &typedBinding[In, Out]{
		template: tool,
		widget:   widget,
		handler:  h.fn,
		refine:   refine,
	}
}

// Binding is a built widget tool: its name, descriptor and handler.
type Binding interface {
	Name() string
	Widget() manifest.Entry
	// Tool returns a copy of the descriptor with compiled schemas attached.
	Tool() (*mcp.Tool, error)
	// Schemas returns the compiled input and output schemas.
	Schemas() (schema.Entry, error)
	// Register adds a fresh copy of the tool to server.
	Register(server *mcp.Server) error
}

type typedBinding[In, Out any] struct {
	template *mcp.Tool
	widget   manifest.Entry
	handler  mcp.ToolHandlerFor[In, Out]
	refine   func(*jsonschema.Schema)

	once     sync.Once
	compiled schema.Entry
	err      error
}

func (b *typedBinding[In, Out]) Name() string {
	return b.template.Name
}

func (b *typedBinding[In, Out]) Widget() manifest.Entry {
	return b.widget
}

func (b *typedBinding[In, Out]) Schemas() (schema.Entry, error) {
	b.once.Do(func() {
		b.compiled, b.err = compileSchemas[In, Out](b.refine)
		if b.err != nil {
			b.err = fmt.Errorf("tool %q: %w", b.template.Name, b.err)
		}
	})
	return b.compiled, b.err
}

func (b *typedBinding[In, Out]) Tool() (*mcp.Tool, error) {
	entry, err := b.Schemas()
	if err != nil {
		return nil, err
	}
	tool := copyTool(b.template)
	tool.InputSchema = entry.Input
	if entry.Output != nil {
		tool.OutputSchema = entry.Output
	}
	return tool, nil
}

func (b *typedBinding[In, Out]) Register(server *mcp.Server) error {
	tool, err := b.Tool()
	if err != nil {
		return err
	}
	mcp.AddTool(server, tool, b.handler)
	return nil
}

func compileSchemas[In, Out any](refine func(*jsonschema.Schema)) (schema.Entry, error) {
	inferred, err := jsonschema.For[In](nil)
	if err != nil {
		return schema.Entry{}, fmt.Errorf("infer input schema: %w", err)
	}
	if refine != nil {
		refine(inferred)
	}
	input, err := schema.Compile(inferred)
	if err != nil {
		return schema.Entry{}, fmt.Errorf("compile input schema: %w", err)
	}
	entry := schema.Entry{Input: input}
	if isEmptyInterface[Out]() {
		return entry, nil
	}
	output, err := schema.For[Out]()
	if err != nil {
		return schema.Entry{}, fmt.Errorf("compile output schema: %w", err)
	}
	entry.Output = output
	return entry, nil
}

func isEmptyInterface[T any]() bool {
	rt := reflect.TypeFor[T]()
	return rt.Kind() == reflect.Interface && rt.NumMethod() == 0
}

func copyTool(src *mcp.Tool) *mcp.Tool {
	tool := *src
	if src.Annotations != nil {
		ann := *src.Annotations
		tool.Annotations = &ann
	}
	return &tool
}
