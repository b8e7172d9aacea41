// Package widgets builds tool descriptors for widget-backed tools.
package widgets

import (
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/domain"
	"widgetd/internal/infra/manifest"
	"widgetd/internal/infra/mcpcodec"
)

// Meta is the caller-supplied part of a widget tool descriptor. Zero values
// take the builder defaults.
type Meta struct {
	Title             string
	Description       string
	Invoking          string
	Invoked           string
	Visibility        domain.Visibility
	WidgetAccessible  *bool
	SecuritySchemes   []domain.SecurityScheme
	WidgetDescription string
	Annotations       domain.ToolAnnotations
	// RefineInput adjusts the inferred input schema, e.g. to add enums.
	RefineInput func(*jsonschema.Schema)
}

// Spec is one element of a batch build.
type Spec struct {
	Widget   string
	ToolName string
	Meta     Meta
	Handler  Handler
}

// Builder resolves widgets against the manifest and assembles descriptors.
type Builder struct {
	manifest *manifest.Manifest
	policy   domain.ManifestPolicy
	logger   *zap.Logger
}

func NewBuilder(m *manifest.Manifest, policy domain.ManifestPolicy, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = domain.ManifestPolicyStrict
	}
	return &Builder{
		manifest: m,
		policy:   policy,
		logger:   logger.Named("widget_builder"),
	}
}

// Build returns the binding for one widget tool. The tool is named after the
// widget unless toolName overrides it.
func (b *Builder) Build(widgetName string, meta Meta, handler Handler, toolName ...string) (Binding, error) {
	if handler == nil {
		return nil, fmt.Errorf("widget %q: handler is required", widgetName)
	}
	if b.manifest == nil {
		return nil, errors.New("widget manifest is not loaded")
	}
	entry, err := b.manifest.Resolve(widgetName, b.policy, b.logger)
	if err != nil {
		return nil, err
	}

	name := widgetName
	if len(toolName) > 0 && toolName[0] != "" {
		name = toolName[0]
	}
	title := meta.Title
	if title == "" {
		title = name
	}
	invoking := meta.Invoking
	if invoking == "" {
		invoking = fmt.Sprintf("Running %s...", title)
	}
	invoked := meta.Invoked
	if invoked == "" {
		invoked = fmt.Sprintf("Completed %s", title)
	}
	visibility := meta.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	accessible := true
	if meta.WidgetAccessible != nil {
		accessible = *meta.WidgetAccessible
	}
	schemes := meta.SecuritySchemes
	if len(schemes) == 0 {
		schemes = []domain.SecurityScheme{domain.NoAuth}
	}

	tool := &mcp.Tool{
		Name:        name,
		Title:       title,
		Description: meta.Description,
		Annotations: mcpcodec.ToolAnnotationsToMCP(meta.Annotations, title),
		Meta: mcpcodec.ToolMetaToMCP(domain.ToolMeta{
			SecuritySchemes:   schemes,
			OutputTemplate:    entry.TemplateURI(),
			Invoking:          invoking,
			Invoked:           invoked,
			WidgetAccessible:  accessible,
			Visibility:        visibility,
			WidgetDescription: meta.WidgetDescription,
		}),
	}
	return handler.bind(tool, entry, meta.RefineInput), nil
}

// BuildAll builds every spec in order. Tool names must be unique.
func (b *Builder) BuildAll(specs []Spec) ([]Binding, error) {
	out := make([]Binding, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		binding, err := b.Build(spec.Widget, spec.Meta, spec.Handler, spec.ToolName)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[binding.Name()]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", binding.Name())
		}
		seen[binding.Name()] = struct{}{}
		out = append(out, binding)
	}
	return out, nil
}

// Bool returns a pointer to v, for optional Meta flags.
func Bool(v bool) *bool {
	return &v
}
