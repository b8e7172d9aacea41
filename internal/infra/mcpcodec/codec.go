package mcpcodec

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"widgetd/internal/domain"
)

// ToolMetaToMCP encodes tool metadata under the host-recognised keys.
func ToolMetaToMCP(meta domain.ToolMeta) mcp.Meta {
	schemes := meta.SecuritySchemes
	if len(schemes) == 0 {
		schemes = []domain.SecurityScheme{domain.NoAuth}
	}
	visibility := meta.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	out := mcp.Meta{
		domain.MetaSecuritySchemes:  cloneSchemes(schemes),
		domain.MetaOutputTemplate:   meta.OutputTemplate,
		domain.MetaInvoking:         meta.Invoking,
		domain.MetaInvoked:          meta.Invoked,
		domain.MetaWidgetAccessible: meta.WidgetAccessible,
		domain.MetaVisibility:       string(visibility),
	}
	if meta.WidgetDescription != "" {
		out[domain.MetaWidgetDescription] = meta.WidgetDescription
	}
	return out
}

// ToolMetaFromMCP decodes tool metadata, accepting both in-process values and
// values that went through a JSON round trip.
func ToolMetaFromMCP(meta map[string]any) domain.ToolMeta {
	if meta == nil {
		return domain.ToolMeta{}
	}
	out := domain.ToolMeta{
		OutputTemplate:    stringValue(meta[domain.MetaOutputTemplate]),
		Invoking:          stringValue(meta[domain.MetaInvoking]),
		Invoked:           stringValue(meta[domain.MetaInvoked]),
		Visibility:        domain.Visibility(stringValue(meta[domain.MetaVisibility])),
		WidgetDescription: stringValue(meta[domain.MetaWidgetDescription]),
	}
	if accessible, ok := meta[domain.MetaWidgetAccessible].(bool); ok {
		out.WidgetAccessible = accessible
	}
	if raw, ok := meta[domain.MetaSecuritySchemes]; ok && raw != nil {
		var schemes []domain.SecurityScheme
		if err := remarshal(raw, &schemes); err == nil {
			out.SecuritySchemes = schemes
		}
	}
	return out
}

// ResourceMetaToMCP encodes widget resource metadata.
func ResourceMetaToMCP(meta domain.ResourceMeta) mcp.Meta {
	out := mcp.Meta{
		domain.MetaWidgetCSP: map[string]any{
			"connect_domains":  cloneStrings(meta.CSP.ConnectDomains),
			"resource_domains": cloneStrings(meta.CSP.ResourceDomains),
		},
		domain.MetaWidgetBorder: meta.PrefersBorder,
	}
	if meta.Domain != "" {
		out[domain.MetaWidgetDomain] = meta.Domain
	}
	if meta.Description != "" {
		out[domain.MetaWidgetDescription] = meta.Description
	}
	return out
}

// ToolAnnotationsToMCP converts side-effect hints to the wire form.
func ToolAnnotationsToMCP(ann domain.ToolAnnotations, title string) *mcp.ToolAnnotations {
	destructive := ann.Destructive
	openWorld := ann.OpenWorld
	return &mcp.ToolAnnotations{
		DestructiveHint: &destructive,
		IdempotentHint:  ann.Idempotent,
		OpenWorldHint:   &openWorld,
		ReadOnlyHint:    ann.ReadOnly,
		Title:           title,
	}
}

// ToolAnnotationsFromMCP converts wire annotations back; nil pointers read as false.
func ToolAnnotationsFromMCP(ann *mcp.ToolAnnotations) domain.ToolAnnotations {
	if ann == nil {
		return domain.ToolAnnotations{}
	}
	out := domain.ToolAnnotations{
		ReadOnly:   ann.ReadOnlyHint,
		Idempotent: ann.IdempotentHint,
	}
	if ann.DestructiveHint != nil {
		out.Destructive = *ann.DestructiveHint
	}
	if ann.OpenWorldHint != nil {
		out.OpenWorld = *ann.OpenWorldHint
	}
	return out
}

// HashTools returns a deterministic fingerprint for a tool list.
func HashTools(tools []*mcp.Tool) (string, error) {
	hasher := sha256.New()
	for i, tool := range tools {
		if tool == nil {
			continue
		}
		raw, err := json.Marshal(tool)
		if err != nil {
			return "", fmt.Errorf("marshal tool %d: %w", i, err)
		}
		_, _ = hasher.Write(raw)
		_, _ = hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func remarshal(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func cloneSchemes(in []domain.SecurityScheme) []domain.SecurityScheme {
	out := make([]domain.SecurityScheme, len(in))
	for i, scheme := range in {
		out[i] = scheme
		if scheme.Scopes != nil {
			out[i].Scopes = append([]string(nil), scheme.Scopes...)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}
