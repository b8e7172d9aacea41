package domain

import (
	"fmt"
	"strings"
)

// Visibility controls whether a tool is offered to the model or only callable from widgets.
type Visibility string

const (
	// VisibilityPublic exposes the tool to the model.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate hides the tool from the model; widgets can still call it.
	VisibilityPrivate Visibility = "private"
)

// ManifestPolicy decides what happens when a widget is missing from the manifest.
type ManifestPolicy string

const (
	// ManifestPolicyStrict fails fast on unknown widgets.
	ManifestPolicyStrict ManifestPolicy = "strict"
	// ManifestPolicyDegrade logs and substitutes a fallback entry.
	ManifestPolicyDegrade ManifestPolicy = "degrade"
)

// PolicyForEnvironment maps a deployment environment name to a manifest policy.
func PolicyForEnvironment(env string) ManifestPolicy {
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		return ManifestPolicyDegrade
	}
	return ManifestPolicyStrict
}

// ParseManifestPolicy parses an explicit policy name.
func ParseManifestPolicy(raw string) (ManifestPolicy, error) {
	switch ManifestPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case ManifestPolicyStrict:
		return ManifestPolicyStrict, nil
	case ManifestPolicyDegrade:
		return ManifestPolicyDegrade, nil
	default:
		return "", fmt.Errorf("%w: manifest policy %q (want strict or degrade)", ErrInvalidArgument, raw)
	}
}

// SecurityScheme declares how a tool call is authorised.
type SecurityScheme struct {
	Type   string   `json:"type"`
	Scopes []string `json:"scopes,omitempty"`
}

// NoAuth is the default scheme for tools that need no credentials.
var NoAuth = SecurityScheme{Type: "noauth"}

// ToolMeta is the host-facing metadata attached to every widget tool.
type ToolMeta struct {
	SecuritySchemes   []SecurityScheme
	OutputTemplate    string
	Invoking          string
	Invoked           string
	WidgetAccessible  bool
	Visibility        Visibility
	WidgetDescription string
}

// WidgetCSP lists the origins a widget may reach.
type WidgetCSP struct {
	ConnectDomains  []string `json:"connect_domains"`
	ResourceDomains []string `json:"resource_domains"`
}

// ResourceMeta is the metadata attached to widget resources and their contents.
type ResourceMeta struct {
	CSP           WidgetCSP
	Domain        string
	Description   string
	PrefersBorder bool
}

// ToolAnnotations describes the side effects of a tool.
type ToolAnnotations struct {
	ReadOnly    bool
	Destructive bool
	OpenWorld   bool
	Idempotent  bool
}

// WidgetTemplateURI returns the resource URI for a manifest URI.
func WidgetTemplateURI(manifestURI string) string {
	return WidgetURIPrefix + manifestURI
}
