package domain

import "time"

const (
	DefaultListenHost            = "127.0.0.1"
	DefaultListenPort            = 8000
	DefaultProtocolPath          = "/mcp"
	DefaultCORSOrigin            = "*"
	DefaultRateLimitRequests     = 100
	DefaultRateLimitWindow       = 60 * time.Second
	DefaultHandlerTimeoutSeconds = 10
	DefaultMaxBodyBytes          = 1 << 20
	DefaultEnvironment           = "development"
	DefaultWidgetsDir            = "dist/widgets"
	DefaultManifestFile          = "manifest.json"
	DefaultWidgetHTMLFile        = "index.html"
	DefaultServerName            = "widgetd"
)

const (
	// WidgetURIPrefix prefixes every widget resource URI and output template.
	WidgetURIPrefix = "ui://widget/"
	// WidgetMIMEType is the MIME type hosts expect for widget markup.
	WidgetMIMEType = "text/html+skybridge"
	// PreviewToolPrefix names the auto-generated per-widget preview tools.
	PreviewToolPrefix = "widget_preview_"
	// FallbackURISuffix marks manifest entries synthesised without a build manifest.
	FallbackURISuffix = ".fallback"
	// FallbackHash is the content hash recorded for synthesised entries.
	FallbackHash = "fallback"
)

// Metadata keys understood by widget-rendering hosts.
const (
	MetaSecuritySchemes   = "securitySchemes"
	MetaOutputTemplate    = "openai/outputTemplate"
	MetaInvoking          = "openai/toolInvocation/invoking"
	MetaInvoked           = "openai/toolInvocation/invoked"
	MetaWidgetAccessible  = "openai/widgetAccessible"
	MetaVisibility        = "openai/visibility"
	MetaWidgetDescription = "openai/widgetDescription"
	MetaWidgetCSP         = "openai/widgetCSP"
	MetaWidgetDomain      = "openai/widgetDomain"
	MetaWidgetBorder      = "openai/widgetPrefersBorder"
)

// Keys of the caller-visible result metadata.
const (
	ResultMetaSessionID     = "sessionId"
	ResultMetaAuthenticated = "authenticated"
	ResultMetaTimestamp     = "timestamp"
	ResultMetaExpiresAt     = "expiresAt"
)
