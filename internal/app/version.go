package app

// Version is the semantic version of widgetd, set at build time via -ldflags.
var Version = "dev"
