package app

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"widgetd/internal/domain"
)

// ServeConfig is the resolved runtime configuration.
type ServeConfig struct {
	Host                   string
	Port                   int
	CORSOrigin             string
	DNSRebindingProtection bool
	AllowedHosts           []string
	WidgetsDir             string
	ManifestPath           string
	WidgetHTMLPath         string
	WorkerDomain           string
	WidgetDomain           string
	Environment            string
	ManifestPolicy         domain.ManifestPolicy
	RateLimitRequests      int
	RateLimitWindow        time.Duration
	HandlerTimeout         time.Duration
	ObservabilityAddr      string
	WatchWidgets           bool
	Version                string
}

// Addr is the protocol listener address.
func (c ServeConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// configKeys maps viper keys to the environment variables that override them.
var configKeys = []struct {
	key string
	env string
	def any
}{
	{"host", "HOST", domain.DefaultListenHost},
	{"port", "PORT", domain.DefaultListenPort},
	{"corsOrigin", "CORS_ORIGIN", domain.DefaultCORSOrigin},
	{"dnsRebindingProtection", "ENABLE_DNS_REBINDING_PROTECTION", false},
	{"allowedHosts", "ALLOWED_HOSTS", ""},
	{"widgetsDir", "WIDGETS_DIR", domain.DefaultWidgetsDir},
	{"manifestPath", "WIDGET_MANIFEST_PATH", ""},
	{"widgetHtmlPath", "WIDGET_HTML_PATH", ""},
	{"workerDomain", "WORKER_DOMAIN", ""},
	{"widgetDomain", "WIDGET_DOMAIN", ""},
	{"environment", "APP_ENV", domain.DefaultEnvironment},
	{"manifestPolicy", "MANIFEST_POLICY", ""},
	{"rateLimit.requests", "RATE_LIMIT_REQUESTS", domain.DefaultRateLimitRequests},
	{"rateLimit.windowSeconds", "RATE_LIMIT_WINDOW_SECONDS", int(domain.DefaultRateLimitWindow / time.Second)},
	{"handlerTimeoutSeconds", "HANDLER_TIMEOUT_SECONDS", domain.DefaultHandlerTimeoutSeconds},
	{"observability.addr", "OBSERVABILITY_ADDR", ""},
	{"watchWidgets", "WATCH_WIDGETS", false},
}

// flagKeys binds cobra flags onto viper keys. Flags only win when set.
var flagKeys = map[string]string{
	"host":          "host",
	"port":          "port",
	"widgets-dir":   "widgetsDir",
	"observability": "observability.addr",
	"watch":         "watchWidgets",
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	for _, k := range configKeys {
		v.SetDefault(k.key, k.def)
		_ = v.BindEnv(k.key, k.env)
	}
	return v
}

// LoadServeConfig resolves configuration from defaults, an optional config
// file, the environment and flags, in increasing order of precedence.
func LoadServeConfig(configPath string, flags *pflag.FlagSet) (ServeConfig, error) {
	v := newConfigViper()

	if strings.TrimSpace(configPath) != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return ServeConfig{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}
	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return ServeConfig{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	return decodeServeConfig(v)
}

func decodeServeConfig(v *viper.Viper) (ServeConfig, error) {
	cfg := ServeConfig{
		Host:                   strings.TrimSpace(v.GetString("host")),
		Port:                   v.GetInt("port"),
		CORSOrigin:             strings.TrimSpace(v.GetString("corsOrigin")),
		DNSRebindingProtection: v.GetBool("dnsRebindingProtection"),
		AllowedHosts:           stringList(v.Get("allowedHosts")),
		WidgetsDir:             strings.TrimSpace(v.GetString("widgetsDir")),
		ManifestPath:           strings.TrimSpace(v.GetString("manifestPath")),
		WidgetHTMLPath:         strings.TrimSpace(v.GetString("widgetHtmlPath")),
		WorkerDomain:           strings.TrimSpace(v.GetString("workerDomain")),
		WidgetDomain:           strings.TrimSpace(v.GetString("widgetDomain")),
		Environment:            strings.TrimSpace(v.GetString("environment")),
		RateLimitRequests:      v.GetInt("rateLimit.requests"),
		RateLimitWindow:        time.Duration(v.GetInt("rateLimit.windowSeconds")) * time.Second,
		HandlerTimeout:         time.Duration(v.GetInt("handlerTimeoutSeconds")) * time.Second,
		ObservabilityAddr:      strings.TrimSpace(v.GetString("observability.addr")),
		WatchWidgets:           v.GetBool("watchWidgets"),
		Version:                Version,
	}

	var errs []error
	if cfg.Host == "" {
		cfg.Host = domain.DefaultListenHost
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", cfg.Port))
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = domain.DefaultCORSOrigin
	}
	if cfg.WidgetsDir == "" {
		cfg.WidgetsDir = domain.DefaultWidgetsDir
	}
	if cfg.ManifestPath == "" {
		cfg.ManifestPath = filepath.Join(cfg.WidgetsDir, domain.DefaultManifestFile)
	}
	if cfg.WidgetHTMLPath == "" {
		cfg.WidgetHTMLPath = filepath.Join(cfg.WidgetsDir, domain.DefaultWidgetHTMLFile)
	}
	if cfg.Environment == "" {
		cfg.Environment = domain.DefaultEnvironment
	}
	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Errorf("rate limit requests must be positive, got %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if cfg.HandlerTimeout < 0 {
		errs = append(errs, errors.New("handler timeout must not be negative"))
	}

	if raw := strings.TrimSpace(v.GetString("manifestPolicy")); raw != "" {
		policy, err := domain.ParseManifestPolicy(raw)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.ManifestPolicy = policy
	} else {
		cfg.ManifestPolicy = domain.PolicyForEnvironment(cfg.Environment)
	}

	if len(errs) > 0 {
		return ServeConfig{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// stringList accepts either a YAML list or a comma separated string.
func stringList(raw any) []string {
	var items []string
	switch value := raw.(type) {
	case nil:
	case string:
		items = strings.Split(value, ",")
	case []string:
		items = value
	case []any:
		for _, item := range value {
			items = append(items, fmt.Sprint(item))
		}
	default:
		items = []string{fmt.Sprint(value)}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
