// Package transport serves MCP over plain HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"widgetd/internal/domain"
	"widgetd/internal/infra/ratelimit"
	"widgetd/internal/infra/telemetry"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second

	rateLimitMessage     = "Rate limit exceeded. Please try again later."
	forbiddenHostMessage = "Forbidden: host not allowed"
	internalMessage      = "Internal server error"
)

// Options configures an HTTPServer.
type Options struct {
	Addr       string
	Path       string
	CORSOrigin string
	// DNSRebindingProtection rejects requests whose Host is not in
	// AllowedHosts.
	DNSRebindingProtection bool
	AllowedHosts           []string
	MaxBodyBytes           int64
	Limiter                *ratelimit.Limiter
	// NewServer returns a fresh MCP server for one request.
	NewServer func() *mcp.Server
	Metrics   domain.Metrics
	Logger    *zap.Logger
	Version   string
}

// HTTPServer routes requests to a per-request MCP server. It owns its
// limiter, so several servers can run side by side.
type HTTPServer struct {
	addr       string
	path       string
	corsOrigin string
	hosts      *hostGuard
	maxBody    int64
	limiter    *ratelimit.Limiter
	newServer  func() *mcp.Server
	metrics    domain.Metrics
	logger     *zap.Logger
	banner     string
}

func NewHTTPServer(opts Options) (*HTTPServer, error) {
	if opts.NewServer == nil {
		return nil, errors.New("mcp server factory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = net.JoinHostPort(domain.DefaultListenHost, strconv.Itoa(domain.DefaultListenPort))
	}
	path := opts.Path
	if path == "" {
		path = domain.DefaultProtocolPath
	}
	origin := opts.CORSOrigin
	if origin == "" {
		origin = domain.DefaultCORSOrigin
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = domain.DefaultMaxBodyBytes
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New(domain.DefaultRateLimitRequests, domain.DefaultRateLimitWindow)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	var hosts *hostGuard
	if opts.DNSRebindingProtection {
		hosts = newHostGuard(opts.AllowedHosts)
	}
	return &HTTPServer{
		addr:       addr,
		path:       path,
		corsOrigin: origin,
		hosts:      hosts,
		maxBody:    maxBody,
		limiter:    limiter,
		newServer:  opts.NewServer,
		metrics:    metrics,
		logger:     logger.Named("http"),
		banner:     fmt.Sprintf("%s %s\nMCP endpoint: POST %s\n", domain.DefaultServerName, opts.Version, path),
	}, nil
}

// ServeHTTP implements the request state machine.
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == s.path && r.Method == http.MethodOptions:
		s.setCORS(w.Header())
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s.banner))
	case r.URL.Path == s.path && (r.Method == http.MethodPost || r.Method == http.MethodGet):
		s.serveProtocol(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *HTTPServer) serveProtocol(w http.ResponseWriter, r *http.Request) {
	key := ClientKey(r)
	ctx, meta := telemetry.EnsureRequestMeta(r.Context(), r.Header.Get(telemetry.RequestIDHeader), key)
	r = r.WithContext(ctx)
	logger := telemetry.LoggerWithRequest(ctx, s.logger)
	w.Header().Set(telemetry.RequestIDHeader, meta.RequestID)

	s.setCORS(w.Header())
	if !s.limiter.Admit(key) {
		s.metrics.ObserveRequest(domain.OutcomeRateLimited)
		logger.Warn("rate limit exceeded")
		w.Header().Set("Retry-After", strconv.Itoa(int(s.limiter.Window().Seconds())))
		writeError(w, http.StatusTooManyRequests, rateLimitMessage)
		return
	}

	if s.hosts != nil && !s.hosts.allowed(r.Host) {
		s.metrics.ObserveRequest(domain.OutcomeForbiddenHost)
		logger.Warn("rejected request for disallowed host", zap.String("host", r.Host))
		writeError(w, http.StatusForbidden, forbiddenHostMessage)
		return
	}
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	rec := &responseRecorder{ResponseWriter: w}
	if err := s.connect(rec, r); err != nil {
		s.metrics.ObserveRequest(domain.OutcomeFailed)
		if rec.wroteHeader {
			logger.Error("mcp request failed after response started", zap.Error(err))
			return
		}
		logger.Error("mcp request failed", zap.Error(err))
		writeError(rec, http.StatusInternalServerError, internalMessage)
		return
	}
	s.metrics.ObserveRequest(domain.OutcomeServed)
}

// connect binds a fresh server to a stateless streamable transport for this
// request. Both are dropped when the request context ends.
func (s *HTTPServer) connect(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic serving mcp request: %v", recovered)
		}
	}()

	server := s.newServer()
	if server == nil {
		return errors.New("mcp server factory returned nil")
	}
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{
		Stateless:    true,
		JSONResponse: true,
	})

	s.metrics.AddActiveConnections(1)
	context.AfterFunc(r.Context(), func() {
		s.metrics.AddActiveConnections(-1)
		telemetry.LoggerWithRequest(r.Context(), s.logger).Debug("mcp connection closed", zap.String("method", r.Method))
	})

	handler.ServeHTTP(w, r)
	return nil
}

func (s *HTTPServer) setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", s.corsOrigin)
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, Mcp-Session-Id, Mcp-Protocol-Version, Last-Event-ID")
	h.Set("Access-Control-Expose-Headers", "Mcp-Session-Id, Retry-After, "+telemetry.RequestIDHeader)
	h.Set("Access-Control-Max-Age", "86400")
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// Run listens on the configured address until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully when ctx is
// cancelled.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("mcp http server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("path", s.path),
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mcp http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("mcp http server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("mcp http server stopped")
		return nil
	}
}
