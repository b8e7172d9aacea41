package transport

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widgetd/internal/domain"
	"widgetd/internal/infra/ratelimit"
	"widgetd/internal/infra/telemetry"
)

type echoArgs struct {
	Text string `json:"text"`
}

type echoResult struct {
	Echo string `json:"echo"`
}

func newEchoServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0.1.0"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "echo"}, func(_ context.Context, _ *mcp.CallToolRequest, in echoArgs) (*mcp.CallToolResult, echoResult, error) {
		return nil, echoResult{Echo: in.Text}, nil
	})
	return server
}

type countingMetrics struct {
	domain.NoopMetrics
	mu       sync.Mutex
	outcomes map[domain.RequestOutcome]int
}

func (m *countingMetrics) ObserveRequest(outcome domain.RequestOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[domain.RequestOutcome]int{}
	}
	m.outcomes[outcome]++
}

func (m *countingMetrics) count(outcome domain.RequestOutcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[outcome]
}

func newTestServer(t *testing.T, mutate ...func(*Options)) *HTTPServer {
	t.Helper()
	opts := Options{
		NewServer: newEchoServer,
		Logger:    zap.NewNop(),
		Version:   "test",
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	srv, err := NewHTTPServer(opts)
	require.NoError(t, err)
	return srv
}

func TestNewHTTPServerRequiresFactory(t *testing.T) {
	_, err := NewHTTPServer(Options{})
	require.Error(t, err)
}

func TestDefaultsBindLoopback(t *testing.T) {
	srv := newTestServer(t)
	assert.Equal(t, "127.0.0.1:8000", srv.Addr())
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.CORSOrigin = "https://chat.example.com" })

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/mcp", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	methods := rec.Header().Get("Access-Control-Allow-Methods")
	for _, method := range []string{"POST", "GET", "OPTIONS"} {
		assert.Contains(t, methods, method)
	}
	assert.Equal(t, "https://chat.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBanner(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "POST /mcp")
}

func TestUnknownRoutes(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/other"},
		{http.MethodPut, "/mcp"},
		{http.MethodDelete, "/mcp"},
		{http.MethodPost, "/"},
		{http.MethodOptions, "/"},
	} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRateLimitRejectsAfterCeiling(t *testing.T) {
	metrics := &countingMetrics{}
	srv := newTestServer(t, func(o *Options) {
		o.Limiter = ratelimit.New(100, 60*time.Second)
		o.Metrics = metrics
	})

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.NotEqual(t, http.StatusTooManyRequests, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Rate limit exceeded. Please try again later."}`, rec.Body.String())
	assert.Equal(t, 1, metrics.count(domain.OutcomeRateLimited))

	other := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	other.Header.Set("X-Forwarded-For", "198.51.100.1")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, other)
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitResponseCarriesCORS(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.CORSOrigin = "https://chat.example.com"
		o.Limiter = ratelimit.New(1, 30*time.Second)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
		req.Header.Set("X-Forwarded-For", "203.0.113.9")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if i == 0 {
			require.NotEqual(t, http.StatusTooManyRequests, rec.Code)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "https://chat.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "30", rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	}
}

func TestStatelessGetIsRejected(t *testing.T) {
	metrics := &countingMetrics{}
	srv := newTestServer(t, func(o *Options) { o.Metrics = metrics })

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, metrics.count(domain.OutcomeServed))
}

func TestDNSRebindingProtection(t *testing.T) {
	metrics := &countingMetrics{}
	srv := newTestServer(t, func(o *Options) {
		o.DNSRebindingProtection = true
		o.AllowedHosts = []string{"widgets.example.com"}
		o.Metrics = metrics
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	req.Host = "evil.example.net"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Equal(t, 1, metrics.count(domain.OutcomeForbiddenHost))

	req = httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	req.Host = "widgets.example.com:8443"
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.NotContains(t, rec.Body.String(), forbiddenHostMessage)
	assert.Equal(t, 1, metrics.count(domain.OutcomeForbiddenHost))
}

func TestFactoryFailureReturns500(t *testing.T) {
	metrics := &countingMetrics{}
	srv := newTestServer(t, func(o *Options) {
		o.NewServer = func() *mcp.Server { return nil }
		o.Metrics = metrics
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Equal(t, 1, metrics.count(domain.OutcomeFailed))
}

func TestFactoryPanicReturns500(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.NewServer = func() *mcp.Server { panic("boom") }
	})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEndToEndToolCall(t *testing.T) {
	ctx := context.Background()
	metrics := &countingMetrics{}
	srv := newTestServer(t, func(o *Options) { o.Metrics = metrics })
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL + "/mcp"}, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, tools.Tools, 1)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "hi"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, map[string]any{"echo": "hi"}, res.StructuredContent)
	assert.Positive(t, metrics.count(domain.OutcomeServed))
}

func TestClientKey(t *testing.T) {
	for _, tc := range []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1", "X-Real-IP": "10.0.0.2"}, "10.0.0.3:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "10.0.0.3:1234", "10.0.0.2"},
		{"socket host", nil, "10.0.0.3:1234", "10.0.0.3"},
		{"socket without port", nil, "unix", "unix"},
		{"empty forwarded entry", map[string]string{"X-Forwarded-For": " , 10.0.0.1"}, "10.0.0.3:1234", "10.0.0.3"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			req.RemoteAddr = tc.remote
			for key, value := range tc.headers {
				req.Header.Set(key, value)
			}
			assert.Equal(t, tc.want, ClientKey(req))
		})
	}
}

func TestHostGuard(t *testing.T) {
	guard := newHostGuard(nil)
	assert.True(t, guard.allowed("localhost:8000"))
	assert.True(t, guard.allowed("127.0.0.1"))
	assert.True(t, guard.allowed("[::1]:8000"))
	assert.False(t, guard.allowed("example.com"))

	custom := newHostGuard([]string{" Widgets.Example.com ", "api.example.com:8443"})
	assert.True(t, custom.allowed("widgets.example.com"))
	assert.True(t, custom.allowed("api.example.com:8443"))
	assert.False(t, custom.allowed("localhost"))
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, func(o *Options) {
		o.Limiter = ratelimit.New(1, time.Minute)
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
	req.Header.Set(telemetry.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(telemetry.RequestIDHeader))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(telemetry.RequestIDHeader))
}
