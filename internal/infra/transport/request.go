package transport

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// ClientKey identifies the caller for rate limiting: the first
// X-Forwarded-For entry, then X-Real-IP, then the socket address.
func ClientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type hostGuard struct {
	hosts map[string]struct{}
}

var loopbackHosts = []string{"localhost", "127.0.0.1", "::1"}

func newHostGuard(allowed []string) *hostGuard {
	if len(allowed) == 0 {
		allowed = loopbackHosts
	}
	g := &hostGuard{hosts: make(map[string]struct{}, len(allowed))}
	for _, host := range allowed {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			g.hosts[host] = struct{}{}
		}
	}
	return g
}

// allowed matches the Host header with or without its port.
func (g *hostGuard) allowed(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if _, ok := g.hosts[host]; ok {
		return true
	}
	name, _, err := net.SplitHostPort(host)
	if err != nil {
		name = strings.Trim(host, "[]")
	}
	_, ok := g.hosts[name]
	return ok
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// responseRecorder remembers whether the response has started.
type responseRecorder struct {
	http.ResponseWriter
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(status int) {
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}

func (r *responseRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		r.wroteHeader = true
		flusher.Flush()
	}
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
