package domain

import "time"

// RequestOutcome labels the result of an HTTP request on the protocol path.
type RequestOutcome string

const (
	// OutcomeServed indicates the request was handed to the protocol transport.
	OutcomeServed RequestOutcome = "served"
	// OutcomeRateLimited indicates the limiter rejected the request.
	OutcomeRateLimited RequestOutcome = "rate_limited"
	// OutcomeForbiddenHost indicates DNS-rebinding protection rejected the Host header.
	OutcomeForbiddenHost RequestOutcome = "forbidden_host"
	// OutcomeFailed indicates wiring the connection failed.
	OutcomeFailed RequestOutcome = "failed"
)

// UnknownMetricLabel replaces tool names and resource URIs the server does
// not serve, keeping label cardinality bounded.
const UnknownMetricLabel = "unknown"

// Metrics records server-level signals.
type Metrics interface {
	ObserveRequest(outcome RequestOutcome)
	ObserveToolCall(tool string, duration time.Duration, err error)
	ObserveResourceRead(uri string, err error)
	AddActiveConnections(delta int)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) ObserveRequest(RequestOutcome)                {}
func (NoopMetrics) ObserveToolCall(string, time.Duration, error) {}
func (NoopMetrics) ObserveResourceRead(string, error)            {}
func (NoopMetrics) AddActiveConnections(int)                     {}
