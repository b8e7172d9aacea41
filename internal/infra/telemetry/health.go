package telemetry

import (
	"sort"
	"sync"
	"time"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthReport is served on /healthz.
type HealthReport struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
}

type ComponentHealth struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HealthTracker records the last known state of long-running components.
type HealthTracker struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	now        func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		components: make(map[string]ComponentHealth),
		now:        time.Now,
	}
}

// Set marks a component healthy when err is nil and degraded otherwise.
func (t *HealthTracker) Set(name string, err error) {
	state := ComponentHealth{
		Name:      name,
		Status:    healthOK,
		UpdatedAt: t.now(),
	}
	if err != nil {
		state.Status = healthDegraded
		state.Error = err.Error()
	}
	t.mu.Lock()
	t.components[name] = state
	t.mu.Unlock()
}

func (t *HealthTracker) Report() HealthReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report := HealthReport{Status: healthOK}
	for _, state := range t.components {
		if state.Status != healthOK {
			report.Status = healthDegraded
		}
		report.Components = append(report.Components, state)
	}
	sort.Slice(report.Components, func(i, j int) bool {
		return report.Components[i].Name < report.Components[j].Name
	})
	return report
}
