package observability

import (
	"strconv"

	"github.com/kbukum/orchestrator/component"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ServiceHealth describes the overall health of a service and its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component result and degrades the overall status if needed.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		sh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if sh.Status != HealthStatusDown {
			sh.Status = HealthStatusDegraded
		}
	}
}

// HealthFromStatus maps a lifecycle status onto a health result. A required
// component that is not running is down; an optional one only degrades the
// service.
func HealthFromStatus(s component.Status) Health {
	h := Health{
		Name:    s.Name,
		Message: s.ErrorMessage,
		Details: map[string]string{
			"state":         s.State.String(),
			"restart_count": strconv.Itoa(s.RestartCount),
		},
	}
	if s.LastHealthCheck != nil {
		h.Details["last_health_check"] = s.LastHealthCheck.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	switch s.State {
	case component.StateRunning:
		h.Status = HealthStatusUp
	case component.StateInitializing, component.StateRecovering:
		h.Status = HealthStatusDegraded
	default:
		h.Status = HealthStatusDown
		if s.Optional {
			h.Status = HealthStatusDegraded
		}
	}
	return h
}
