package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/orchestrator/observability"
	"github.com/kbukum/orchestrator/orchestrator"
	"github.com/kbukum/orchestrator/statusapi"
)

// InfrastructureInfo describes a piece of process infrastructure shown in
// the startup summary.
type InfrastructureInfo struct {
	Name    string
	Details string
	Enabled bool
}

// Summary renders the application startup summary.
type Summary struct {
	serviceName     string
	version         string
	environment     string
	startupDuration time.Duration
	infrastructure  []InfrastructureInfo
}

// NewSummary creates a new startup summary.
func NewSummary(serviceName, version, environment string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		environment: environment,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackInfrastructure adds an infrastructure line to the summary.
func (s *Summary) TrackInfrastructure(name, details string, enabled bool) {
	s.infrastructure = append(s.infrastructure, InfrastructureInfo{Name: name, Details: details, Enabled: enabled})
}

// Display writes the summary: header, infrastructure, status API routes,
// then the orchestrator's component tree. api may be nil.
func (s *Summary) Display(w io.Writer, orch *orchestrator.Orchestrator, api *statusapi.Server, obs observability.Config) {
	fmt.Fprintf(w, "\n🚀 %s v%s (%s) started in %.2fs\n\n",
		s.serviceName, s.version, s.environment, s.startupDuration.Seconds())

	infra := append([]InfrastructureInfo(nil), s.infrastructure...)
	if api != nil {
		infra = append(infra, InfrastructureInfo{Name: "Status API", Details: api.Addr(), Enabled: true})
	} else {
		infra = append(infra, InfrastructureInfo{Name: "Status API", Details: "disabled"})
	}
	infra = append(infra,
		InfrastructureInfo{Name: "Tracing", Details: endpointOrDisabled(obs.Tracing.Enabled, obs.Tracing.Endpoint), Enabled: obs.Tracing.Enabled},
		InfrastructureInfo{Name: "Metrics", Details: endpointOrDisabled(obs.Metrics.Enabled, obs.Metrics.Endpoint), Enabled: obs.Metrics.Enabled},
	)

	fmt.Fprintf(w, "📊 Infrastructure\n")
	for i, inf := range infra {
		prefix := "├──"
		if i == len(infra)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(w, "   %s %s %s: %s\n", prefix, statusIcon(inf.Enabled), inf.Name, inf.Details)
	}

	if api != nil {
		routes := api.Routes()
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			prefix := "├──"
			if i == len(routes)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(w, "   %s %s\n", prefix, r)
		}
	}

	orch.PrintStatusSummary(w)
}

func endpointOrDisabled(enabled bool, endpoint string) string {
	if !enabled {
		return "disabled"
	}
	return endpoint
}

func statusIcon(enabled bool) string {
	if enabled {
		return "✅"
	}
	return "⏸️"
}
