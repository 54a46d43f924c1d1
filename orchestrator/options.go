package orchestrator

import (
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/observability"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithName sets the name shown in logs and the status summary.
func WithName(name string) Option {
	return func(o *Orchestrator) { o.name = name }
}

// WithConfig replaces the orchestrator configuration. Unset fields get defaults.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithHealthPollInterval sets how often the health monitor scans.
func WithHealthPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.cfg.HealthPollInterval = d }
}

// WithMonitorJoinTimeout bounds the wait for background work in StopAll.
func WithMonitorJoinTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.cfg.MonitorJoinTimeout = d }
}

// WithRestartWorkers sets how many restarts may run concurrently.
func WithRestartWorkers(n int) Option {
	return func(o *Orchestrator) { o.cfg.RestartWorkers = n }
}

// WithRollbackOnAbort makes StartAll stop already-started components, in
// reverse order, when a required component fails.
func WithRollbackOnAbort(enabled bool) Option {
	return func(o *Orchestrator) { o.cfg.RollbackOnAbort = enabled }
}

// WithLogger sets the logger the orchestrator and its subsystems log through.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.baseLog = l }
}

// WithMetrics records lifecycle metrics into m.
func WithMetrics(m *observability.LifecycleMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithPolicies overrides descriptor settings by component name at Register.
func WithPolicies(policies map[string]component.Policy) Option {
	return func(o *Orchestrator) {
		for name, p := range policies {
			o.policies[name] = p
		}
	}
}

// WithFatalHandler calls fn, on its own goroutine, for every fatal event.
func WithFatalHandler(fn func(FatalEvent)) Option {
	return func(o *Orchestrator) { o.fatalHandler = fn }
}
