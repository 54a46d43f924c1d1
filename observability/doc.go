// Package observability wires OpenTelemetry tracing and metrics into the
// component lifecycle.
//
// Setup installs OTLP exporters per configuration and returns the
// LifecycleMetrics the orchestrator records into:
//
//	p, err := observability.Setup(ctx, cfg.Observability, "orchestrator", version.Version, "production")
//	defer p.Shutdown(ctx)
//	orch := orchestrator.New(orchestrator.WithMetrics(p.Metrics))
//
// Every start, stop, health check and restart runs inside a span named
// component.start, component.stop, component.health_check or
// component.restart.
//
// HealthFromStatus and ServiceHealth turn lifecycle statuses into the
// up/degraded/down view served by the status API.
package observability
