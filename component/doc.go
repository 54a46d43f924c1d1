// Package component defines what the orchestrator needs from a managed unit
// and the immutable registration data that describes it.
//
// A component only has to report its name. Everything else is an optional
// capability detected with a type assertion:
//
//   - Initializable: Initialize(ctx) error, called once after construction
//   - Stoppable: Stop(ctx) error, called on shutdown and before a restart
//   - HealthCheckable: HealthCheck(ctx) error, polled by the health monitor
//   - Describable: self-reported summary information
//
// Instances are produced by a Factory supplied at registration, so no
// string-based lookup is involved.
package component
