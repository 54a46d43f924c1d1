// Package errors provides the orchestrator's error taxonomy: structured
// AppError values carrying a machine-readable code, an HTTP status for the
// status API, retryable detection, and component details.
package errors
