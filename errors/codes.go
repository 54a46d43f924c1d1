package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registration and dependency resolution errors
const (
	// ErrCodeDuplicateComponent indicates a component name was registered twice.
	ErrCodeDuplicateComponent ErrorCode = "DUPLICATE_COMPONENT"
	// ErrCodeCircularDependency indicates the dependency graph contains a cycle.
	ErrCodeCircularDependency ErrorCode = "CIRCULAR_DEPENDENCY"
	// ErrCodeUnknownDependency indicates a dependency names an unregistered component.
	ErrCodeUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"
)

// Component lifecycle errors
const (
	// ErrCodeComponentLoad indicates the component factory could not produce an instance.
	ErrCodeComponentLoad ErrorCode = "COMPONENT_LOAD"
	// ErrCodeComponentInit indicates the initialize hook failed or timed out.
	ErrCodeComponentInit ErrorCode = "COMPONENT_INIT"
	// ErrCodeHealthCheck indicates the health-check hook reported unhealthy, failed or timed out.
	ErrCodeHealthCheck ErrorCode = "COMPONENT_HEALTH_CHECK"
	// ErrCodeRestartExhausted indicates a component used up its restart attempts.
	ErrCodeRestartExhausted ErrorCode = "COMPONENT_RESTART_EXHAUSTED"
	// ErrCodeComponentStop indicates the shutdown hook failed or timed out.
	ErrCodeComponentStop ErrorCode = "COMPONENT_STOP"
)

// Generic errors
const (
	// ErrCodeNotFound indicates the requested component is not registered.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTimeout indicates a hook call exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeConflict indicates the operation is not allowed in the current state.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeComponentLoad: true,
	ErrCodeComponentInit: true,
	ErrCodeHealthCheck:   true,
	ErrCodeComponentStop: true,
	ErrCodeTimeout:       true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
