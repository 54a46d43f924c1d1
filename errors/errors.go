package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified orchestrator error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status the status API answers with for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Lifecycle error constructors ---

// DuplicateComponent reports a second registration of the same name.
func DuplicateComponent(name string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateComponent, Message: fmt.Sprintf("component %q is already registered", name),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"component": name},
	}
}

// CircularDependency reports a dependency cycle. The chain starts and ends
// with the same component, e.g. [a b a].
func CircularDependency(chain []string) *AppError {
	return &AppError{
		Code: ErrCodeCircularDependency, Message: "circular dependency: " + strings.Join(chain, " -> "),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"cycle": chain},
	}
}

// UnknownDependency reports a dependency on a component that was never registered.
func UnknownDependency(name, dependency string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownDependency, Message: fmt.Sprintf("component %q depends on unregistered component %q", name, dependency),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"component": name, "dependency": dependency},
	}
}

// ComponentLoad reports a factory that failed to produce an instance.
func ComponentLoad(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeComponentLoad, Message: fmt.Sprintf("failed to construct component %q", name),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"component": name}, Cause: cause,
	}
}

// ComponentInit reports an initialize hook that raised or timed out.
func ComponentInit(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeComponentInit, Message: fmt.Sprintf("failed to initialize component %q", name),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"component": name}, Cause: cause,
	}
}

// HealthCheck reports a failed health probe.
func HealthCheck(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeHealthCheck, Message: fmt.Sprintf("health check failed for component %q", name),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"component": name}, Cause: cause,
	}
}

// RestartExhausted reports a component that used all its restart attempts.
// It is fatal to the system only when the component is not optional.
func RestartExhausted(name string, attempts int, optional bool) *AppError {
	return &AppError{
		Code:       ErrCodeRestartExhausted,
		Message:    fmt.Sprintf("component %q exhausted %d restart attempts", name, attempts),
		HTTPStatus: http.StatusServiceUnavailable,
		Details: map[string]any{
			"component": name,
			"attempts":  attempts,
			"optional":  optional,
			"fatal":     !optional,
		},
	}
}

// ComponentStop reports a shutdown hook that raised or timed out.
func ComponentStop(name string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeComponentStop, Message: fmt.Sprintf("failed to stop component %q", name),
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"component": name}, Cause: cause,
	}
}

// --- Generic constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	msg := fmt.Sprintf("%s not found", resource)
	if id != "" {
		msg = fmt.Sprintf("%s %q not found", resource, id)
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: msg,
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Timeout creates a new AppError for a call that exceeded its deadline.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Conflict creates a new AppError for an operation not allowed in the current state.
func Conflict(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: reason,
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// --- Matchers ---

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsCircularDependency reports whether err is a CIRCULAR_DEPENDENCY error.
func IsCircularDependency(err error) bool { return HasCode(err, ErrCodeCircularDependency) }

// IsDuplicateComponent reports whether err is a DUPLICATE_COMPONENT error.
func IsDuplicateComponent(err error) bool { return HasCode(err, ErrCodeDuplicateComponent) }

// IsRestartExhausted reports whether err is a COMPONENT_RESTART_EXHAUSTED error.
func IsRestartExhausted(err error) bool { return HasCode(err, ErrCodeRestartExhausted) }

// IsTimeout reports whether err is a TIMEOUT error.
func IsTimeout(err error) bool { return HasCode(err, ErrCodeTimeout) }
