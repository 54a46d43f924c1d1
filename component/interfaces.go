package component

import "context"

// Component is the base contract of a managed unit.
type Component interface {
	// Name returns the name the component was registered under.
	Name() string
}

// Initializable is implemented by components that need setup after construction.
type Initializable interface {
	Initialize(ctx context.Context) error
}

// Stoppable is implemented by components that hold resources to release.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// HealthCheckable is implemented by components that can probe their own health.
// A nil error means healthy.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) error
}

// Factory constructs a component instance. It is called on every start and
// restart, so each call should return a fresh instance.
type Factory func(ctx context.Context) (Component, error)

// Description holds summary information for the status display.
type Description struct {
	// Name is the human-readable display name. If empty, the registered name is used.
	Name string
	// Type categorizes the component: "agent", "scheduler", "analytics", etc.
	Type string
	// Details is a one-liner shown next to the component in the summary.
	Details string
}

// Describable is optionally implemented by components to self-report what
// they are in the status summary.
type Describable interface {
	Describe() Description
}

// Capabilities lists which optional interfaces c implements.
func Capabilities(c Component) []string {
	var caps []string
	if _, ok := c.(Initializable); ok {
		caps = append(caps, "initialize")
	}
	if _, ok := c.(HealthCheckable); ok {
		caps = append(caps, "health_check")
	}
	if _, ok := c.(Stoppable); ok {
		caps = append(caps, "stop")
	}
	return caps
}
