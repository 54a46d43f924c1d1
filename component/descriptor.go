package component

import (
	"time"

	"github.com/kbukum/orchestrator/validation"
)

// Descriptor defaults.
const (
	DefaultMaxRestartAttempts  = 3
	DefaultRestartDelay        = 5 * time.Second
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultTimeout             = 30 * time.Second
)

// Descriptor is the registration record of a component. The orchestrator
// keeps its own copy; changing a Descriptor after Register has no effect.
type Descriptor struct {
	Name         string   `mapstructure:"name" validate:"required,component_name"`
	Factory      Factory  `mapstructure:"-" validate:"required"`
	Dependencies []string `mapstructure:"depends_on"`

	// Optional components never abort startup and are never escalated as fatal.
	Optional    bool `mapstructure:"optional"`
	AutoRestart bool `mapstructure:"auto_restart"`

	// MaxRestartAttempts of 0 is replaced by the default; disable restarts
	// with AutoRestart=false instead.
	MaxRestartAttempts  int           `mapstructure:"max_restart_attempts" validate:"gte=0"`
	RestartDelay        time.Duration `mapstructure:"restart_delay" validate:"gte=0"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval" validate:"gte=0"`
	Timeout             time.Duration `mapstructure:"timeout" validate:"gte=0"`

	Metadata map[string]string `mapstructure:"metadata"`
}

// ApplyDefaults fills unset limits and durations.
func (d *Descriptor) ApplyDefaults() {
	if d.MaxRestartAttempts == 0 {
		d.MaxRestartAttempts = DefaultMaxRestartAttempts
	}
	if d.RestartDelay == 0 {
		d.RestartDelay = DefaultRestartDelay
	}
	if d.HealthCheckInterval == 0 {
		d.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if d.Timeout == 0 {
		d.Timeout = DefaultTimeout
	}
}

// Validate checks the descriptor's own fields. Dependencies are checked
// by the resolver at StartAll: an unknown name or a self-dependency is
// reported there, the latter as the smallest cycle.
func (d *Descriptor) Validate() error {
	return validation.Validate(d)
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	d.Dependencies = append([]string(nil), d.Dependencies...)
	if d.Metadata != nil {
		md := make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			md[k] = v
		}
		d.Metadata = md
	}
	return d
}

// Policy overrides descriptor settings from configuration. Nil fields keep
// the value supplied in code.
type Policy struct {
	Optional            *bool          `yaml:"optional" mapstructure:"optional"`
	AutoRestart         *bool          `yaml:"auto_restart" mapstructure:"auto_restart"`
	MaxRestartAttempts  *int           `yaml:"max_restart_attempts" mapstructure:"max_restart_attempts"`
	RestartDelay        *time.Duration `yaml:"restart_delay" mapstructure:"restart_delay"`
	HealthCheckInterval *time.Duration `yaml:"health_check_interval" mapstructure:"health_check_interval"`
	Timeout             *time.Duration `yaml:"timeout" mapstructure:"timeout"`
	DependsOn           []string       `yaml:"depends_on" mapstructure:"depends_on"`
}

// WithPolicy returns a copy of d with every non-nil policy field applied.
func (d Descriptor) WithPolicy(p Policy) Descriptor {
	out := d.Clone()
	if p.Optional != nil {
		out.Optional = *p.Optional
	}
	if p.AutoRestart != nil {
		out.AutoRestart = *p.AutoRestart
	}
	if p.MaxRestartAttempts != nil {
		out.MaxRestartAttempts = *p.MaxRestartAttempts
	}
	if p.RestartDelay != nil {
		out.RestartDelay = *p.RestartDelay
	}
	if p.HealthCheckInterval != nil {
		out.HealthCheckInterval = *p.HealthCheckInterval
	}
	if p.Timeout != nil {
		out.Timeout = *p.Timeout
	}
	if p.DependsOn != nil {
		out.Dependencies = append([]string(nil), p.DependsOn...)
	}
	return out
}

// Option configures a Descriptor built with NewDescriptor.
type Option func(*Descriptor)

// NewDescriptor builds a descriptor with auto-restart enabled and default limits.
func NewDescriptor(name string, factory Factory, opts ...Option) Descriptor {
	d := Descriptor{
		Name:        name,
		Factory:     factory,
		AutoRestart: true,
	}
	for _, opt := range opts {
		opt(&d)
	}
	d.ApplyDefaults()
	return d
}

// DependsOn declares the components that must be running first.
func DependsOn(names ...string) Option {
	return func(d *Descriptor) { d.Dependencies = append(d.Dependencies, names...) }
}

// Optional marks the component as optional.
func Optional() Option {
	return func(d *Descriptor) { d.Optional = true }
}

// NoAutoRestart disables health-triggered restarts.
func NoAutoRestart() Option {
	return func(d *Descriptor) { d.AutoRestart = false }
}

// MaxRestarts sets the restart attempt limit.
func MaxRestarts(n int) Option {
	return func(d *Descriptor) { d.MaxRestartAttempts = n }
}

// RestartDelay sets the pause between stopping and restarting.
func RestartDelay(delay time.Duration) Option {
	return func(d *Descriptor) { d.RestartDelay = delay }
}

// HealthInterval sets how often the component is probed.
func HealthInterval(interval time.Duration) Option {
	return func(d *Descriptor) { d.HealthCheckInterval = interval }
}

// Timeout bounds every hook call of the component.
func Timeout(timeout time.Duration) Option {
	return func(d *Descriptor) { d.Timeout = timeout }
}

// WithMetadata attaches a label shown in the status summary.
func WithMetadata(key, value string) Option {
	return func(d *Descriptor) {
		if d.Metadata == nil {
			d.Metadata = make(map[string]string)
		}
		d.Metadata[key] = value
	}
}
