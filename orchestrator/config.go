package orchestrator

import (
	"time"

	"github.com/kbukum/orchestrator/validation"
)

// Config defaults.
const (
	DefaultHealthPollInterval = 10 * time.Second
	DefaultMonitorJoinTimeout = 5 * time.Second
	DefaultRestartWorkers     = 4
	DefaultFatalBuffer        = 16
)

// Config tunes the orchestrator itself. Per-component settings live on the
// descriptors and their policies.
type Config struct {
	// HealthPollInterval is how often the health monitor wakes to look for
	// components whose health check is due.
	HealthPollInterval time.Duration `yaml:"health_poll_interval" mapstructure:"health_poll_interval"`
	// MonitorJoinTimeout bounds how long StopAll waits for the health monitor
	// and in-flight restarts before stopping components anyway.
	MonitorJoinTimeout time.Duration `yaml:"monitor_join_timeout" mapstructure:"monitor_join_timeout"`
	// RestartWorkers is the number of restarts that may run at once.
	RestartWorkers  int  `yaml:"restart_workers" mapstructure:"restart_workers"`
	RollbackOnAbort bool `yaml:"rollback_on_abort" mapstructure:"rollback_on_abort"`
	// FatalBuffer is the capacity of the Fatal channel.
	FatalBuffer int `yaml:"fatal_buffer" mapstructure:"fatal_buffer"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.HealthPollInterval == 0 {
		c.HealthPollInterval = DefaultHealthPollInterval
	}
	if c.MonitorJoinTimeout == 0 {
		c.MonitorJoinTimeout = DefaultMonitorJoinTimeout
	}
	if c.RestartWorkers == 0 {
		c.RestartWorkers = DefaultRestartWorkers
	}
	if c.FatalBuffer == 0 {
		c.FatalBuffer = DefaultFatalBuffer
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	v := validation.New()
	v.Positive("health_poll_interval", c.HealthPollInterval)
	v.Positive("monitor_join_timeout", c.MonitorJoinTimeout)
	v.Check(c.RestartWorkers > 0, "restart_workers", "must be greater than zero")
	v.Check(c.FatalBuffer > 0, "fatal_buffer", "must be greater than zero")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
