package observability

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/orchestrator/validation"
)

// Config is the observability section of the service configuration.
type Config struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig enables span export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig enables metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills unset endpoints and rates.
func (c *Config) ApplyDefaults() {
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}
}

// Validate checks the enabled sections.
func (c *Config) Validate() error {
	v := validation.New()
	v.Check(c.Tracing.SampleRate >= 0 && c.Tracing.SampleRate <= 1, "tracing.sample_rate", "must be between 0 and 1")
	if c.Tracing.Enabled {
		v.Required("tracing.endpoint", c.Tracing.Endpoint)
	}
	if c.Metrics.Enabled {
		v.Required("metrics.endpoint", c.Metrics.Endpoint)
		v.Positive("metrics.interval", c.Metrics.Interval)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Provider bundles what Setup installed.
type Provider struct {
	Metrics   *LifecycleMetrics
	shutdowns []func(context.Context) error
}

// Shutdown flushes and stops every installed provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(p.shutdowns) - 1; i >= 0; i-- {
		if err := p.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup installs the enabled exporters and creates the lifecycle
// instruments. With metrics disabled the instruments record into the
// global no-op provider.
func Setup(ctx context.Context, cfg Config, service, version, environment string) (*Provider, error) {
	p := &Provider{}

	if cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, &TracerConfig{
			ServiceName:    service,
			ServiceVersion: version,
			Environment:    environment,
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return nil, err
		}
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
	}

	if cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, &MeterConfig{
			ServiceName:    service,
			ServiceVersion: version,
			Environment:    environment,
			Endpoint:       cfg.Metrics.Endpoint,
			Insecure:       cfg.Metrics.Insecure,
			Interval:       cfg.Metrics.Interval,
		})
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
	}

	metrics, err := NewLifecycleMetrics(Meter(defaultTracerName))
	if err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	p.Metrics = metrics
	return p, nil
}
