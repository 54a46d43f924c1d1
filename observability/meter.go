package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns development defaults.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs an OTLP meter provider as the global provider.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// LifecycleMetrics holds the instruments the orchestrator records into.
// A nil *LifecycleMetrics is valid and records nothing.
type LifecycleMetrics struct {
	transitions  metric.Int64Counter
	healthChecks metric.Int64Counter
	restarts     metric.Int64Counter
	hookDuration metric.Float64Histogram
	running      metric.Int64UpDownCounter
}

// NewLifecycleMetrics creates the lifecycle instruments on meter.
func NewLifecycleMetrics(meter metric.Meter) (*LifecycleMetrics, error) {
	transitions, err := meter.Int64Counter("component.transitions",
		metric.WithDescription("State transitions by component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating component.transitions counter: %w", err)
	}

	healthChecks, err := meter.Int64Counter("component.health_checks",
		metric.WithDescription("Health checks by component and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating component.health_checks counter: %w", err)
	}

	restarts, err := meter.Int64Counter("component.restarts",
		metric.WithDescription("Restart attempts by component and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating component.restarts counter: %w", err)
	}

	hookDuration, err := meter.Float64Histogram("component.hook.duration",
		metric.WithDescription("Duration of component hooks in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating component.hook.duration histogram: %w", err)
	}

	running, err := meter.Int64UpDownCounter("component.running",
		metric.WithDescription("Number of components in the RUNNING state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating component.running counter: %w", err)
	}

	return &LifecycleMetrics{
		transitions:  transitions,
		healthChecks: healthChecks,
		restarts:     restarts,
		hookDuration: hookDuration,
		running:      running,
	}, nil
}

// RecordTransition counts a state change and keeps the running gauge in step.
func (m *LifecycleMetrics) RecordTransition(ctx context.Context, name string, from, to component.State) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrComponent, name),
		attribute.String(AttrFromState, from.String()),
		attribute.String(AttrToState, to.String()),
	))
	if to == component.StateRunning {
		m.running.Add(ctx, 1)
	}
	if from == component.StateRunning && to != component.StateRunning {
		m.running.Add(ctx, -1)
	}
}

// RecordHealthCheck counts a health probe.
func (m *LifecycleMetrics) RecordHealthCheck(ctx context.Context, name string, err error) {
	if m == nil {
		return
	}
	m.healthChecks.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrComponent, name),
		attribute.String(AttrResult, result(err)),
	))
}

// RecordRestart counts a restart attempt.
func (m *LifecycleMetrics) RecordRestart(ctx context.Context, name string, err error) {
	if m == nil {
		return
	}
	m.restarts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrComponent, name),
		attribute.String(AttrResult, result(err)),
	))
}

// RecordHook records how long a factory or hook call took.
func (m *LifecycleMetrics) RecordHook(ctx context.Context, name, hook string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.hookDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrComponent, name),
		attribute.String(AttrHook, hook),
		attribute.String(AttrResult, result(err)),
	))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
