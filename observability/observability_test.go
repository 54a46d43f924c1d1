package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/orchestrator/component"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	s, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum, got %T", data)
	}
	var total int64
	for _, dp := range s.DataPoints {
		total += dp.Value
	}
	return total
}

func TestLifecycleMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewLifecycleMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewLifecycleMetrics failed: %v", err)
	}

	ctx := context.Background()
	m.RecordTransition(ctx, "db", component.StateInitializing, component.StateRunning)
	m.RecordTransition(ctx, "cache", component.StateInitializing, component.StateRunning)
	m.RecordTransition(ctx, "db", component.StateRunning, component.StateError)
	m.RecordHealthCheck(ctx, "db", fmt.Errorf("down"))
	m.RecordHealthCheck(ctx, "cache", nil)
	m.RecordRestart(ctx, "db", nil)
	m.RecordHook(ctx, "db", "initialize", 10*time.Millisecond, nil)

	data := collect(t, reader)
	if got := sumOf(t, data["component.transitions"]); got != 3 {
		t.Errorf("expected 3 transitions, got %d", got)
	}
	if got := sumOf(t, data["component.running"]); got != 1 {
		t.Errorf("expected 1 running component, got %d", got)
	}
	if got := sumOf(t, data["component.health_checks"]); got != 2 {
		t.Errorf("expected 2 health checks, got %d", got)
	}
	if got := sumOf(t, data["component.restarts"]); got != 1 {
		t.Errorf("expected 1 restart, got %d", got)
	}
	if _, ok := data["component.hook.duration"].(metricdata.Histogram[float64]); !ok {
		t.Errorf("expected hook duration histogram, got %T", data["component.hook.duration"])
	}
}

func TestLifecycleMetrics_NilIsNoop(t *testing.T) {
	var m *LifecycleMetrics
	ctx := context.Background()
	m.RecordTransition(ctx, "db", component.StateRunning, component.StateError)
	m.RecordHealthCheck(ctx, "db", nil)
	m.RecordRestart(ctx, "db", nil)
	m.RecordHook(ctx, "db", "stop", time.Millisecond, nil)
}

func TestNewLifecycleMetrics_Noop(t *testing.T) {
	if _, err := NewLifecycleMetrics(noop.NewMeterProvider().Meter("test")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestComponentSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	_, span := StartComponentSpan(context.Background(), SpanComponentStart, "db")
	EndSpan(span, nil)
	_, span = StartComponentSpan(context.Background(), SpanComponentHealthCheck, "db")
	EndSpan(span, fmt.Errorf("unreachable"))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != SpanComponentStart || spans[0].Status.Code != codes.Ok {
		t.Errorf("unexpected first span %s %v", spans[0].Name, spans[0].Status)
	}
	if spans[1].Status.Code != codes.Error || len(spans[1].Events) == 0 {
		t.Errorf("expected error status with recorded event, got %v", spans[1].Status)
	}
	found := false
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == AttrComponent && attr.Value.AsString() == "db" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s attribute, got %v", AttrComponent, spans[0].Attributes)
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := sampler(tc.rate).Description(); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("orchestrator", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	if res.Len() == 0 {
		t.Error("expected resource attributes")
	}
}

func TestHealthFromStatus(t *testing.T) {
	tests := []struct {
		name     string
		state    component.State
		optional bool
		want     HealthStatus
	}{
		{"running", component.StateRunning, false, HealthStatusUp},
		{"recovering", component.StateRecovering, false, HealthStatusDegraded},
		{"required error", component.StateError, false, HealthStatusDown},
		{"optional error", component.StateError, true, HealthStatusDegraded},
		{"stopped", component.StateStopped, false, HealthStatusDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := HealthFromStatus(component.Status{Name: "db", State: tc.state, Optional: tc.optional})
			if h.Status != tc.want {
				t.Errorf("expected %s, got %s", tc.want, h.Status)
			}
			if h.Details["state"] != tc.state.String() {
				t.Errorf("expected state detail, got %v", h.Details)
			}
		})
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("orchestrator", "1.0.0")

	sh.AddComponent(Health{Name: "db", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("expected up, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "cache", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "queue", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "search", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down not overridden by degraded, got %s", sh.Status)
	}
	if len(sh.Components) != 4 {
		t.Errorf("expected 4 components, got %d", len(sh.Components))
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Tracing.SampleRate != 1.0 || cfg.Metrics.Interval != 15*time.Second {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Tracing.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected sample rate error")
	}
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{}, "orchestrator", "dev", "test")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if p.Metrics == nil {
		t.Error("expected lifecycle metrics even with export disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
