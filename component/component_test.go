package component

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type nameOnly struct{ name string }

func (n nameOnly) Name() string { return n.name }

func okFactory(name string) Factory {
	return func(ctx context.Context) (Component, error) { return nameOnly{name}, nil }
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateUninitialized, StateInitializing, true},
		{StateInitializing, StateRunning, true},
		{StateInitializing, StateError, true},
		{StateRunning, StateStopping, true},
		{StateRunning, StateError, true},
		{StateError, StateRecovering, true},
		{StateRecovering, StateRunning, true},
		{StateRecovering, StateError, true},
		{StateStopping, StateStopped, true},
		{StateStopped, StateInitializing, true},
		{StateUninitialized, StateRunning, false},
		{StateStopped, StateRunning, false},
		{StateRecovering, StateStopped, false},
		{StateStopping, StateRunning, false},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Errorf("CanTransition = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewDescriptorDefaults(t *testing.T) {
	d := NewDescriptor("db", okFactory("db"))
	if !d.AutoRestart {
		t.Error("expected auto-restart enabled by default")
	}
	if d.MaxRestartAttempts != DefaultMaxRestartAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxRestartAttempts, d.MaxRestartAttempts)
	}
	if d.Timeout != DefaultTimeout || d.RestartDelay != DefaultRestartDelay || d.HealthCheckInterval != DefaultHealthCheckInterval {
		t.Errorf("unexpected default durations: %+v", d)
	}
}

func TestNewDescriptorOptions(t *testing.T) {
	d := NewDescriptor("api", okFactory("api"),
		DependsOn("db", "cache"),
		Optional(),
		NoAutoRestart(),
		MaxRestarts(2),
		RestartDelay(time.Millisecond),
		HealthInterval(time.Second),
		Timeout(2*time.Second),
		WithMetadata("team", "core"),
	)
	if len(d.Dependencies) != 2 || !d.Optional || d.AutoRestart || d.MaxRestartAttempts != 2 {
		t.Errorf("options not applied: %+v", d)
	}
	if d.RestartDelay != time.Millisecond || d.HealthCheckInterval != time.Second || d.Timeout != 2*time.Second {
		t.Errorf("durations not applied: %+v", d)
	}
	if d.Metadata["team"] != "core" {
		t.Errorf("expected metadata, got %v", d.Metadata)
	}
}

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		wantErr string
	}{
		{"valid", NewDescriptor("db", okFactory("db")), ""},
		{"missing factory", Descriptor{Name: "db"}, "factory"},
		{"bad name", NewDescriptor("a b", okFactory("x")), "name"},
		{"self dependency left to the resolver", NewDescriptor("db", okFactory("db"), DependsOn("db")), ""},
		{"duplicate dependency left to the resolver", NewDescriptor("api", okFactory("api"), DependsOn("db", "db")), ""},
		{"odd dependency name left to the resolver", NewDescriptor("api", okFactory("api"), DependsOn("")), ""},
		{"negative timeout", NewDescriptor("db", okFactory("db"), Timeout(-time.Second)), "timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.desc.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected %q in %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestDescriptorCloneIsDeep(t *testing.T) {
	d := NewDescriptor("api", okFactory("api"), DependsOn("db"), WithMetadata("k", "v"))
	c := d.Clone()
	d.Dependencies[0] = "mutated"
	d.Metadata["k"] = "mutated"
	if c.Dependencies[0] != "db" || c.Metadata["k"] != "v" {
		t.Errorf("clone shares memory with original: %+v", c)
	}
}

func TestDescriptorWithPolicy(t *testing.T) {
	optional := true
	attempts := 7
	timeout := 3 * time.Second
	d := NewDescriptor("api", okFactory("api"), DependsOn("db"))

	out := d.WithPolicy(Policy{
		Optional:           &optional,
		MaxRestartAttempts: &attempts,
		Timeout:            &timeout,
		DependsOn:          []string{"cache"},
	})

	if !out.Optional || out.MaxRestartAttempts != 7 || out.Timeout != timeout {
		t.Errorf("policy not applied: %+v", out)
	}
	if len(out.Dependencies) != 1 || out.Dependencies[0] != "cache" {
		t.Errorf("expected dependencies replaced, got %v", out.Dependencies)
	}
	if !out.AutoRestart {
		t.Error("nil policy field should keep code value")
	}
	if d.Optional {
		t.Error("WithPolicy must not modify the receiver")
	}
}

func TestCapabilities(t *testing.T) {
	if caps := Capabilities(nameOnly{"x"}); len(caps) != 0 {
		t.Errorf("expected no capabilities, got %v", caps)
	}
	caps := Capabilities(NewBaseLazyComponent("x", nil))
	if strings.Join(caps, ",") != "initialize,health_check,stop" {
		t.Errorf("unexpected capabilities %v", caps)
	}
}

func TestStatusClone(t *testing.T) {
	now := time.Now()
	s := &Status{Name: "db", Dependencies: []string{"a"}, StartTime: &now}
	c := s.Clone()
	s.Dependencies[0] = "b"
	*s.StartTime = now.Add(time.Hour)
	if c.Dependencies[0] != "a" || !c.StartTime.Equal(now) {
		t.Errorf("clone shares memory: %+v", c)
	}
}

func TestBaseLazyComponentLifecycle(t *testing.T) {
	count := 0
	closed := false
	lc := NewBaseLazyComponent("svc", func(ctx context.Context) error {
		count++
		return nil
	}).WithCloser(func(ctx context.Context) error {
		closed = true
		return nil
	})

	if err := lc.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check to fail before initialize")
	}
	if err := lc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	_ = lc.Initialize(context.Background())
	if count != 1 {
		t.Errorf("expected initializer called once, got %d", count)
	}
	if err := lc.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy after init, got %v", err)
	}
	if err := lc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !closed {
		t.Error("expected closer to be called")
	}
	if lc.IsInitialized() {
		t.Error("expected not initialized after stop")
	}
}

func TestBaseLazyComponentInitFailure(t *testing.T) {
	lc := NewBaseLazyComponent("svc", func(ctx context.Context) error {
		return fmt.Errorf("no connection")
	})
	err := lc.Initialize(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no connection") {
		t.Fatalf("expected wrapped init error, got %v", err)
	}
	if lc.IsInitialized() {
		t.Error("failed init must not mark initialized")
	}
}

func TestBaseLazyComponentCustomHealthAndDescribe(t *testing.T) {
	lc := NewBaseLazyComponent("svc", nil).
		WithHealthCheck(func(ctx context.Context) error { return fmt.Errorf("degraded") }).
		WithDescription(Description{Name: "Service", Type: "agent"})

	_ = lc.Initialize(context.Background())
	if err := lc.HealthCheck(context.Background()); err == nil {
		t.Error("expected custom health check error")
	}
	if lc.Describe().Type != "agent" {
		t.Errorf("unexpected description %+v", lc.Describe())
	}
}

func TestFunc(t *testing.T) {
	var calls []string
	hook := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			calls = append(calls, name)
			return err
		}
	}
	f := Func{
		ComponentName: "cache",
		OnInit:        hook("init", nil),
		OnHealth:      hook("health", fmt.Errorf("unreachable")),
	}

	c, err := f.Factory()(context.Background())
	if err != nil || c.Name() != "cache" {
		t.Fatalf("unexpected factory result %v, %v", c, err)
	}
	ctx := context.Background()
	if err := f.Initialize(ctx); err != nil {
		t.Errorf("Initialize: %v", err)
	}
	if err := f.HealthCheck(ctx); err == nil {
		t.Error("expected health error")
	}
	if err := f.Stop(ctx); err != nil {
		t.Errorf("nil stop hook should succeed, got %v", err)
	}
	if strings.Join(calls, ",") != "init,health" {
		t.Errorf("unexpected calls %v", calls)
	}
	if d := f.Describe(); d.Name != "cache" || d.Type != "func" {
		t.Errorf("unexpected description %+v", d)
	}
	if caps := Capabilities(f); len(caps) != 3 {
		t.Errorf("expected three capabilities, got %v", caps)
	}
}
