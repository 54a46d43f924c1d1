package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/errors"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/testutil"
)

// newTestOrchestrator returns a quiet orchestrator with a fast monitor that
// is stopped when the test ends.
func newTestOrchestrator(t *testing.T, opts ...Option) *Orchestrator {
	t.Helper()
	base := []Option{
		WithLogger(logger.NewNop()),
		WithHealthPollInterval(5 * time.Millisecond),
		WithMonitorJoinTimeout(time.Second),
	}
	o := New(append(base, opts...)...)
	t.Cleanup(func() { _ = o.StopAll(context.Background()) })
	return o
}

// scripted builds a descriptor for s with millisecond delays and intervals.
func scripted(s *testutil.ScriptedComponent, opts ...component.Option) component.Descriptor {
	base := []component.Option{
		component.RestartDelay(time.Millisecond),
		component.HealthInterval(time.Millisecond),
		component.Timeout(time.Second),
	}
	return component.NewDescriptor(s.Name(), s.Factory(), append(base, opts...)...)
}

func mustStart(t *testing.T, o *Orchestrator) {
	t.Helper()
	ok, err := o.StartAll(context.Background())
	if !ok || err != nil {
		t.Fatalf("StartAll = %v, %v", ok, err)
	}
}

func assertState(t *testing.T, o *Orchestrator, name string, want component.State) {
	t.Helper()
	st, err := o.GetStatus(name)
	if err != nil {
		t.Fatalf("GetStatus(%s): %v", name, err)
	}
	if st.State != want {
		t.Errorf("%s: expected %s, got %s (error: %q)", name, want, st.State, st.ErrorMessage)
	}
}

func TestNew_Defaults(t *testing.T) {
	o := New(WithLogger(logger.NewNop()))
	cfg := o.Config()
	if cfg.HealthPollInterval != DefaultHealthPollInterval || cfg.RestartWorkers != DefaultRestartWorkers {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if o.Name() != "orchestrator" {
		t.Errorf("unexpected name %q", o.Name())
	}
	if o.Running() || o.Ready() {
		t.Error("new orchestrator must not be running")
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(o *Orchestrator)
		desc    component.Descriptor
		wantErr errors.ErrorCode
	}{
		{
			name: "duplicate",
			setup: func(o *Orchestrator) {
				_ = o.Register(scripted(testutil.NewScripted("db", nil)))
			},
			desc:    scripted(testutil.NewScripted("db", nil)),
			wantErr: errors.ErrCodeDuplicateComponent,
		},
		{
			name:    "missing factory",
			desc:    component.Descriptor{Name: "db"},
			wantErr: errors.ErrCodeInvalidInput,
		},
		{
			name: "self dependency is left to StartAll",
			desc: scripted(testutil.NewScripted("db", nil), component.DependsOn("db")),
		},
		{
			name: "repeated dependency is accepted",
			desc: scripted(testutil.NewScripted("api", nil), component.DependsOn("db", "db")),
		},
		{
			name: "unknown dependency is accepted",
			desc: scripted(testutil.NewScripted("api", nil), component.DependsOn("db")),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator(t)
			if tc.setup != nil {
				tc.setup(o)
			}
			err := o.Register(tc.desc)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, tc.wantErr) {
				t.Fatalf("expected %s, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegister_AfterStartConflicts(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(scripted(testutil.NewScripted("db", nil)))
	mustStart(t, o)

	err := o.Register(scripted(testutil.NewScripted("cache", nil)))
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRegister_CopiesDescriptor(t *testing.T) {
	o := newTestOrchestrator(t)
	d := scripted(testutil.NewScripted("api", nil), component.DependsOn("db"))
	o.MustRegister(d, scripted(testutil.NewScripted("db", nil)))
	d.Dependencies[0] = "mutated"

	st, _ := o.GetStatus("api")
	if st.Dependencies[0] != "db" {
		t.Errorf("registered descriptor changed with the caller's copy: %v", st.Dependencies)
	}
}

func TestRegister_AppliesPolicy(t *testing.T) {
	optional := true
	attempts := 9
	o := newTestOrchestrator(t, WithPolicies(map[string]component.Policy{
		"search": {Optional: &optional, MaxRestartAttempts: &attempts},
	}))
	o.MustRegister(scripted(testutil.NewScripted("search", nil)))

	st, _ := o.GetStatus("search")
	if !st.Optional || st.MaxRestarts != 9 {
		t.Errorf("policy not applied: optional=%v max=%d", st.Optional, st.MaxRestarts)
	}
}

func TestGetStatus(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(
		scripted(testutil.NewScripted("db", nil)),
		scripted(testutil.NewScripted("api", nil), component.DependsOn("db")),
	)

	if _, err := o.GetStatus("does-not-exist"); !errors.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	all := o.GetAllStatus()
	if len(all) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(all))
	}
	for _, name := range []string{"db", "api"} {
		if st, ok := all[name]; !ok || st.State != component.StateUninitialized {
			t.Errorf("%s: unexpected status %+v", name, st)
		}
	}

	mustStart(t, o)
	time.Sleep(5 * time.Millisecond)
	st, _ := o.GetStatus("db")
	if st.StartTime == nil || st.Uptime <= 0 {
		t.Errorf("expected start time and uptime, got %+v", st)
	}
	if strings.Join(st.Capabilities, ",") != "initialize,health_check,stop" {
		t.Errorf("unexpected capabilities %v", st.Capabilities)
	}
}

func TestOrderAndLevels(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(
		scripted(testutil.NewScripted("api", nil), component.DependsOn("db", "cache")),
		scripted(testutil.NewScripted("db", nil)),
		scripted(testutil.NewScripted("cache", nil)),
	)

	order, err := o.Order()
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if strings.Join(order, ",") != "db,cache,api" {
		t.Errorf("unexpected order %v", order)
	}

	levels, err := o.Levels()
	if err != nil {
		t.Fatalf("Levels failed: %v", err)
	}
	if len(levels) != 2 || len(levels[0]) != 2 || levels[1][0] != "api" {
		t.Errorf("unexpected levels %v", levels)
	}
}

func TestReady(t *testing.T) {
	o := newTestOrchestrator(t, WithHealthPollInterval(time.Hour))
	o.MustRegister(
		scripted(testutil.NewScripted("db", nil)),
		scripted(testutil.NewScripted("search", nil).FailInit(fmt.Errorf("index unavailable")), component.Optional()),
	)
	mustStart(t, o)
	if !o.Ready() {
		t.Error("expected ready with only an optional component down")
	}
	_ = o.StopAll(context.Background())
	if o.Ready() {
		t.Error("expected not ready after StopAll")
	}
}

func TestClose(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(scripted(testutil.NewScripted("db", nil)))
	mustStart(t, o)

	if err := o.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	assertState(t, o, "db", component.StateStopped)
	if ok, err := o.StartAll(context.Background()); ok || !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Errorf("expected CONFLICT after close, got %v, %v", ok, err)
	}
}
