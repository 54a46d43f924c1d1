package orchestrator

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/errors"
	"github.com/kbukum/orchestrator/testutil"
)

func TestStartAll_DependencyOrder(t *testing.T) {
	rec := testutil.NewRecorder()
	o := newTestOrchestrator(t)
	o.MustRegister(
		scripted(testutil.NewScripted("api", rec), component.DependsOn("cache")),
		scripted(testutil.NewScripted("cache", rec), component.DependsOn("db")),
		scripted(testutil.NewScripted("db", rec)),
	)

	mustStart(t, o)
	if got := rec.Hook("initialize"); !reflect.DeepEqual(got, []string{"db", "cache", "api"}) {
		t.Errorf("unexpected start order %v", got)
	}
	for _, name := range []string{"db", "cache", "api"} {
		assertState(t, o, name, component.StateRunning)
	}

	if err := o.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if got := rec.Hook("stop"); !reflect.DeepEqual(got, []string{"api", "cache", "db"}) {
		t.Errorf("unexpected stop order %v", got)
	}
	for _, name := range []string{"db", "cache", "api"} {
		assertState(t, o, name, component.StateStopped)
	}
}

func TestStartAll_OptionalFailureIsAbsorbed(t *testing.T) {
	o := newTestOrchestrator(t, WithHealthPollInterval(time.Hour))
	o.MustRegister(
		scripted(testutil.NewScripted("a", nil)),
		scripted(testutil.NewScripted("b", nil).FailInit(fmt.Errorf("boom")), component.Optional()),
	)

	ok, err := o.StartAll(context.Background())
	if !ok || err != nil {
		t.Fatalf("expected startup to succeed, got %v, %v", ok, err)
	}
	assertState(t, o, "a", component.StateRunning)
	assertState(t, o, "b", component.StateError)

	st, _ := o.GetStatus("b")
	if !strings.Contains(st.ErrorMessage, "boom") {
		t.Errorf("expected error message to mention the cause, got %q", st.ErrorMessage)
	}
}

func TestStartAll_RequiredFailureAborts(t *testing.T) {
	o := newTestOrchestrator(t)
	a := testutil.NewScripted("a", nil).FailInit(fmt.Errorf("boom"))
	b := testutil.NewScripted("b", nil)
	o.MustRegister(scripted(a), scripted(b, component.DependsOn("a")))

	ok, err := o.StartAll(context.Background())
	if ok {
		t.Fatal("expected startup to abort")
	}
	if !errors.HasCode(err, errors.ErrCodeComponentInit) {
		t.Fatalf("expected COMPONENT_INIT, got %v", err)
	}
	assertState(t, o, "a", component.StateError)
	assertState(t, o, "b", component.StateUninitialized)
	if b.FactoryCalls() != 0 {
		t.Errorf("b must not be constructed, got %d factory calls", b.FactoryCalls())
	}
}

func TestStartAll_AbortKeepsStartedComponents(t *testing.T) {
	o := newTestOrchestrator(t)
	db := testutil.NewScripted("db", nil)
	o.MustRegister(scripted(db), scripted(testutil.NewScripted("api", nil).FailInit(fmt.Errorf("port in use"))))

	if ok, _ := o.StartAll(context.Background()); ok {
		t.Fatal("expected startup to abort")
	}
	assertState(t, o, "db", component.StateRunning)
	if db.StopCalls() != 0 {
		t.Errorf("db must keep running without rollback, got %d stop calls", db.StopCalls())
	}
}

func TestStartAll_RollbackOnAbort(t *testing.T) {
	rec := testutil.NewRecorder()
	o := newTestOrchestrator(t, WithRollbackOnAbort(true))
	o.MustRegister(
		scripted(testutil.NewScripted("db", rec)),
		scripted(testutil.NewScripted("cache", rec)),
		scripted(testutil.NewScripted("api", rec).FailInit(fmt.Errorf("port in use"))),
	)

	if ok, _ := o.StartAll(context.Background()); ok {
		t.Fatal("expected startup to abort")
	}
	assertState(t, o, "db", component.StateStopped)
	assertState(t, o, "cache", component.StateStopped)
	assertState(t, o, "api", component.StateError)
	if got := rec.Hook("stop"); !reflect.DeepEqual(got, []string{"cache", "db"}) {
		t.Errorf("unexpected rollback order %v", got)
	}
}

func TestStartAll_RepeatedDependency(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(
		scripted(testutil.NewScripted("db", nil)),
		scripted(testutil.NewScripted("api", nil), component.DependsOn("db", "db")),
	)
	mustStart(t, o)

	order, err := o.Order()
	if err != nil || strings.Join(order, ",") != "db,api" {
		t.Errorf("unexpected order %v, %v", order, err)
	}
	assertState(t, o, "api", component.StateRunning)
}

func TestStartAll_ResolveErrorsStartNothing(t *testing.T) {
	tests := []struct {
		name  string
		descs func() []component.Descriptor
		check func(error) bool
	}{
		{
			name: "cycle",
			descs: func() []component.Descriptor {
				return []component.Descriptor{
					scripted(testutil.NewScripted("a", nil), component.DependsOn("b")),
					scripted(testutil.NewScripted("b", nil), component.DependsOn("a")),
				}
			},
			check: errors.IsCircularDependency,
		},
		{
			name: "self dependency",
			descs: func() []component.Descriptor {
				return []component.Descriptor{
					scripted(testutil.NewScripted("b", nil)),
					scripted(testutil.NewScripted("a", nil), component.DependsOn("a")),
				}
			},
			check: func(err error) bool {
				return errors.IsCircularDependency(err) && strings.Contains(err.Error(), "a -> a")
			},
		},
		{
			name: "unknown dependency",
			descs: func() []component.Descriptor {
				return []component.Descriptor{
					scripted(testutil.NewScripted("a", nil)),
					scripted(testutil.NewScripted("b", nil), component.DependsOn("missing")),
				}
			},
			check: func(err error) bool { return errors.HasCode(err, errors.ErrCodeUnknownDependency) },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator(t)
			o.MustRegister(tc.descs()...)

			ok, err := o.StartAll(context.Background())
			if ok || !tc.check(err) {
				t.Fatalf("unexpected result %v, %v", ok, err)
			}
			for name, st := range o.GetAllStatus() {
				if st.State != component.StateUninitialized {
					t.Errorf("%s: expected UNINITIALIZED, got %s", name, st.State)
				}
			}
			if o.Running() {
				t.Error("orchestrator must not be running after a resolve error")
			}
		})
	}
}

func TestStartAll_HookFailures(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *testutil.ScriptedComponent
		opts     []component.Option
		wantCode errors.ErrorCode
	}{
		{
			name:     "factory error",
			build:    func() *testutil.ScriptedComponent { return testutil.NewScripted("db", nil).FailFactory(fmt.Errorf("no driver")) },
			wantCode: errors.ErrCodeComponentLoad,
		},
		{
			name:     "init timeout",
			build:    func() *testutil.ScriptedComponent { return testutil.NewScripted("db", nil).Delay(time.Hour, 0, 0) },
			opts:     []component.Option{component.Timeout(20 * time.Millisecond)},
			wantCode: errors.ErrCodeTimeout,
		},
		{
			name:     "init panic",
			build:    func() *testutil.ScriptedComponent { return testutil.NewScripted("db", nil).PanicOnInit() },
			wantCode: errors.ErrCodeComponentInit,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator(t)
			o.MustRegister(scripted(tc.build(), tc.opts...))

			begin := time.Now()
			ok, err := o.StartAll(context.Background())
			if ok {
				t.Fatal("expected startup to fail")
			}
			if !errors.HasCode(err, tc.wantCode) {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
			if time.Since(begin) > 5*time.Second {
				t.Errorf("StartAll took too long: %v", time.Since(begin))
			}
			assertState(t, o, "db", component.StateError)
		})
	}
}

func TestStartAll_ComponentWithoutHooks(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(component.NewDescriptor("plain", func(ctx context.Context) (component.Component, error) {
		return plain{}, nil
	}, component.HealthInterval(time.Millisecond)))

	mustStart(t, o)
	time.Sleep(20 * time.Millisecond)
	st, _ := o.GetStatus("plain")
	if st.State != component.StateRunning || len(st.Capabilities) != 0 {
		t.Errorf("unexpected status %+v", st)
	}
	if err := o.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	assertState(t, o, "plain", component.StateStopped)
}

type plain struct{}

func (plain) Name() string { return "plain" }

func TestStartAll_Twice(t *testing.T) {
	o := newTestOrchestrator(t)
	db := testutil.NewScripted("db", nil)
	o.MustRegister(scripted(db))
	mustStart(t, o)

	if ok, err := o.StartAll(context.Background()); ok || !errors.HasCode(err, errors.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v, %v", ok, err)
	}

	if err := o.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	mustStart(t, o)
	assertState(t, o, "db", component.StateRunning)
	if db.InitCalls() != 2 {
		t.Errorf("expected a second initialize after restart of the orchestrator, got %d", db.InitCalls())
	}
}

func TestStopAll_BestEffort(t *testing.T) {
	rec := testutil.NewRecorder()
	o := newTestOrchestrator(t)
	o.MustRegister(
		scripted(testutil.NewScripted("db", rec)),
		scripted(testutil.NewScripted("cache", rec).FailStop(fmt.Errorf("flush failed")), component.DependsOn("db")),
		scripted(testutil.NewScripted("api", rec), component.DependsOn("cache")),
	)
	mustStart(t, o)

	err := o.StopAll(context.Background())
	if !errors.HasCode(err, errors.ErrCodeComponentStop) {
		t.Fatalf("expected COMPONENT_STOP, got %v", err)
	}
	if got := rec.Hook("stop"); !reflect.DeepEqual(got, []string{"api", "cache", "db"}) {
		t.Errorf("every component must be stopped, got %v", got)
	}
	for _, name := range []string{"db", "cache", "api"} {
		assertState(t, o, name, component.StateStopped)
	}
	st, _ := o.GetStatus("cache")
	if !strings.Contains(st.ErrorMessage, "flush failed") {
		t.Errorf("expected stop error recorded, got %q", st.ErrorMessage)
	}
}

func TestStopAll_StopTimeout(t *testing.T) {
	o := newTestOrchestrator(t)
	o.MustRegister(scripted(testutil.NewScripted("db", nil).Delay(0, 0, time.Hour), component.Timeout(20*time.Millisecond)))
	mustStart(t, o)

	err := o.StopAll(context.Background())
	if !errors.IsTimeout(err) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	assertState(t, o, "db", component.StateStopped)
}

func TestStopAll_AfterAbort(t *testing.T) {
	o := newTestOrchestrator(t)
	a := testutil.NewScripted("a", nil)
	b := testutil.NewScripted("b", nil).FailInit(fmt.Errorf("boom"))
	c := testutil.NewScripted("c", nil)
	o.MustRegister(scripted(a), scripted(b), scripted(c))

	if ok, _ := o.StartAll(context.Background()); ok {
		t.Fatal("expected startup to abort")
	}
	if err := o.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	assertState(t, o, "a", component.StateStopped)
	assertState(t, o, "b", component.StateStopped)
	assertState(t, o, "c", component.StateUninitialized)
	if c.StopCalls() != 0 {
		t.Errorf("never started component must not be stopped")
	}
}

func TestStopAll_NotRunning(t *testing.T) {
	o := newTestOrchestrator(t)
	db := testutil.NewScripted("db", nil)
	o.MustRegister(scripted(db))

	if err := o.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll on idle orchestrator: %v", err)
	}
	mustStart(t, o)
	_ = o.StopAll(context.Background())
	_ = o.StopAll(context.Background())
	if db.StopCalls() != 1 {
		t.Errorf("expected a single stop, got %d", db.StopCalls())
	}
}
