package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/orchestrator/component"
)

// ScriptedComponent is a component whose hooks return programmed results.
// It implements every capability and counts each call. Its Factory returns
// the same instance every time, so scripts and counters survive restarts.
//
//	db := testutil.NewScripted("db", rec)
//	db.FailInit(errors.New("connection refused"))
//	orch.Register(component.NewDescriptor("db", db.Factory()))
type ScriptedComponent struct {
	name     string
	recorder *Recorder

	mu            sync.Mutex
	factoryErr    error
	initErr       error
	initFailures  int
	healthErr     error
	stopErr       error
	initDelay     time.Duration
	healthDelay   time.Duration
	stopDelay     time.Duration
	panicOnInit   bool
	factoryCalls  int
	initCalls     int
	healthCalls   int
	stopCalls     int
	healthChecked chan struct{}
}

var (
	_ component.Initializable   = (*ScriptedComponent)(nil)
	_ component.HealthCheckable = (*ScriptedComponent)(nil)
	_ component.Stoppable       = (*ScriptedComponent)(nil)
)

// NewScripted creates a component that succeeds at everything. rec may be nil.
func NewScripted(name string, rec *Recorder) *ScriptedComponent {
	return &ScriptedComponent{name: name, recorder: rec, healthChecked: make(chan struct{}, 64)}
}

// Name returns the component name.
func (s *ScriptedComponent) Name() string { return s.name }

// Factory returns a factory yielding s, or the scripted factory error.
func (s *ScriptedComponent) Factory() component.Factory {
	return func(ctx context.Context) (component.Component, error) {
		s.mu.Lock()
		s.factoryCalls++
		err := s.factoryErr
		s.mu.Unlock()
		s.record("construct")
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Initialize returns the scripted init result.
func (s *ScriptedComponent) Initialize(ctx context.Context) error {
	s.mu.Lock()
	s.initCalls++
	delay, panics := s.initDelay, s.panicOnInit
	err := s.initErr
	if s.initFailures > 0 {
		s.initFailures--
		if s.initFailures == 0 {
			s.initErr = nil
		}
	}
	s.mu.Unlock()

	s.record("initialize")
	if panics {
		panic(fmt.Sprintf("%s: scripted panic", s.name))
	}
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	return err
}

// HealthCheck returns the scripted health result.
func (s *ScriptedComponent) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	s.healthCalls++
	delay, err := s.healthDelay, s.healthErr
	s.mu.Unlock()

	s.record("health")
	defer func() {
		select {
		case s.healthChecked <- struct{}{}:
		default:
		}
	}()
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	return err
}

// Stop returns the scripted stop result.
func (s *ScriptedComponent) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopCalls++
	delay, err := s.stopDelay, s.stopErr
	s.mu.Unlock()

	s.record("stop")
	if err := sleep(ctx, delay); err != nil {
		return err
	}
	return err
}

// FailFactory makes the factory return err. nil restores success.
func (s *ScriptedComponent) FailFactory(err error) *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factoryErr = err
	return s
}

// FailInit makes every Initialize return err. nil restores success.
func (s *ScriptedComponent) FailInit(err error) *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initErr, s.initFailures = err, 0
	return s
}

// FailInitTimes makes the next n Initialize calls return err.
func (s *ScriptedComponent) FailInitTimes(n int, err error) *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initErr, s.initFailures = err, n
	return s
}

// PanicOnInit makes Initialize panic.
func (s *ScriptedComponent) PanicOnInit() *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panicOnInit = true
	return s
}

// SetHealth sets the HealthCheck result. nil means healthy.
func (s *ScriptedComponent) SetHealth(err error) *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthErr = err
	return s
}

// FailStop makes Stop return err.
func (s *ScriptedComponent) FailStop(err error) *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopErr = err
	return s
}

// Delay makes each hook block for the given duration, or until its context
// is done. Zero leaves a hook instant.
func (s *ScriptedComponent) Delay(init, health, stop time.Duration) *ScriptedComponent {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initDelay, s.healthDelay, s.stopDelay = init, health, stop
	return s
}

// HealthChecked receives a value after each completed HealthCheck.
func (s *ScriptedComponent) HealthChecked() <-chan struct{} { return s.healthChecked }

// FactoryCalls returns how often the factory ran.
func (s *ScriptedComponent) FactoryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.factoryCalls
}

// InitCalls returns how often Initialize ran.
func (s *ScriptedComponent) InitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initCalls
}

// HealthCalls returns how often HealthCheck ran.
func (s *ScriptedComponent) HealthCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthCalls
}

// StopCalls returns how often Stop ran.
func (s *ScriptedComponent) StopCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCalls
}

func (s *ScriptedComponent) record(hook string) {
	if s.recorder != nil {
		s.recorder.Record(s.name + ":" + hook)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
