package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/errors"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/observability"
)

// MaybeRestart is the automatic restart path used by the health monitor.
// It does nothing unless the component has auto-restart enabled. While
// attempts remain it restarts the component, retrying failed attempts after
// RestartDelay. Once MaxRestartAttempts is used up the component stays in
// ERROR, a COMPONENT_RESTART_EXHAUSTED error is returned, and a required
// component raises a FatalEvent.
//
// Concurrent calls for the same component share one restart.
func (o *Orchestrator) MaybeRestart(ctx context.Context, name string) error {
	return o.restart(ctx, name, false)
}

// RestartComponent restarts a RUNNING or ERROR component on demand. It
// ignores AutoRestart but still counts against MaxRestartAttempts, and makes
// a single attempt.
func (o *Orchestrator) RestartComponent(ctx context.Context, name string) error {
	return o.restart(ctx, name, true)
}

// ResetComponent clears the restart count and exhausted flag of name so the
// restart policy applies afresh. The component's state is not changed.
func (o *Orchestrator) ResetComponent(name string) error {
	e, err := o.store.entry(name)
	if err != nil {
		return err
	}
	e.work.Lock()
	defer e.work.Unlock()

	o.store.update(e, func(s *component.Status) {
		s.RestartCount = 0
		s.Exhausted = false
	})
	o.supLog.Info("Restart count reset", logger.Fields(logger.FieldComponent, name))
	return nil
}

func (o *Orchestrator) restart(ctx context.Context, name string, manual bool) error {
	e, err := o.store.entry(name)
	if err != nil {
		return err
	}
	if !o.Running() {
		if manual {
			return errors.Conflict("orchestrator is not running").WithDetail("component", name)
		}
		return nil
	}

	key := name
	if manual {
		key = "manual:" + name
	}
	_, err, _ = o.restartGroup.Do(key, func() (interface{}, error) {
		return nil, o.doRestart(ctx, e, key, manual)
	})
	return err
}

func (o *Orchestrator) doRestart(ctx context.Context, e *entry, key string, manual bool) error {
	e.work.Lock()
	defer e.work.Unlock()
	// Forget while still holding the lock: a failure detected after this
	// restart must start a new one rather than share its result.
	defer o.restartGroup.Forget(key)

	name := e.desc.Name
	if !manual && !e.desc.AutoRestart {
		o.supLog.Warn("Auto-restart disabled, component stays in ERROR", logger.Fields(logger.FieldComponent, name))
		return nil
	}

	for {
		st := o.store.read(e)
		if st.State != component.StateRunning && st.State != component.StateError {
			return errors.Conflict("component can only be restarted from RUNNING or ERROR").
				WithDetails(map[string]any{"component": name, "state": st.State.String()})
		}
		if st.Exhausted || st.RestartCount >= e.desc.MaxRestartAttempts {
			return o.exhaust(ctx, e, st.RestartCount)
		}

		err := o.attempt(ctx, e, st, st.RestartCount+1)
		if err == nil || manual || ctx.Err() != nil {
			return err
		}
	}
}

// attempt makes one restart: RECOVERING, stop, delay, construct and
// initialize, then RUNNING or ERROR.
func (o *Orchestrator) attempt(ctx context.Context, e *entry, st component.Status, attempt int) error {
	name := e.desc.Name
	log := o.supLog.WithFields(logger.Fields(
		logger.FieldComponent, name,
		logger.FieldAttempt, attempt,
		logger.FieldMaxAttempts, e.desc.MaxRestartAttempts,
		"restart_id", uuid.NewString(),
	))

	ctx, span := observability.StartComponentSpan(ctx, observability.SpanComponentRestart, name,
		attribute.Int(observability.AttrAttempt, attempt))

	if err := o.transition(ctx, e, component.StateRecovering); err != nil {
		observability.EndSpan(span, err)
		return err
	}
	log.Info("Restarting component")

	if stopper, ok := st.Instance.(component.Stoppable); ok {
		if err := o.callHook(ctx, e, "stop", stopper.Stop); err != nil {
			log.Warn("Stop hook failed during restart", logger.MergeWithError(nil, err))
		}
	}
	o.store.update(e, func(s *component.Status) { s.Instance = nil })

	if err := sleep(ctx, e.desc.RestartDelay); err != nil {
		o.fail(ctx, e, nil, err)
		observability.EndSpan(span, err)
		return err
	}

	begin := time.Now()
	inst, err := o.launch(ctx, e)
	o.store.update(e, func(s *component.Status) { s.RestartCount++ })
	o.metrics.RecordRestart(ctx, name, err)
	if err != nil {
		o.fail(ctx, e, inst, err)
		log.Error("Restart attempt failed", logger.MergeWithError(nil, err))
		observability.EndSpan(span, err)
		return err
	}

	o.running(ctx, e, inst)
	log.Info("Component restarted", logger.DurationFields("restart", time.Since(begin)))
	observability.EndSpan(span, nil)
	return nil
}

// exhaust parks the component in ERROR for good. The first time it happens
// a required component raises a FatalEvent.
func (o *Orchestrator) exhaust(ctx context.Context, e *entry, attempts int) error {
	name := e.desc.Name
	err := errors.RestartExhausted(name, attempts, e.desc.Optional)

	first := false
	o.store.update(e, func(s *component.Status) {
		first = !s.Exhausted
		s.Exhausted = true
		s.ErrorMessage = err.Error()
	})
	_ = o.transition(ctx, e, component.StateError)

	if !first {
		return err
	}
	fields := logger.Fields(logger.FieldComponent, name, logger.FieldAttempt, attempts, logger.FieldOptional, e.desc.Optional)
	if e.desc.Optional {
		o.supLog.Warn("Optional component exhausted its restarts", fields)
		return err
	}
	o.supLog.Error("Required component exhausted its restarts", fields)
	o.publishFatal(FatalEvent{
		ID:        uuid.NewString(),
		Component: name,
		Attempts:  attempts,
		Err:       err,
		Message:   err.Error(),
		Time:      time.Now(),
	})
	return err
}

func (o *Orchestrator) publishFatal(ev FatalEvent) {
	select {
	case o.fatal <- ev:
	default:
		o.supLog.Error("Fatal channel full, event dropped", logger.Fields(logger.FieldComponent, ev.Component, "event_id", ev.ID))
	}
	if o.fatalHandler != nil {
		go o.fatalHandler(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
