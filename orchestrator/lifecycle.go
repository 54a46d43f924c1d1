package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/dag"
	"github.com/kbukum/orchestrator/errors"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/observability"
	"github.com/kbukum/orchestrator/resilience"
)

// StartAll starts every component in dependency order, one at a time.
//
// A failing optional component is left in ERROR and startup continues. A
// failing required component aborts startup: later components stay
// UNINITIALIZED and StartAll returns false with the failure. Components that
// already started keep running unless rollback on abort is enabled. A
// dependency cycle or unknown dependency fails before anything starts.
//
// On success the health monitor is started and StartAll returns true.
func (o *Orchestrator) StartAll(ctx context.Context) (bool, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false, errors.Conflict("orchestrator is closed")
	}
	if o.started {
		o.mu.Unlock()
		return false, errors.Conflict("orchestrator is already running")
	}
	order, err := o.graph().Resolve()
	if err != nil {
		o.mu.Unlock()
		o.log.Error("Cannot resolve startup order", logger.ErrorFields("resolve", err))
		return false, err
	}
	o.warnUnusedPolicies()
	o.started = true
	o.order = order
	o.startedAt = time.Now()
	o.runCtx, o.runCancel = context.WithCancel(context.WithoutCancel(ctx))
	o.mu.Unlock()

	o.log.Info("Starting components", logger.Fields("order", order))
	begin := time.Now()

	var started []string
	for i, name := range order {
		e, _ := o.store.entry(name)
		err := o.startComponent(ctx, e)
		if err == nil {
			started = append(started, name)
			continue
		}
		if e.desc.Optional {
			o.componentLog(name).Warn("Optional component failed to start, continuing", logger.MergeWithError(nil, err))
			continue
		}

		o.componentLog(name).Error("Required component failed to start, aborting startup", logger.MergeWithError(
			logger.Fields("not_started", order[i+1:]), err))
		if o.cfg.RollbackOnAbort {
			o.rollback(ctx, started)
		}
		return false, err
	}

	o.startMonitor()
	o.log.Info("Components started", logger.DurationFields("start_all", time.Since(begin)))
	return true, nil
}

// rollback stops the given components in reverse order.
func (o *Orchestrator) rollback(ctx context.Context, started []string) {
	o.log.Warn("Rolling back started components", logger.Fields("components", dag.Reverse(started)))
	for _, name := range dag.Reverse(started) {
		e, _ := o.store.entry(name)
		_ = o.stopComponent(ctx, e)
	}
}

// StopAll stops the health monitor, waits for in-flight restarts, then stops
// every started component in reverse dependency order. Each wait is bounded
// by the monitor join timeout. A failing stop hook is recorded on its
// component, which still reaches STOPPED, and never stops the pass; all
// failures are joined into the returned error.
//
// StopAll on an orchestrator that is not running is a no-op.
func (o *Orchestrator) StopAll(ctx context.Context) error {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return nil
	}
	o.started = false
	order := o.order
	cancel := o.runCancel
	o.mu.Unlock()

	o.log.Info("Stopping components", logger.Fields("order", dag.Reverse(order)))
	begin := time.Now()

	o.stopMonitor()
	cancel()

	waitCtx, waitCancel := context.WithTimeout(ctx, o.cfg.MonitorJoinTimeout)
	if err := o.restarts.Wait(waitCtx); err != nil {
		o.log.Warn("Restarts still running, stopping components anyway", logger.MergeWithError(nil, err))
	}
	waitCancel()

	var errs []error
	for _, name := range dag.Reverse(order) {
		e, _ := o.store.entry(name)
		if err := o.stopComponent(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}

	o.log.Info("Components stopped", logger.DurationFields("stop_all", time.Since(begin)))
	return stderrors.Join(errs...)
}

// startComponent drives UNINITIALIZED or STOPPED through INITIALIZING to
// RUNNING, or to ERROR on failure.
func (o *Orchestrator) startComponent(ctx context.Context, e *entry) error {
	e.work.Lock()
	defer e.work.Unlock()

	name := e.desc.Name
	ctx, span := observability.StartComponentSpan(ctx, observability.SpanComponentStart, name,
		attribute.Bool(observability.AttrOptional, e.desc.Optional))

	if err := o.transition(ctx, e, component.StateInitializing); err != nil {
		observability.EndSpan(span, err)
		return err
	}

	begin := time.Now()
	inst, err := o.launch(ctx, e)
	if err != nil {
		o.fail(ctx, e, inst, err)
		observability.EndSpan(span, err)
		return err
	}

	o.running(ctx, e, inst)
	o.componentLog(name).Info("Component started", logger.DurationFields("start", time.Since(begin)))
	observability.EndSpan(span, nil)
	return nil
}

// launch constructs a fresh instance and initializes it. On an init failure
// the instance is returned with the error so it can still be stopped.
func (o *Orchestrator) launch(ctx context.Context, e *entry) (component.Component, error) {
	name := e.desc.Name

	begin := time.Now()
	inst, err := resilience.CallResult(ctx, name+".construct", e.desc.Timeout, func(ctx context.Context) (component.Component, error) {
		return e.desc.Factory(ctx)
	})
	if err == nil && inst == nil {
		err = fmt.Errorf("factory returned no component")
	}
	o.metrics.RecordHook(ctx, name, "construct", time.Since(begin), err)
	if err != nil {
		return nil, errors.ComponentLoad(name, err)
	}
	if inst.Name() != name {
		o.componentLog(name).Warn("Factory returned a component with a different name", logger.Fields("instance_name", inst.Name()))
	}

	if init, ok := inst.(component.Initializable); ok {
		if err := o.callHook(ctx, e, "initialize", init.Initialize); err != nil {
			return inst, errors.ComponentInit(name, err)
		}
	}
	return inst, nil
}

// stopComponent stops an active component. UNINITIALIZED and STOPPED
// components are left alone.
func (o *Orchestrator) stopComponent(ctx context.Context, e *entry) error {
	e.work.Lock()
	defer e.work.Unlock()

	name := e.desc.Name
	st := o.store.read(e)
	if st.State == component.StateUninitialized || st.State == component.StateStopped {
		return nil
	}

	ctx, span := observability.StartComponentSpan(ctx, observability.SpanComponentStop, name)
	if err := o.transition(ctx, e, component.StateStopping); err != nil {
		observability.EndSpan(span, err)
		return err
	}

	var stopErr error
	if stopper, ok := st.Instance.(component.Stoppable); ok {
		if err := o.callHook(ctx, e, "stop", stopper.Stop); err != nil {
			stopErr = errors.ComponentStop(name, err)
			o.componentLog(name).Error("Stop hook failed", logger.MergeWithError(nil, err))
		}
	}

	now := time.Now()
	o.store.update(e, func(s *component.Status) {
		s.Instance = nil
		s.StopTime = &now
		if stopErr != nil {
			s.ErrorMessage = stopErr.Error()
		}
	})
	_ = o.transition(ctx, e, component.StateStopped)
	o.componentLog(name).Info("Component stopped")
	observability.EndSpan(span, stopErr)
	return stopErr
}

// running records a live instance and moves the component to RUNNING.
func (o *Orchestrator) running(ctx context.Context, e *entry, inst component.Component) {
	now := time.Now()
	caps := component.Capabilities(inst)
	var desc *component.Description
	if d, ok := inst.(component.Describable); ok {
		dd := d.Describe()
		desc = &dd
	}
	o.store.update(e, func(s *component.Status) {
		s.Instance = inst
		s.StartTime = &now
		s.StopTime = nil
		s.LastHealthCheck = nil
		s.ErrorMessage = ""
		s.Capabilities = caps
		s.Description = desc
	})
	_ = o.transition(ctx, e, component.StateRunning)
}

// fail records err and moves the component to ERROR. inst, possibly nil, is
// kept so a later stop can release it.
func (o *Orchestrator) fail(ctx context.Context, e *entry, inst component.Component, err error) {
	o.store.update(e, func(s *component.Status) {
		s.Instance = inst
		s.ErrorMessage = err.Error()
	})
	_ = o.transition(ctx, e, component.StateError)
}

// transition applies a state change, logging and counting it. Illegal
// transitions are refused and logged.
func (o *Orchestrator) transition(ctx context.Context, e *entry, next component.State) error {
	from, err := o.store.transition(e, next)
	if err != nil {
		o.componentLog(e.desc.Name).Warn("Refused illegal state transition", logger.MergeWithError(
			logger.Fields(logger.FieldFromState, from, logger.FieldToState, next), err))
		return err
	}
	if from != next {
		o.componentLog(e.desc.Name).Debug("State transition", logger.Fields(
			logger.FieldFromState, from, logger.FieldToState, next))
		o.metrics.RecordTransition(ctx, e.desc.Name, from, next)
	}
	return nil
}

// callHook runs a component hook bounded by the component timeout.
func (o *Orchestrator) callHook(ctx context.Context, e *entry, hook string, fn func(context.Context) error) error {
	begin := time.Now()
	err := resilience.Call(ctx, e.desc.Name+"."+hook, e.desc.Timeout, fn)
	o.metrics.RecordHook(ctx, e.desc.Name, hook, time.Since(begin), err)
	return err
}

func (o *Orchestrator) warnUnusedPolicies() {
	for name := range o.policies {
		if _, err := o.store.entry(name); err != nil {
			o.log.Warn("Policy configured for unregistered component", logger.Fields(logger.FieldComponent, name))
		}
	}
}
