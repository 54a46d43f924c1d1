package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/errors"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/observability"
)

func (o *Orchestrator) startMonitor() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.monStop = make(chan struct{})
	o.monDone = make(chan struct{})
	go o.monitor(o.runCtx, o.monStop, o.monDone)
	o.monLog.Info("Health monitor started", logger.Fields("poll_interval", o.cfg.HealthPollInterval.String()))
}

// stopMonitor signals the monitor and waits for it, at most
// MonitorJoinTimeout.
func (o *Orchestrator) stopMonitor() {
	o.mu.Lock()
	stop, done := o.monStop, o.monDone
	o.monStop, o.monDone = nil, nil
	o.mu.Unlock()
	if stop == nil {
		return
	}

	close(stop)
	select {
	case <-done:
		o.monLog.Info("Health monitor stopped")
	case <-time.After(o.cfg.MonitorJoinTimeout):
		o.monLog.Warn("Health monitor did not stop in time", logger.Fields("timeout", o.cfg.MonitorJoinTimeout.String()))
	}
}

func (o *Orchestrator) monitor(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(o.cfg.HealthPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.scan(ctx, stop)
		}
	}
}

// scan health-checks every RUNNING component whose check is due. A panic
// is logged and the next tick scans again.
func (o *Orchestrator) scan(ctx context.Context, stop <-chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			o.monLog.Error("Health scan panicked", logger.Fields(logger.FieldError, fmt.Sprint(r)))
		}
	}()

	now := time.Now()
	for _, name := range o.store.Names() {
		select {
		case <-stop:
			return
		default:
		}

		e, err := o.store.entry(name)
		if err != nil {
			continue
		}
		st := o.store.read(e)
		if st.State != component.StateRunning {
			continue
		}
		if st.LastHealthCheck != nil && now.Sub(*st.LastHealthCheck) < e.desc.HealthCheckInterval {
			continue
		}
		o.checkHealth(ctx, e)
	}
}

// checkHealth probes one component. Components without a health check are
// healthy. A component busy with another lifecycle operation is skipped
// until the next scan. On failure the component is marked ERROR and a
// restart is dispatched without waiting for it.
func (o *Orchestrator) checkHealth(ctx context.Context, e *entry) {
	if !e.work.TryLock() {
		return
	}
	name := e.desc.Name

	st := o.store.read(e)
	if st.State != component.StateRunning {
		e.work.Unlock()
		return
	}

	ctx, span := observability.StartComponentSpan(ctx, observability.SpanComponentHealthCheck, name)
	var err error
	if hc, ok := st.Instance.(component.HealthCheckable); ok {
		err = o.callHook(ctx, e, "health_check", hc.HealthCheck)
	}
	o.metrics.RecordHealthCheck(ctx, name, err)

	if err != nil && ctx.Err() != nil {
		// Shutting down; the failure is ours, not the component's.
		e.work.Unlock()
		observability.EndSpan(span, nil)
		return
	}

	now := time.Now()
	if err == nil {
		o.store.update(e, func(s *component.Status) { s.LastHealthCheck = &now })
		e.work.Unlock()
		observability.EndSpan(span, nil)
		return
	}

	herr := errors.HealthCheck(name, err)
	o.store.update(e, func(s *component.Status) {
		s.LastHealthCheck = &now
		s.ErrorMessage = herr.Error()
	})
	_ = o.transition(ctx, e, component.StateError)
	e.work.Unlock()

	o.monLog.Warn("Health check failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
	observability.EndSpan(span, herr)
	o.dispatchRestart(name)
}

// dispatchRestart hands an automatic restart to the restart pool.
func (o *Orchestrator) dispatchRestart(name string) {
	o.mu.Lock()
	ctx := o.runCtx
	o.mu.Unlock()

	o.restarts.Go(ctx, func() error {
		return o.MaybeRestart(ctx, name)
	}, func(err error) {
		if ctx.Err() != nil {
			o.supLog.Debug("Restart abandoned during shutdown", logger.Fields(logger.FieldComponent, name))
			return
		}
		if !errors.IsRestartExhausted(err) {
			o.supLog.Warn("Automatic restart failed", logger.MergeWithError(logger.Fields(logger.FieldComponent, name), err))
		}
	})
}
