package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/orchestrator/component"
)

// THelper binds helpers to a test.
type THelper struct {
	t   *testing.T
	ctx context.Context
}

// T wraps a testing.T.
//
//	testutil.T(t).Start(db)
//	testutil.T(t).Eventually(time.Second, func() bool { return db.HealthCalls() > 0 }, "health checked")
func T(t *testing.T) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context passed to hooks.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Start initializes c if it is Initializable and stops it, if Stoppable,
// when the test ends.
func (h *THelper) Start(c component.Component) {
	h.t.Helper()
	if init, ok := c.(component.Initializable); ok {
		if err := init.Initialize(h.ctx); err != nil {
			h.t.Fatalf("initialize %s: %v", c.Name(), err)
		}
	}
	if stop, ok := c.(component.Stoppable); ok {
		h.t.Cleanup(func() {
			if err := stop.Stop(context.Background()); err != nil {
				h.t.Errorf("stop %s: %v", c.Name(), err)
			}
		})
	}
}

// Eventually polls cond until it holds or timeout passes, then fails the test.
func (h *THelper) Eventually(timeout time.Duration, cond func() bool, msg string) {
	h.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("condition not met within %v: %s", timeout, msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
