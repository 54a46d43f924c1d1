package resilience

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/orchestrator/errors"
)

// Call runs fn on its own goroutine under a context bounded by timeout and
// returns when fn does or when the deadline passes, whichever comes first.
// A deadline is reported as a TIMEOUT error naming op. A panic inside fn is
// recovered and returned as an error.
//
// On timeout the goroutine running fn is abandoned; fn should honor ctx so
// that it exits. A timeout of zero or less means no deadline.
func Call(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	_, err := CallResult(ctx, op, timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

type outcome[T any] struct {
	value T
	err   error
}

// CallResult is Call for functions that produce a value.
func CallResult[T any](ctx context.Context, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	callCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome[T]{err: fmt.Errorf("%s panicked: %v", op, r)}
			}
		}()
		v, err := fn(callCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	var zero T
	select {
	case out := <-done:
		return out.value, out.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, errors.Timeout(op).WithCause(callCtx.Err()).WithDetail("timeout", timeout.String())
	}
}
