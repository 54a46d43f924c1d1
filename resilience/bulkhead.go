package resilience

import (
	"context"
	"sync"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in logs.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
	// OnReject is called when ctx ends before a call gets a slot.
	OnReject func(name string)
	// OnAcquire is called when a slot is acquired.
	OnAcquire func(name string)
	// OnRelease is called when a slot is released.
	OnRelease func(name string)
}

// Bulkhead bounds how many calls run at once.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewBulkhead creates a new bulkhead. MaxConcurrent defaults to 1.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Go dispatches fn to its own goroutine and returns immediately. The
// goroutine waits for a free slot; if ctx ends first fn never runs and
// onError receives the context error. Errors from fn are passed to onError
// as well. Wait joins every dispatched call.
func (b *Bulkhead) Go(ctx context.Context, fn func() error, onError func(error)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		var err error
		if err = b.acquire(ctx); err != nil {
			b.reject()
		} else {
			err = b.run(fn)
		}
		if err != nil && onError != nil {
			onError(err)
		}
	}()
}

// Wait blocks until every call dispatched with Go has returned, or until
// ctx is done.
func (b *Bulkhead) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) run(fn func() error) error {
	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name)
	}
	defer func() {
		<-b.sem
		if b.config.OnRelease != nil {
			b.config.OnRelease(b.config.Name)
		}
	}()
	return fn()
}

func (b *Bulkhead) reject() {
	if b.config.OnReject != nil {
		b.config.OnReject(b.config.Name)
	}
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InUse returns the number of calls currently holding a slot.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
