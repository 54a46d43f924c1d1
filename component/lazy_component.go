package component

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/orchestrator/logger"
)

// BaseLazyComponent is a ready-made Component that implements every
// capability from plain functions. Embed it or build one with
// NewBaseLazyComponent and the With* setters.
type BaseLazyComponent struct {
	name        string
	mu          sync.RWMutex
	initialized bool
	lastError   error
	initializer func(ctx context.Context) error
	healthCheck func(ctx context.Context) error
	closer      func(ctx context.Context) error
	describe    *Description
}

var (
	_ Initializable   = (*BaseLazyComponent)(nil)
	_ Stoppable       = (*BaseLazyComponent)(nil)
	_ HealthCheckable = (*BaseLazyComponent)(nil)
	_ Describable     = (*BaseLazyComponent)(nil)
)

// NewBaseLazyComponent creates a lazy component with the given initializer.
// A nil initializer makes Initialize a no-op.
func NewBaseLazyComponent(name string, initializer func(context.Context) error) *BaseLazyComponent {
	return &BaseLazyComponent{
		name:        name,
		initializer: initializer,
	}
}

// Name returns the component name.
func (b *BaseLazyComponent) Name() string {
	return b.name
}

// Initialize runs the initializer once; later calls are no-ops until Stop.
func (b *BaseLazyComponent) Initialize(ctx context.Context) error {
	b.mu.RLock()
	if b.initialized && b.lastError == nil {
		b.mu.RUnlock()
		return nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	// Double-check after acquiring write lock
	if b.initialized && b.lastError == nil {
		return nil
	}

	logger.Debug("Initializing component", map[string]interface{}{
		logger.FieldComponent: b.name,
	})

	if b.initializer != nil {
		if err := b.initializer(ctx); err != nil {
			b.lastError = err
			return fmt.Errorf("failed to initialize %s: %w", b.name, err)
		}
	}

	b.initialized = true
	b.lastError = nil
	return nil
}

// IsInitialized returns whether the component has been successfully initialized.
func (b *BaseLazyComponent) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized && b.lastError == nil
}

// HealthCheck fails until the component is initialized, then runs the
// custom check if one is set.
func (b *BaseLazyComponent) HealthCheck(ctx context.Context) error {
	if !b.IsInitialized() {
		return fmt.Errorf("component %s not initialized", b.name)
	}
	if b.healthCheck != nil {
		return b.healthCheck(ctx)
	}
	return nil
}

// Stop runs the closer and marks the component as uninitialized.
func (b *BaseLazyComponent) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasInitialized := b.initialized
	b.initialized = false
	if b.closer != nil && wasInitialized {
		return b.closer(ctx)
	}
	return nil
}

// Describe returns the description set with WithDescription, or a generic one.
func (b *BaseLazyComponent) Describe() Description {
	if b.describe != nil {
		return *b.describe
	}
	return Description{Name: b.name, Type: "component"}
}

// WithHealthCheck sets a custom health check function.
func (b *BaseLazyComponent) WithHealthCheck(fn func(context.Context) error) *BaseLazyComponent {
	b.healthCheck = fn
	return b
}

// WithCloser sets the function run by Stop.
func (b *BaseLazyComponent) WithCloser(fn func(context.Context) error) *BaseLazyComponent {
	b.closer = fn
	return b
}

// WithDescription sets the summary description.
func (b *BaseLazyComponent) WithDescription(d Description) *BaseLazyComponent {
	b.describe = &d
	return b
}
