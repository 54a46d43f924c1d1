package component

import "context"

// Func builds a component from closures. A nil hook succeeds immediately,
// so Func always reports all three capabilities.
//
//	component.NewDescriptor("cache", component.Func{
//	    ComponentName: "cache",
//	    OnInit:        cache.Connect,
//	    OnHealth:      cache.Ping,
//	    OnStop:        cache.Close,
//	}.Factory())
type Func struct {
	ComponentName string
	OnInit        func(context.Context) error
	OnHealth      func(context.Context) error
	OnStop        func(context.Context) error
	Description   *Description
}

var (
	_ Initializable   = Func{}
	_ HealthCheckable = Func{}
	_ Stoppable       = Func{}
	_ Describable     = Func{}
)

func (f Func) Name() string { return f.ComponentName }

func (f Func) Initialize(ctx context.Context) error { return call(ctx, f.OnInit) }

func (f Func) HealthCheck(ctx context.Context) error { return call(ctx, f.OnHealth) }

func (f Func) Stop(ctx context.Context) error { return call(ctx, f.OnStop) }

// Describe returns the configured description, or one naming the component.
func (f Func) Describe() Description {
	if f.Description != nil {
		return *f.Description
	}
	return Description{Name: f.ComponentName, Type: "func"}
}

// Factory returns a factory that yields f on every call.
func (f Func) Factory() Factory {
	return func(context.Context) (Component, error) { return f, nil }
}

func call(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
