// Package orchestrator runs a fixed set of named components through their
// lifecycle.
//
// Components are registered as descriptors and started one at a time in
// dependency order. A single health monitor goroutine probes running
// components on their own interval; an unhealthy component is marked ERROR
// and handed to a bounded pool of restart workers, which restart it up to
// MaxRestartAttempts times. A required component that runs out of attempts
// stays in ERROR and raises a FatalEvent. StopAll stops the monitor, waits
// for restarts, then stops components in reverse order.
//
//	orch := orchestrator.New(orchestrator.WithFatalHandler(onFatal))
//	orch.MustRegister(
//	    component.NewDescriptor("db", newDB),
//	    component.NewDescriptor("api", newAPI, component.DependsOn("db")),
//	)
//	if ok, err := orch.StartAll(ctx); !ok {
//	    log.Fatal(err)
//	}
//	defer orch.StopAll(context.Background())
//
// Component states move along
//
//	UNINITIALIZED -> INITIALIZING -> RUNNING -> STOPPING -> STOPPED
//	RUNNING -> ERROR -> RECOVERING -> RUNNING | ERROR
//
// and every hook call is bounded by the component's Timeout.
package orchestrator
