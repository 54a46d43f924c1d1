// Package resilience holds the concurrency guards the orchestrator runs
// component hooks under.
//
//   - Call: runs a hook on its own goroutine bounded by a deadline, turning
//     timeouts and panics into errors
//   - Bulkhead: bounds how many restarts run at once; Go dispatches work
//     without blocking the caller and Wait joins it
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "restarts", MaxConcurrent: 2})
//	bh.Go(ctx, func() error {
//	    return resilience.Call(ctx, "db.initialize", 5*time.Second, db.Initialize)
//	}, logError)
//	_ = bh.Wait(shutdownCtx)
package resilience
