// Package testutil provides programmable components for lifecycle tests.
//
// ScriptedComponent implements every capability interface with results set
// per test (init failures, unhealthy checks, slow or failing stops, panics)
// and counts each call. Recorder captures the order hooks ran in across
// components:
//
//	rec := testutil.NewRecorder()
//	db := testutil.NewScripted("db", rec)
//	api := testutil.NewScripted("api", rec).FailInit(errors.New("port in use"))
//	...
//	rec.Hook("initialize") // ["db", "api"]
package testutil
