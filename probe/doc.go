// Package probe provides components that watch external endpoints, so the
// orchestrator binary can supervise the HTTP and TCP dependencies of a
// deployment from configuration alone:
//
//	probes:
//	  postgres:
//	    kind: tcp
//	    address: db.internal:5432
//	  billing-api:
//	    url: http://billing.internal/healthz
//	    expect_status: 200
package probe
