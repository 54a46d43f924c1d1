// Package statusapi exposes orchestrator state over HTTP.
//
// Routes:
//
//	GET  /status                    every component, in registration order
//	GET  /status/:name              one component
//	GET  /healthz                   503 when a required component is down
//	GET  /readyz                    200 once every required component is RUNNING
//	POST /components/:name/restart  manual restart
//	POST /components/:name/reset    clear restart count and exhausted flag
//
// Errors are rendered from errors.AppError with its HTTP status.
package statusapi
