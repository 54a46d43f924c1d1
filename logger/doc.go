// Package logger provides structured logging for the orchestrator and the
// components it supervises, using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers that tag every event with the component name.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("health-monitor")
//	log.Info("health check passed", logger.Fields("component", "db"))
package logger
