package bootstrap

import (
	"io"
	"os"
	"time"

	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/orchestrator"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	output          io.Writer
	orchestrator    []orchestrator.Option
	signals         []os.Signal
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is auto-initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout overrides graceful_timeout from the config.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithOutput sets where the startup summary is printed. nil disables it.
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) {
		o.output = w
	}
}

// WithOrchestratorOptions appends options applied after the ones derived
// from the config.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(o *appOptions) {
		o.orchestrator = append(o.orchestrator, opts...)
	}
}

// WithSignals replaces the signals that trigger shutdown (SIGINT, SIGTERM).
func WithSignals(sigs ...os.Signal) Option {
	return func(o *appOptions) {
		o.signals = sigs
	}
}
