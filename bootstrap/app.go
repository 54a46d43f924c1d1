package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/observability"
	"github.com/kbukum/orchestrator/orchestrator"
	"github.com/kbukum/orchestrator/statusapi"
)

// App wires configuration, logging, observability, the orchestrator and
// the status API into one process lifecycle.
// The type parameter C is the config type; any struct embedding Settings
// satisfies Config.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.Register(component.NewDescriptor("db", newDB))
//	app.Run(context.Background())
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger

	Orchestrator  *orchestrator.Orchestrator
	StatusAPI     *statusapi.Server
	Observability *observability.Provider
	Summary       *Summary

	gracefulTimeout time.Duration
	signals         []os.Signal
	output          io.Writer

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config. It applies defaults,
// validates the config, initializes the logger, installs the configured
// exporters and builds the orchestrator. The status API is built only when
// enabled.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	settings := cfg.GetSettings()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: settings.GracefulTimeout,
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		output:          o.output,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if len(o.signals) > 0 {
		app.signals = o.signals
	}

	// Logger: use custom if provided, otherwise init from config.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		logger.RegisterDefaults()
		app.Logger = logger.GetGlobalLogger()
	}

	provider, err := observability.Setup(context.Background(), settings.Observability, base.Name, base.Version, base.Environment)
	if err != nil {
		return nil, fmt.Errorf("observability setup: %w", err)
	}
	app.Observability = provider

	orchOpts := []orchestrator.Option{
		orchestrator.WithName(base.Name),
		orchestrator.WithConfig(settings.Orchestrator),
		orchestrator.WithLogger(app.Logger),
		orchestrator.WithMetrics(provider.Metrics),
		orchestrator.WithPolicies(settings.Components),
	}
	app.Orchestrator = orchestrator.New(append(orchOpts, o.orchestrator...)...)

	if settings.StatusAPI.Enabled {
		app.StatusAPI = statusapi.New(settings.StatusAPI, base.Name, app.Orchestrator, app.Logger)
	}

	app.Summary = NewSummary(base.Name, base.Version, base.Environment)
	return app, nil
}

// Register adds components to the orchestrator.
func (a *App[C]) Register(descs ...component.Descriptor) error {
	for _, d := range descs {
		if err := a.Orchestrator.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the full lifecycle of a long-running service:
// start components → OnStart hooks → status API → OnReady hooks → block →
// OnStop hooks → graceful shutdown.
//
// Run blocks until a shutdown signal arrives, ctx is done, or a required
// component exhausts its restarts. In the last case the fatal error is
// returned after shutdown.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Error("Shutdown after failed startup reported errors", logger.MergeWithError(nil, stopErr))
		}
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	fatal := a.Wait(ctx)

	if err := a.stop(); err != nil && fatal == nil {
		return err
	}
	return fatal
}

// startup starts the components and opens the status API.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("Starting application", logger.Fields("name", a.Name, "version", a.Version))

	if ok, err := a.Orchestrator.StartAll(ctx); !ok {
		return fmt.Errorf("startup aborted: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if a.StatusAPI != nil {
		if err := a.StatusAPI.Start(ctx); err != nil {
			return err
		}
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// DisplaySummary prints the startup summary to the configured output.
func (a *App[C]) DisplaySummary() {
	if a.output == nil {
		return
	}
	a.Summary.Display(a.output, a.Orchestrator, a.StatusAPI, a.Cfg.GetSettings().Observability)
}

// Wait blocks until a shutdown signal, ctx cancellation or a fatal
// component event. It returns the fatal error, if that is what ended it.
func (a *App[C]) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, a.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", logger.Fields("signal", sig.String()))
		return nil
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	case ev := <-a.Orchestrator.Fatal():
		a.Logger.Error("Required component failed permanently, shutting down", logger.Fields(
			logger.FieldComponent, ev.Component,
			"attempts", ev.Attempts,
			"event_id", ev.ID,
		))
		return fmt.Errorf("component %s failed: %w", ev.Component, ev.Err)
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop runs the OnStop hooks, closes the status API, stops every component
// and flushes telemetry, all within the graceful timeout. Every step runs
// even when an earlier one fails; the first error is returned.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	keep := func(step string, err error) {
		if err == nil {
			return
		}
		a.Logger.Error("Shutdown step failed", logger.ErrorFields(step, err))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	keep("on_stop", runHooks(ctx, a.onStop))
	if a.StatusAPI != nil {
		keep("status_api", a.StatusAPI.Stop(ctx))
	}
	keep("components", a.Orchestrator.Close(ctx))
	keep("observability", a.Observability.Shutdown(ctx))

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
