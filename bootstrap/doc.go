// Package bootstrap runs an orchestrated service from its configuration.
//
// NewApp takes a config, usually from config.Load, and builds the logger,
// exporters, orchestrator and status API. Register component descriptors,
// then Run.
//
//	cfg, err := config.Load[bootstrap.Settings]("billing")
//	app, err := bootstrap.NewApp(cfg)
//	app.Register(component.NewDescriptor("db", newDB))
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run starts components in dependency order, opens the status API, and
// shuts everything down on SIGINT/SIGTERM or when a required component
// exhausts its restarts. Per-component policies from the components:
// section override the registered descriptors.
package bootstrap
