package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kbukum/orchestrator/bootstrap"
	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/config"
	"github.com/kbukum/orchestrator/probe"
	"github.com/kbukum/orchestrator/validation"
)

// Config is the configuration of the orchestrator binary.
type Config struct {
	bootstrap.Settings `yaml:",inline" mapstructure:",squash"`

	// Probes are the supervised components, keyed by component name.
	// Dependencies and restart policy come from the components section.
	Probes map[string]probe.Config `yaml:"probes" mapstructure:"probes"`
}

// ApplyDefaults fills the shared settings and every probe.
func (c *Config) ApplyDefaults() {
	c.Settings.ApplyDefaults()
	for name, p := range c.Probes {
		p.ApplyDefaults()
		c.Probes[name] = p
	}
}

// Validate checks the shared settings, then each probe.
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	for _, name := range probeNames(c.Probes) {
		if !validation.IsComponentName(name) {
			return fmt.Errorf("probes: invalid component name %q", name)
		}
		p := c.Probes[name]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("probes.%s: %w", name, err)
		}
	}
	for name := range c.Components {
		if _, ok := c.Probes[name]; !ok {
			return fmt.Errorf("components.%s: no probe with that name", name)
		}
	}
	return nil
}

// Descriptors returns one descriptor per probe, sorted by name so startup
// order ties break the same way on every run.
func (c *Config) Descriptors() []component.Descriptor {
	names := probeNames(c.Probes)
	out := make([]component.Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, component.NewDescriptor(name, probe.Factory(name, c.Probes[name])))
	}
	return out
}

func probeNames(probes map[string]probe.Config) []string {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the configured components and supervise them until shutdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		app, err := bootstrap.NewApp(cfg)
		if err != nil {
			return err
		}
		if err := app.Register(cfg.Descriptors()...); err != nil {
			return err
		}
		return app.Run(cmd.Context())
	},
}

func loadConfig() (*Config, error) {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg, err := config.Load[Config](serviceName, opts...)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}
	return cfg, nil
}
