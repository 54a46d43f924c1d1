package bootstrap

import (
	"fmt"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/config"
	"github.com/kbukum/orchestrator/observability"
	"github.com/kbukum/orchestrator/orchestrator"
	"github.com/kbukum/orchestrator/statusapi"
)

// DefaultGracefulTimeout bounds shutdown when graceful_timeout is unset.
const DefaultGracefulTimeout = 15 * time.Second

// Config is the interface constraint for application configuration types.
// Any struct that embeds Settings (value embedding) satisfies it through
// promoted methods.
//
//	type MyConfig struct {
//	    bootstrap.Settings `yaml:",inline" mapstructure:",squash"`
//	    Database DatabaseConfig `yaml:"database" mapstructure:"database"`
//	}
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	GetSettings() *Settings
	ApplyDefaults()
	Validate() error
}

// Settings is the configuration every orchestrated service shares.
type Settings struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Orchestrator  orchestrator.Config         `yaml:"orchestrator" mapstructure:"orchestrator"`
	Components    map[string]component.Policy `yaml:"components" mapstructure:"components"`
	StatusAPI     statusapi.Config            `yaml:"status_api" mapstructure:"status_api"`
	Observability observability.Config        `yaml:"observability" mapstructure:"observability"`

	GracefulTimeout time.Duration `yaml:"graceful_timeout" mapstructure:"graceful_timeout"`
}

// GetSettings returns the shared settings. The method is promoted through
// embedding.
func (s *Settings) GetSettings() *Settings {
	return s
}

// ApplyDefaults fills every section.
func (s *Settings) ApplyDefaults() {
	s.ServiceConfig.ApplyDefaults()
	s.Orchestrator.ApplyDefaults()
	s.StatusAPI.ApplyDefaults()
	s.Observability.ApplyDefaults()
	if s.GracefulTimeout == 0 {
		s.GracefulTimeout = DefaultGracefulTimeout
	}
}

// Validate validates every section, reporting the first failure.
func (s *Settings) Validate() error {
	if err := s.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := s.Orchestrator.Validate(); err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}
	if err := s.StatusAPI.Validate(); err != nil {
		return fmt.Errorf("status_api: %w", err)
	}
	if err := s.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if s.GracefulTimeout < 0 {
		return fmt.Errorf("graceful_timeout must be non-negative (got: %s)", s.GracefulTimeout)
	}
	return nil
}
