package statusapi

import (
	"github.com/kbukum/orchestrator/validation"
)

// Config holds status API server configuration. Timeouts are in seconds.
type Config struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout int `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8081
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5
	}
}

// Validate checks the configuration for invalid values. A disabled API is
// always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New().
		Check(c.Port >= 0 && c.Port <= 65535, "status_api.port", "must be between 0 and 65535").
		Check(c.ReadTimeout >= 0, "status_api.read_timeout", "must be non-negative").
		Check(c.WriteTimeout >= 0, "status_api.write_timeout", "must be non-negative").
		Check(c.IdleTimeout >= 0, "status_api.idle_timeout", "must be non-negative").
		Check(c.ShutdownTimeout >= 0, "status_api.shutdown_timeout", "must be non-negative")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
