package probe

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/orchestrator/validation"
)

// Probe kinds.
const (
	KindHTTP = "http"
	KindTCP  = "tcp"
)

const defaultTimeout = 5 * time.Second

// Config describes one external dependency to watch.
type Config struct {
	// Kind is "http" (default) or "tcp".
	Kind string `yaml:"kind" mapstructure:"kind" validate:"omitempty,oneof=http tcp"`

	// URL is requested by http probes. Any status below 400 is healthy
	// unless ExpectStatus is set.
	URL          string            `yaml:"url" mapstructure:"url"`
	ExpectStatus int               `yaml:"expect_status" mapstructure:"expect_status" validate:"omitempty,gte=100,lte=599"`
	Headers      map[string]string `yaml:"headers" mapstructure:"headers"`

	// Address is dialed by tcp probes, as host:port.
	Address string `yaml:"address" mapstructure:"address"`

	// Timeout bounds a single check. Defaults to 5s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = KindHTTP
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid for its kind.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	v := validation.New()
	switch c.Kind {
	case KindHTTP:
		u, err := url.Parse(c.URL)
		v.Check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "", "url",
			fmt.Sprintf("must be an absolute http(s) URL (got: %q)", c.URL))
	case KindTCP:
		v.Required("address", c.Address)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
