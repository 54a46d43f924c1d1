package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/kbukum/orchestrator/component"
)

// Probe is a component that watches an external HTTP or TCP endpoint.
// Initialize fails until the endpoint answers; HealthCheck repeats the check.
type Probe struct {
	name   string
	config Config
	client *http.Client
	dialer net.Dialer
}

var (
	_ component.Initializable   = (*Probe)(nil)
	_ component.HealthCheckable = (*Probe)(nil)
	_ component.Stoppable       = (*Probe)(nil)
	_ component.Describable     = (*Probe)(nil)
)

// New creates a probe. cfg gets defaults applied and is validated.
func New(name string, cfg Config) (*Probe, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("probe %s: %w", name, err)
	}
	return &Probe{name: name, config: cfg, dialer: net.Dialer{Timeout: cfg.Timeout}}, nil
}

// Factory returns a component factory building a fresh probe per call.
func Factory(name string, cfg Config) component.Factory {
	return func(ctx context.Context) (component.Component, error) {
		return New(name, cfg)
	}
}

// Name returns the component name.
func (p *Probe) Name() string { return p.name }

// Initialize creates the HTTP client and runs a first check.
func (p *Probe) Initialize(ctx context.Context) error {
	if p.config.Kind == KindHTTP {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		p.client = &http.Client{Transport: transport, Timeout: p.config.Timeout}
	}
	return p.check(ctx)
}

// HealthCheck repeats the check.
func (p *Probe) HealthCheck(ctx context.Context) error {
	return p.check(ctx)
}

// Stop releases idle connections.
func (p *Probe) Stop(_ context.Context) error {
	if p.client != nil {
		p.client.CloseIdleConnections()
	}
	return nil
}

// Describe returns the probe target for the status summary.
func (p *Probe) Describe() component.Description {
	d := component.Description{Name: p.name, Type: p.config.Kind + "-probe", Details: p.config.URL}
	if p.config.Kind == KindTCP {
		d.Details = p.config.Address
	}
	return d
}

func (p *Probe) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	if p.config.Kind == KindTCP {
		conn, err := p.dialer.DialContext(ctx, "tcp", p.config.Address)
		if err != nil {
			return err
		}
		return conn.Close()
	}

	if p.client == nil {
		return fmt.Errorf("probe %s not initialized", p.name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, http.NoBody)
	if err != nil {
		return err
	}
	for k, v := range p.config.Headers {
		req.Header.Set(k, v)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	if want := p.config.ExpectStatus; want != 0 {
		if resp.StatusCode != want {
			return fmt.Errorf("%s answered %d, want %d", p.config.URL, resp.StatusCode, want)
		}
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s answered %d", p.config.URL, resp.StatusCode)
	}
	return nil
}
