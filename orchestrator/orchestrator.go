package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/dag"
	"github.com/kbukum/orchestrator/errors"
	"github.com/kbukum/orchestrator/logger"
	"github.com/kbukum/orchestrator/observability"
	"github.com/kbukum/orchestrator/resilience"
)

// FatalEvent reports that a required component exhausted its restart
// attempts and stays in ERROR.
type FatalEvent struct {
	ID        string    `json:"id"`
	Component string    `json:"component"`
	Attempts  int       `json:"attempts"`
	Err       error     `json:"-"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Orchestrator registers components, starts them in dependency order,
// watches their health and restarts them within their limits.
type Orchestrator struct {
	name     string
	cfg      Config
	baseLog  *logger.Logger
	log      *logger.Logger
	monLog   *logger.Logger
	supLog   *logger.Logger
	metrics  *observability.LifecycleMetrics
	policies map[string]component.Policy
	store    *StatusStore

	mu        sync.Mutex
	started   bool
	closed    bool
	order     []string
	startedAt time.Time
	runCtx    context.Context
	runCancel context.CancelFunc
	monStop   chan struct{}
	monDone   chan struct{}

	restarts     *resilience.Bulkhead
	restartGroup singleflight.Group

	fatal        chan FatalEvent
	fatalHandler func(FatalEvent)
}

// New creates an orchestrator with no components.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		name:     "orchestrator",
		policies: make(map[string]component.Policy),
		store:    NewStatusStore(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.cfg.ApplyDefaults()

	if o.baseLog == nil {
		o.log = logger.Get(logger.NameOrchestrator)
		o.monLog = logger.Get(logger.NameMonitor)
		o.supLog = logger.Get(logger.NameSupervisor)
	} else {
		o.log = o.baseLog.WithSubsystem(logger.NameOrchestrator)
		o.monLog = o.baseLog.WithSubsystem(logger.NameMonitor)
		o.supLog = o.baseLog.WithSubsystem(logger.NameSupervisor)
	}

	o.restarts = resilience.NewBulkhead(resilience.BulkheadConfig{
		Name:          "restarts",
		MaxConcurrent: o.cfg.RestartWorkers,
		OnReject: func(string) {
			o.supLog.Debug("Restart cancelled before a worker was free")
		},
	})
	o.fatal = make(chan FatalEvent, o.cfg.FatalBuffer)
	return o
}

// Name returns the orchestrator name.
func (o *Orchestrator) Name() string { return o.name }

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Register adds a component. The descriptor is copied, a configured policy
// for its name is applied, defaults are filled and the result is validated.
// Dependencies are not checked until StartAll.
func (o *Orchestrator) Register(desc component.Descriptor) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errors.Conflict("orchestrator is closed")
	}
	if o.started {
		return errors.Conflict("cannot register components while the orchestrator is running").
			WithDetail("component", desc.Name)
	}

	d := desc.Clone()
	if p, ok := o.policies[d.Name]; ok {
		d = d.WithPolicy(p)
	}
	d.ApplyDefaults()
	if err := d.Validate(); err != nil {
		return err
	}
	if err := o.store.add(d); err != nil {
		return err
	}

	o.log.Debug("Component registered", logger.Fields(
		logger.FieldComponent, d.Name,
		logger.FieldDependencies, d.Dependencies,
		logger.FieldOptional, d.Optional,
	))
	return nil
}

// MustRegister is Register that panics on error.
func (o *Orchestrator) MustRegister(descs ...component.Descriptor) {
	for _, d := range descs {
		if err := o.Register(d); err != nil {
			panic(err)
		}
	}
}

// GetStatus returns the status of one component, or a NOT_FOUND error.
func (o *Orchestrator) GetStatus(name string) (component.Status, error) {
	return o.store.Get(name)
}

// GetAllStatus returns the status of every registered component.
func (o *Orchestrator) GetAllStatus() map[string]component.Status {
	return o.store.Snapshot()
}

// Statuses returns every status in registration order.
func (o *Orchestrator) Statuses() []component.Status {
	return o.store.List()
}

// Order returns the startup order of the registered components.
func (o *Orchestrator) Order() ([]string, error) {
	return o.graph().Resolve()
}

// RestartPool reports how many restart workers are busy and the pool size.
func (o *Orchestrator) RestartPool() (busy, size int) {
	return o.restarts.InUse(), o.restarts.MaxConcurrent()
}

// Levels groups the registered components into startup tiers: each tier
// depends only on earlier ones.
func (o *Orchestrator) Levels() ([][]string, error) {
	return o.graph().BuildLevels()
}

func (o *Orchestrator) graph() *dag.Graph {
	g := dag.New()
	for _, name := range o.store.Names() {
		e, _ := o.store.entry(name)
		// Names are unique in the store, so AddNode cannot fail.
		_ = g.AddNode(name, e.desc.Dependencies...)
	}
	return g
}

// Running reports whether StartAll has run and StopAll has not.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

// Ready reports whether the orchestrator is running and every required
// component is RUNNING.
func (o *Orchestrator) Ready() bool {
	if !o.Running() {
		return false
	}
	for _, st := range o.store.List() {
		if !st.Optional && st.State != component.StateRunning {
			return false
		}
	}
	return true
}

// Fatal delivers fatal events. The channel is never closed.
func (o *Orchestrator) Fatal() <-chan FatalEvent {
	return o.fatal
}

// Close stops everything and rejects further StartAll and Register calls.
func (o *Orchestrator) Close(ctx context.Context) error {
	err := o.StopAll(ctx)
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) componentLog(name string) *logger.Logger {
	return o.log.WithFields(logger.Fields(logger.FieldComponent, name))
}
