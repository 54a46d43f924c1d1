package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/orchestrator/component"
	"github.com/kbukum/orchestrator/errors"
)

// entry is the store record of one component. desc never changes after
// registration. work serializes lifecycle operations (start, stop, health
// check, restart) on the component; status is guarded by the store lock.
type entry struct {
	desc   component.Descriptor
	status component.Status
	work   sync.Mutex
}

// StatusStore is the single source of truth for component state. Reads
// return copies; all writes go through the orchestrator.
type StatusStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

// NewStatusStore creates an empty store.
func NewStatusStore() *StatusStore {
	return &StatusStore{entries: make(map[string]*entry)}
}

func (s *StatusStore) add(d component.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[d.Name]; exists {
		return errors.DuplicateComponent(d.Name)
	}
	s.entries[d.Name] = &entry{
		desc: d,
		status: component.Status{
			Name:         d.Name,
			State:        component.StateUninitialized,
			Optional:     d.Optional,
			Dependencies: append([]string(nil), d.Dependencies...),
			MaxRestarts:  d.MaxRestartAttempts,
		},
	}
	s.order = append(s.order, d.Name)
	return nil
}

func (s *StatusStore) entry(name string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, errors.NotFound("component", name)
	}
	return e, nil
}

// Get returns a copy of the status of name, or a NOT_FOUND error.
func (s *StatusStore) Get(name string) (component.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return component.Status{}, errors.NotFound("component", name)
	}
	return snapshot(&e.status, time.Now()), nil
}

// Snapshot returns a copy of every status keyed by name.
func (s *StatusStore) Snapshot() map[string]component.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	out := make(map[string]component.Status, len(s.entries))
	for name, e := range s.entries {
		out[name] = snapshot(&e.status, now)
	}
	return out
}

// List returns a copy of every status in registration order.
func (s *StatusStore) List() []component.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	out := make([]component.Status, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, snapshot(&s.entries[name].status, now))
	}
	return out
}

// Names returns registered names in registration order.
func (s *StatusStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Len returns the number of registered components.
func (s *StatusStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *StatusStore) update(e *entry, fn func(st *component.Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&e.status)
}

func (s *StatusStore) read(e *entry) component.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return e.status.Clone()
}

// transition moves e to next if the state machine allows it and returns the
// previous state. Moving to the current state is a no-op.
func (s *StatusStore) transition(e *entry, next component.State) (component.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := e.status.State
	if from == next {
		return from, nil
	}
	if !from.CanTransition(next) {
		return from, errors.Conflict(fmt.Sprintf("illegal transition %s -> %s for component %q", from, next, e.desc.Name)).
			WithDetail("component", e.desc.Name)
	}
	e.status.State = next
	return from, nil
}

func snapshot(st *component.Status, now time.Time) component.Status {
	out := st.Clone()
	if out.State == component.StateRunning && out.StartTime != nil {
		out.Uptime = now.Sub(*out.StartTime)
	}
	return out
}
