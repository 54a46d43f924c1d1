package testutil

import (
	"strings"
	"sync"
)

// Recorder is an ordered, concurrency-safe event log. ScriptedComponents
// record "<name>:<hook>" into it.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Record appends an event.
func (r *Recorder) Record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of every event in order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Hook returns, in order, the component names that recorded hook.
func (r *Recorder) Hook(hook string) []string {
	var names []string
	for _, e := range r.Events() {
		if name, h, ok := strings.Cut(e, ":"); ok && h == hook {
			names = append(names, name)
		}
	}
	return names
}

// Index returns the position of the first occurrence of event, or -1.
func (r *Recorder) Index(event string) int {
	for i, e := range r.Events() {
		if e == event {
			return i
		}
	}
	return -1
}

// Reset clears the log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
