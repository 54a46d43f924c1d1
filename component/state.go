package component

import "time"

// State is a component's position in the lifecycle state machine.
type State string

const (
	StateUninitialized State = "UNINITIALIZED"
	StateInitializing  State = "INITIALIZING"
	StateRunning       State = "RUNNING"
	StateStopping      State = "STOPPING"
	StateStopped       State = "STOPPED"
	StateError         State = "ERROR"
	StateRecovering    State = "RECOVERING"
)

var transitions = map[State][]State{
	StateUninitialized: {StateInitializing},
	StateInitializing:  {StateRunning, StateError},
	StateRunning:       {StateStopping, StateError, StateRecovering},
	StateError:         {StateRecovering, StateStopping},
	StateRecovering:    {StateRunning, StateError},
	StateStopping:      {StateStopped},
	StateStopped:       {StateInitializing},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether a component in this state holds a live instance
// that needs stopping.
func (s State) Active() bool {
	switch s {
	case StateRunning, StateError, StateRecovering, StateInitializing:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// Status is the lifecycle record of one component.
type Status struct {
	Name            string        `json:"name"`
	State           State         `json:"state"`
	Optional        bool          `json:"optional"`
	Dependencies    []string      `json:"dependencies,omitempty"`
	LastHealthCheck *time.Time    `json:"last_health_check,omitempty"`
	RestartCount    int           `json:"restart_count"`
	MaxRestarts     int           `json:"max_restart_attempts"`
	Exhausted       bool          `json:"exhausted"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	StartTime       *time.Time    `json:"start_time,omitempty"`
	StopTime        *time.Time    `json:"stop_time,omitempty"`
	Uptime          time.Duration `json:"uptime,omitempty"`
	Capabilities    []string      `json:"capabilities,omitempty"`
	Description     *Description  `json:"description,omitempty"`

	// Instance is owned by the lifecycle manager. It is never serialized.
	Instance Component `json:"-"`
}

// Clone returns a copy that shares no mutable memory with s.
func (s *Status) Clone() Status {
	out := *s
	out.Dependencies = append([]string(nil), s.Dependencies...)
	out.Capabilities = append([]string(nil), s.Capabilities...)
	if s.LastHealthCheck != nil {
		t := *s.LastHealthCheck
		out.LastHealthCheck = &t
	}
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	if s.StopTime != nil {
		t := *s.StopTime
		out.StopTime = &t
	}
	if s.Description != nil {
		d := *s.Description
		out.Description = &d
	}
	return out
}
