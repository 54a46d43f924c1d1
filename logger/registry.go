package logger

import (
	"sync"
)

// Subsystem logger names used by the orchestrator.
const (
	NameOrchestrator = "orchestrator"
	NameMonitor      = "health-monitor"
	NameSupervisor   = "restart-supervisor"
	NameStatusAPI    = "status-api"
)

// registry is the global named-logger registry.
var registry = &loggerRegistry{
	loggers: make(map[string]*Logger),
}

type loggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

// Register stores a named logger in the registry.
func Register(name string, l *Logger) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.loggers[name] = l
}

// Get retrieves a named logger. If the name is not registered it returns the
// global logger tagged with the requested subsystem name.
func Get(name string) *Logger {
	registry.mu.RLock()
	l, ok := registry.loggers[name]
	registry.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithSubsystem(name)
}

// RegisterDefaults seeds the registry with the orchestrator subsystem loggers.
// Call this after Init().
func RegisterDefaults() {
	for _, name := range []string{NameOrchestrator, NameMonitor, NameSupervisor, NameStatusAPI} {
		Register(name, GetGlobalLogger().WithSubsystem(name))
	}
}
