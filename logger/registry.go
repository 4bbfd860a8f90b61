package logger

import "sync"

var (
	namedMu sync.RWMutex
	named   = map[string]*Logger{}
)

// Register makes l the logger Get returns for name.
func Register(name string, l *Logger) {
	namedMu.Lock()
	named[name] = l
	namedMu.Unlock()
}

// Get returns the logger registered for name. Unregistered names get the
// global logger tagged with component=name, built on every call.
func Get(name string) *Logger {
	namedMu.RLock()
	l, ok := named[name]
	namedMu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults registers a component logger derived from base for each
// name, replacing earlier registrations. A nil base uses the global logger,
// so call it after Init.
func RegisterDefaults(base *Logger, names ...string) {
	if base == nil {
		base = GetGlobalLogger()
	}
	namedMu.Lock()
	defer namedMu.Unlock()
	for _, name := range names {
		named[name] = base.WithComponent(name)
	}
}
