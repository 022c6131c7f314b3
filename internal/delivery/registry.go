// internal/delivery/registry.go
package delivery

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Handler delivers a status message to one sink.
type Handler func(message string) error

// Registry fans engine status messages out to named sinks (the log, the
// status file read by `worktrack status`).
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds or replaces the sink called name.
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Unregister removes the sink called name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Deliver sends message to the sink called name.
func (r *Registry) Deliver(name, message string) error {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no delivery handler named %s", name)
	}
	return handler(message)
}

// Broadcast sends message to every sink in name order. Every sink is tried;
// failures are joined into the returned error.
func (r *Registry) Broadcast(message string) error {
	r.mu.RLock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	handlers := make([]Handler, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		handlers = append(handlers, r.handlers[name])
	}
	r.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := handler(message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}
