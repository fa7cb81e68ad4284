// Package service maps notification channel names to their handlers.
// A handler is an ordinary async-safe Go function implementing a named
// channel (email, SMS, chat). The last registration for a name wins.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/courierkit/courier"
)

// HandlerFunc is a type-erased notification handler that accepts a raw
// JSON payload and returns a raw JSON result. The typed Definition[T, R]
// is converted to a HandlerFunc at registration time by closing over
// JSON marshaling + the typed handler.
//
// Handlers must be idempotent-safe: the same payload may be delivered
// more than once under retry.
type HandlerFunc func(ctx context.Context, payload []byte) (json.RawMessage, error)

// Registry maps service names to type-erased handler functions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty service registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register stores handler under name, overwriting any previous
// registration for that name.
func (r *Registry) Register(name string, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Get returns the handler for the given service name.
// Returns false if no handler is registered.
func (r *Registry) Get(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Resolve returns the handler for the given service name, or an error
// wrapping courier.ErrServiceNotFound. A missing registration is a
// first-class error condition, never a silent no-op.
func (r *Registry) Resolve(name string) (HandlerFunc, error) {
	h, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("service %q: %w", name, courier.ErrServiceNotFound)
	}
	return h, nil
}

// Names returns all registered service names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
