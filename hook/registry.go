package hook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Named entry types pair a hook implementation with the hook name
// captured at registration time. This avoids type-asserting back to
// Hook inside the emit methods.
type enqueuedEntry struct {
	name string
	hook Enqueued
}

type startedEntry struct {
	name string
	hook Started
}

type completedEntry struct {
	name string
	hook Completed
}

type failedEntry struct {
	name string
	hook Failed
}

type retryingEntry struct {
	name string
	hook Retrying
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls
// iterate only over hooks that implement the relevant event.
// It is safe for concurrent use: hooks may be registered while the
// drain loop is emitting.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	// Type-cached slices for each lifecycle event.
	enqueued  []enqueuedEntry
	started   []startedEntry
	completed []completedEntry
	failed    []failedEntry
	retrying  []retryingEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable event
// caches. Hooks are notified in registration order.
func (r *Registry) Register(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, h)
	name := h.Name()

	if e, ok := h.(Enqueued); ok {
		r.enqueued = append(r.enqueued, enqueuedEntry{name, e})
	}
	if e, ok := h.(Started); ok {
		r.started = append(r.started, startedEntry{name, e})
	}
	if e, ok := h.(Completed); ok {
		r.completed = append(r.completed, completedEntry{name, e})
	}
	if e, ok := h.(Failed); ok {
		r.failed = append(r.failed, failedEntry{name, e})
	}
	if e, ok := h.(Retrying); ok {
		r.retrying = append(r.retrying, retryingEntry{name, e})
	}
}

// Hooks returns all registered hooks.
func (r *Registry) Hooks() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// EmitEnqueued notifies all hooks that implement Enqueued.
func (r *Registry) EmitEnqueued(ctx context.Context, n *Notification, position int) {
	r.mu.RLock()
	entries := r.enqueued
	r.mu.RUnlock()
	for _, e := range entries {
		if err := e.hook.OnEnqueued(ctx, n, position); err != nil {
			r.logHookError("OnEnqueued", e.name, err)
		}
	}
}

// EmitStarted notifies all hooks that implement Started.
func (r *Registry) EmitStarted(ctx context.Context, n *Notification, attempt int) {
	r.mu.RLock()
	entries := r.started
	r.mu.RUnlock()
	for _, e := range entries {
		if err := e.hook.OnStarted(ctx, n, attempt); err != nil {
			r.logHookError("OnStarted", e.name, err)
		}
	}
}

// EmitCompleted notifies all hooks that implement Completed.
func (r *Registry) EmitCompleted(ctx context.Context, n *Notification, elapsed time.Duration) {
	r.mu.RLock()
	entries := r.completed
	r.mu.RUnlock()
	for _, e := range entries {
		if err := e.hook.OnCompleted(ctx, n, elapsed); err != nil {
			r.logHookError("OnCompleted", e.name, err)
		}
	}
}

// EmitFailed notifies all hooks that implement Failed.
func (r *Registry) EmitFailed(ctx context.Context, n *Notification, failErr error) {
	r.mu.RLock()
	entries := r.failed
	r.mu.RUnlock()
	for _, e := range entries {
		if err := e.hook.OnFailed(ctx, n, failErr); err != nil {
			r.logHookError("OnFailed", e.name, err)
		}
	}
}

// EmitRetrying notifies all hooks that implement Retrying.
func (r *Registry) EmitRetrying(ctx context.Context, n *Notification, attempt int, delay time.Duration) {
	r.mu.RLock()
	entries := r.retrying
	r.mu.RUnlock()
	for _, e := range entries {
		if err := e.hook.OnRetrying(ctx, n, attempt, delay); err != nil {
			r.logHookError("OnRetrying", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block delivery.
func (r *Registry) logHookError(event, hookName string, err error) {
	r.logger.Warn("lifecycle hook error",
		slog.String("event", event),
		slog.String("hook", hookName),
		slog.String("error", err.Error()),
	)
}
