// Package middleware provides composable middleware for handler
// invocation. Middleware wraps each delivery attempt synchronously and
// can modify execution (recover from panics, log, record metrics, add
// tracing, etc.).
package middleware

import (
	"context"

	"github.com/courierkit/courier/id"
)

// Invocation describes one attempt to deliver a job to its handler.
type Invocation struct {
	// JobID is the queued job's identifier.
	JobID id.NotificationID

	// Service is the registered channel name being invoked.
	Service string

	// Payload is the raw request payload.
	Payload []byte

	// Attempt is the zero-based attempt number under the retry budget.
	Attempt int
}

// Handler is the terminal function that invokes the registered handler.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic. It receives the
// current context, the invocation being executed, and the next handler
// to call. Middleware MUST call next to continue the chain (unless
// short-circuiting on error).
type Middleware func(ctx context.Context, inv *Invocation, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover) executes as:
//
//	logging → recover → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, inv, prev)
			}
		}
		return h(ctx)
	}
}
