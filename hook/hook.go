// Package hook defines the lifecycle hook system for Courier.
// Hooks are notified of notification lifecycle events (enqueued,
// started, completed, failed, retrying) and can react to them —
// auditing, metrics, alerting, etc.
//
// Each lifecycle event is a separate interface so hooks opt in only to
// the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/courierkit/courier/id"
)

// Notification describes the queued notification a lifecycle event
// refers to.
type Notification struct {
	// ID is the notification's queue identifier.
	ID id.NotificationID

	// Service is the registered channel the notification targets.
	Service string

	// Payload is the raw request payload.
	Payload []byte
}

// Hook is the base interface all hooks must implement.
type Hook interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// Enqueued is called after a notification is placed on the queue.
type Enqueued interface {
	OnEnqueued(ctx context.Context, n *Notification, position int) error
}

// Started is called when the drain loop begins a delivery attempt.
type Started interface {
	OnStarted(ctx context.Context, n *Notification, attempt int) error
}

// Completed is called after a notification is delivered successfully.
type Completed interface {
	OnCompleted(ctx context.Context, n *Notification, elapsed time.Duration) error
}

// Failed is called when a notification fails terminally (unknown
// service, or retry budget exhausted).
type Failed interface {
	OnFailed(ctx context.Context, n *Notification, err error) error
}

// Retrying is called when a delivery attempt fails but another attempt
// remains in the budget.
type Retrying interface {
	OnRetrying(ctx context.Context, n *Notification, attempt int, delay time.Duration) error
}
