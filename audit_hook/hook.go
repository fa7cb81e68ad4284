package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/courierkit/courier/hook"
)

// Compile-time interface checks.
var (
	_ hook.Hook      = (*Hook)(nil)
	_ hook.Enqueued  = (*Hook)(nil)
	_ hook.Started   = (*Hook)(nil)
	_ hook.Completed = (*Hook)(nil)
	_ hook.Failed    = (*Hook)(nil)
	_ hook.Retrying  = (*Hook)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Hook bridges notification lifecycle events to an audit trail
// backend. Each lifecycle event emits a structured audit event through
// the [Recorder].
type Hook struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates a Hook that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Hook {
	h := &Hook{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name implements hook.Hook.
func (h *Hook) Name() string { return "audit-hook" }

// OnEnqueued implements hook.Enqueued.
func (h *Hook) OnEnqueued(ctx context.Context, n *hook.Notification, position int) error {
	return h.record(ctx, ActionEnqueued, SeverityInfo, OutcomeSuccess, n.ID.String(), nil,
		"service", n.Service,
		"position", position,
	)
}

// OnStarted implements hook.Started.
func (h *Hook) OnStarted(ctx context.Context, n *hook.Notification, attempt int) error {
	return h.record(ctx, ActionStarted, SeverityInfo, OutcomeSuccess, n.ID.String(), nil,
		"service", n.Service,
		"attempt", attempt,
	)
}

// OnCompleted implements hook.Completed.
func (h *Hook) OnCompleted(ctx context.Context, n *hook.Notification, elapsed time.Duration) error {
	return h.record(ctx, ActionCompleted, SeverityInfo, OutcomeSuccess, n.ID.String(), nil,
		"service", n.Service,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnFailed implements hook.Failed.
func (h *Hook) OnFailed(ctx context.Context, n *hook.Notification, failErr error) error {
	return h.record(ctx, ActionFailed, SeverityCritical, OutcomeFailure, n.ID.String(), failErr,
		"service", n.Service,
	)
}

// OnRetrying implements hook.Retrying.
func (h *Hook) OnRetrying(ctx context.Context, n *hook.Notification, attempt int, delay time.Duration) error {
	return h.record(ctx, ActionRetrying, SeverityWarning, OutcomeFailure, n.ID.String(), nil,
		"service", n.Service,
		"attempt", attempt,
		"delay_ms", delay.Milliseconds(),
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (h *Hook) record(
	ctx context.Context,
	action, severity, outcome string,
	resourceID string,
	err error,
	kvPairs ...any,
) error {
	if h.enabled != nil && !h.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceNotification,
		Category:   CategoryNotification,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := h.recorder.Record(ctx, evt); recErr != nil {
		h.logger.Warn("audithook: failed to record audit event",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", recErr.Error()),
		)
	}
	return nil
}
