// Package engine wires all Courier subsystems together. It owns the
// service registry, the notification queue, the retry policy, the
// status store, the middleware chain, and the hook registry, and
// provides the Register/Dispatch/Status operations.
//
// This package exists to break the import cycle: the root courier
// package defines Config and the sentinel errors (imported by service,
// status, etc.) and so cannot import those packages back. The engine
// package sits above all subsystem packages and below the application
// layer.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/courierkit/courier"
	"github.com/courierkit/courier/hook"
	"github.com/courierkit/courier/id"
	mw "github.com/courierkit/courier/middleware"
	"github.com/courierkit/courier/queue"
	"github.com/courierkit/courier/retry"
	"github.com/courierkit/courier/service"
	"github.com/courierkit/courier/status"
	"github.com/courierkit/courier/status/memory"
)

// Engine is the notification delivery engine. Create one with New,
// register services, then Dispatch requests to them.
type Engine struct {
	cfg      courier.Config
	logger   *slog.Logger
	registry *service.Registry
	queue    *queue.Queue
	statuses status.Store
	hooks    *hook.Registry
	chain    mw.Middleware

	// Captured by options, applied during construction.
	userMws      []mw.Middleware
	pendingHooks []hook.Hook

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration. Out-of-range fields are
// replaced with defaults. Without this option the engine reads its
// configuration from the environment.
func WithConfig(cfg courier.Config) Option {
	return func(eng *Engine) {
		eng.cfg = cfg
	}
}

// WithLogger sets the structured logger used by the engine and every
// subsystem it constructs.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		eng.logger = l
	}
}

// WithStatusStore sets the status record backend. Defaults to the
// in-process memory store.
func WithStatusStore(s status.Store) Option {
	return func(eng *Engine) {
		eng.statuses = s
	}
}

// WithMiddleware appends middleware to the engine's chain, after the
// built-in recover/tracing/metrics/logging stack.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.userMws = append(eng.userMws, m)
	}
}

// WithHook registers a lifecycle hook with the engine.
func WithHook(h hook.Hook) Option {
	return func(eng *Engine) {
		eng.pendingHooks = append(eng.pendingHooks, h)
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// New creates a delivery engine. With no options it uses environment
// configuration, a memory status store, and the default logger.
func New(opts ...Option) *Engine {
	eng := &Engine{
		cfg:    courier.FromEnv(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	eng.cfg = eng.cfg.Normalized()

	if eng.statuses == nil {
		eng.statuses = memory.New()
	}
	eng.registry = service.NewRegistry()

	eng.hooks = hook.NewRegistry(eng.logger)
	for _, h := range eng.pendingHooks {
		eng.hooks.Register(h)
	}
	eng.pendingHooks = nil

	eng.queue = queue.New(
		queue.WithWidth(eng.cfg.Concurrency),
		queue.WithRateLimit(eng.cfg.RateLimit, eng.cfg.RateBurst),
		queue.WithLogger(eng.logger),
	)

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/courierkit/courier")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/courierkit/courier")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging,
	// then user middleware innermost.
	all := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
	}
	all = append(all, eng.userMws...)
	eng.chain = mw.Chain(all...)
	eng.userMws = nil

	return eng
}

// Register registers a typed service definition with the engine.
func Register[T, R any](eng *Engine, def *service.Definition[T, R]) {
	service.RegisterDefinition(eng.registry, def)
}

// RegisterFunc registers a type-erased handler under the given service
// name, overwriting any previous registration.
func (eng *Engine) RegisterFunc(name string, h service.HandlerFunc) {
	eng.registry.Register(name, h)
}

// Delivery is the dispatcher's handle on a queued notification.
type Delivery struct {
	id id.NotificationID
	q  *queue.Queue
}

// ID returns the notification's queue identifier.
func (d *Delivery) ID() id.NotificationID { return d.id }

// Position returns the notification's 1-based place in the pending
// queue. The second return is false once the notification has started
// executing or finished.
func (d *Delivery) Position() (int, bool) {
	pos, ok := d.q.Position(d.id)
	if !ok {
		return 0, false
	}
	return pos + 1, true
}

// Dispatch marshals a typed payload and enqueues it for delivery to
// the named service. It returns as soon as the notification is queued;
// delivery happens asynchronously on the drain loop.
func Dispatch[T any](ctx context.Context, eng *Engine, serviceName string, payload T) (*Delivery, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for service %q: %w", serviceName, err)
	}
	return eng.DispatchRaw(ctx, serviceName, data)
}

// DispatchRaw enqueues a pre-serialized payload for delivery to the
// named service. The initial pending status record is persisted before
// the notification enters the queue, so a terminal record written by a
// fast delivery can never be overwritten by the pending one.
func (eng *Engine) DispatchRaw(ctx context.Context, serviceName string, payload []byte) (*Delivery, error) {
	j := queue.NewJob(payload, eng.deliverAction(serviceName))

	// The record must exist before the job can run, so its position is
	// the rank the job will take; Status always merges the live rank on
	// read.
	pos := eng.queue.Size() + 1
	rec := &status.Record{
		Position:  &pos,
		Timestamp: status.Now(),
	}
	if err := eng.statuses.Set(ctx, j.ID.String(), rec); err != nil {
		// The status layer is an observer of delivery, not a gate on it.
		eng.logger.Warn("failed to write initial status record",
			slog.String("job_id", j.ID.String()),
			slog.String("service", serviceName),
			slog.String("error", err.Error()),
		)
	}

	rank := eng.queue.EnqueueJob(j)

	n := &hook.Notification{ID: j.ID, Service: serviceName, Payload: payload}
	eng.hooks.EmitEnqueued(ctx, n, rank)

	eng.logger.Debug("notification dispatched",
		slog.String("job_id", j.ID.String()),
		slog.String("service", serviceName),
		slog.Int("position", rank),
	)

	return &Delivery{id: j.ID, q: eng.queue}, nil
}

// deliverAction builds the queue action for one notification: resolve
// the handler, invoke it through the middleware chain under the retry
// policy, and record the terminal outcome.
func (eng *Engine) deliverAction(serviceName string) queue.Action {
	return func(ctx context.Context, j *queue.Job) error {
		n := &hook.Notification{ID: j.ID, Service: serviceName, Payload: j.Payload}
		policy := retry.Policy{MaxRetries: eng.cfg.MaxRetries, Delay: eng.cfg.RetryDelay}

		start := time.Now()
		var result json.RawMessage

		err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
			eng.hooks.EmitStarted(ctx, n, attempt)

			inv := &mw.Invocation{
				JobID:   j.ID,
				Service: serviceName,
				Payload: j.Payload,
				Attempt: attempt,
			}
			attemptErr := eng.chain(ctx, inv, func(ctx context.Context) error {
				handler, resolveErr := eng.registry.Resolve(serviceName)
				if resolveErr != nil {
					// Retrying cannot fix a missing registration.
					return retry.Permanent(resolveErr)
				}
				out, handlerErr := handler(ctx, j.Payload)
				if handlerErr != nil {
					return handlerErr
				}
				result = out
				return nil
			})

			if attemptErr != nil && attempt < policy.MaxRetries && !retry.IsPermanent(attemptErr) {
				eng.hooks.EmitRetrying(ctx, n, attempt, policy.Delay)
			}
			return attemptErr
		})

		elapsed := time.Since(start)

		if err != nil {
			eng.recordFailure(ctx, n, err)
			return err
		}

		eng.recordCompletion(ctx, n, result, elapsed)
		return nil
	}
}

// recordCompletion persists the terminal success record and notifies
// hooks.
func (eng *Engine) recordCompletion(ctx context.Context, n *hook.Notification, result json.RawMessage, elapsed time.Duration) {
	rec := &status.Record{
		Data:      result,
		Completed: true,
		Timestamp: status.Now(),
	}
	if err := eng.statuses.Set(ctx, n.ID.String(), rec); err != nil {
		eng.logger.Warn("failed to write completed status record",
			slog.String("job_id", n.ID.String()),
			slog.String("service", n.Service),
			slog.String("error", err.Error()),
		)
	}
	eng.hooks.EmitCompleted(ctx, n, elapsed)
}

// recordFailure persists the terminal failure record and notifies
// hooks. Failures other than an unknown service are marked as retry
// exhaustion.
func (eng *Engine) recordFailure(ctx context.Context, n *hook.Notification, failErr error) {
	if !isServiceNotFound(failErr) {
		failErr = fmt.Errorf("%w: %w", courier.ErrRetryExhausted, failErr)
	}

	rec := &status.Record{
		Failed:    true,
		Error:     failErr.Error(),
		Timestamp: status.Now(),
	}
	if err := eng.statuses.Set(ctx, n.ID.String(), rec); err != nil {
		eng.logger.Warn("failed to write failed status record",
			slog.String("job_id", n.ID.String()),
			slog.String("service", n.Service),
			slog.String("error", err.Error()),
		)
	}
	eng.hooks.EmitFailed(ctx, n, failErr)
}

// isServiceNotFound reports whether err is the unknown-service
// condition, which is terminal without retry.
func isServiceNotFound(err error) bool {
	return errors.Is(err, courier.ErrServiceNotFound)
}

// Status returns the notification's status record. Terminal records
// are returned as stored; pending records get their Position field
// refreshed with the live 1-based queue rank, or cleared if the
// notification is already executing.
func (eng *Engine) Status(ctx context.Context, nid id.NotificationID) (*status.Record, error) {
	rec, err := eng.statuses.Get(ctx, nid.String())
	if err != nil {
		return nil, err
	}
	if rec.Terminal() {
		return rec, nil
	}

	if pos, ok := eng.queue.Position(nid); ok {
		p := pos + 1
		rec.Position = &p
	} else {
		rec.Position = nil
	}
	return rec, nil
}

// Subscribe registers a callback fired when the notification's pending
// position changes and once when it leaves the queue.
func (eng *Engine) Subscribe(nid id.NotificationID, cb queue.Callback) {
	eng.queue.Subscribe(nid, cb)
}

// Queue returns the underlying notification queue.
func (eng *Engine) Queue() *queue.Queue { return eng.queue }

// Registry returns the service registry.
func (eng *Engine) Registry() *service.Registry { return eng.registry }

// Hooks returns the lifecycle hook registry.
func (eng *Engine) Hooks() *hook.Registry { return eng.hooks }

// StatusStore returns the status record backend.
func (eng *Engine) StatusStore() status.Store { return eng.statuses }

// Config returns the engine's normalized configuration.
func (eng *Engine) Config() courier.Config { return eng.cfg }
