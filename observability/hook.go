// Package observability provides a lifecycle hook that records
// delivery metrics via OpenTelemetry. Register it with the engine to
// automatically track enqueue rates, completion counts, failure rates,
// and retry counts.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/courierkit/courier/hook"
)

// Compile-time interface checks.
var (
	_ hook.Hook      = (*MetricsHook)(nil)
	_ hook.Enqueued  = (*MetricsHook)(nil)
	_ hook.Started   = (*MetricsHook)(nil)
	_ hook.Completed = (*MetricsHook)(nil)
	_ hook.Failed    = (*MetricsHook)(nil)
	_ hook.Retrying  = (*MetricsHook)(nil)
)

const meterName = "github.com/courierkit/courier/observability"

// MetricsHook records notification lifecycle counters. Unlike the
// per-attempt metrics middleware it counts lifecycle transitions, so
// one notification contributes at most one completed or failed
// increment regardless of how many attempts it took.
type MetricsHook struct {
	enqueued  metric.Int64Counter
	started   metric.Int64Counter
	completed metric.Int64Counter
	failed    metric.Int64Counter
	retried   metric.Int64Counter
	elapsed   metric.Float64Histogram
}

// NewMetricsHook creates a MetricsHook using the global MeterProvider.
func NewMetricsHook() *MetricsHook {
	return NewMetricsHookWithMeter(otel.Meter(meterName))
}

// NewMetricsHookWithMeter creates a MetricsHook with the provided
// meter. Instrument creation errors are ignored: the OTel API returns
// noop instruments on error.
func NewMetricsHookWithMeter(meter metric.Meter) *MetricsHook {
	h := &MetricsHook{}
	h.enqueued, _ = meter.Int64Counter("courier.notification.enqueued",
		metric.WithDescription("Notifications placed on the queue"))
	h.started, _ = meter.Int64Counter("courier.notification.started",
		metric.WithDescription("Delivery attempts started"))
	h.completed, _ = meter.Int64Counter("courier.notification.completed",
		metric.WithDescription("Notifications delivered successfully"))
	h.failed, _ = meter.Int64Counter("courier.notification.failed",
		metric.WithDescription("Notifications that failed terminally"))
	h.retried, _ = meter.Int64Counter("courier.notification.retried",
		metric.WithDescription("Delivery attempts scheduled for retry"))
	h.elapsed, _ = meter.Float64Histogram("courier.notification.elapsed",
		metric.WithDescription("End-to-end delivery time in seconds"),
		metric.WithUnit("s"))
	return h
}

// Name implements hook.Hook.
func (h *MetricsHook) Name() string { return "observability-metrics" }

func serviceAttr(n *hook.Notification) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("service", n.Service))
}

// OnEnqueued implements hook.Enqueued.
func (h *MetricsHook) OnEnqueued(ctx context.Context, n *hook.Notification, _ int) error {
	h.enqueued.Add(ctx, 1, serviceAttr(n))
	return nil
}

// OnStarted implements hook.Started.
func (h *MetricsHook) OnStarted(ctx context.Context, n *hook.Notification, _ int) error {
	h.started.Add(ctx, 1, serviceAttr(n))
	return nil
}

// OnCompleted implements hook.Completed.
func (h *MetricsHook) OnCompleted(ctx context.Context, n *hook.Notification, elapsed time.Duration) error {
	h.completed.Add(ctx, 1, serviceAttr(n))
	h.elapsed.Record(ctx, elapsed.Seconds(), serviceAttr(n))
	return nil
}

// OnFailed implements hook.Failed.
func (h *MetricsHook) OnFailed(ctx context.Context, n *hook.Notification, _ error) error {
	h.failed.Add(ctx, 1, serviceAttr(n))
	return nil
}

// OnRetrying implements hook.Retrying.
func (h *MetricsHook) OnRetrying(ctx context.Context, n *hook.Notification, _ int, _ time.Duration) error {
	h.retried.Add(ctx, 1, serviceAttr(n))
	return nil
}
