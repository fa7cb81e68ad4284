package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/courierkit/courier/hook"
	"github.com/courierkit/courier/id"
)

func newTestHook(t *testing.T) (*MetricsHook, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return NewMetricsHookWithMeter(provider.Meter("test")), reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s has unexpected data type %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsHookCountsLifecycle(t *testing.T) {
	h, reader := newTestHook(t)

	ctx := context.Background()
	n := &hook.Notification{ID: id.NewNotificationID(), Service: "email"}

	_ = h.OnEnqueued(ctx, n, 1)
	_ = h.OnStarted(ctx, n, 0)
	_ = h.OnRetrying(ctx, n, 0, time.Second)
	_ = h.OnStarted(ctx, n, 1)
	_ = h.OnCompleted(ctx, n, 50*time.Millisecond)

	if got := counterValue(t, reader, "courier.notification.enqueued"); got != 1 {
		t.Errorf("enqueued = %d, want 1", got)
	}
	if got := counterValue(t, reader, "courier.notification.started"); got != 2 {
		t.Errorf("started = %d, want 2", got)
	}
	if got := counterValue(t, reader, "courier.notification.retried"); got != 1 {
		t.Errorf("retried = %d, want 1", got)
	}
	if got := counterValue(t, reader, "courier.notification.completed"); got != 1 {
		t.Errorf("completed = %d, want 1", got)
	}
	if got := counterValue(t, reader, "courier.notification.failed"); got != 0 {
		t.Errorf("failed = %d, want 0", got)
	}
}

func TestMetricsHookCountsFailure(t *testing.T) {
	h, reader := newTestHook(t)

	ctx := context.Background()
	n := &hook.Notification{ID: id.NewNotificationID(), Service: "sms"}

	_ = h.OnFailed(ctx, n, errors.New("provider down"))

	if got := counterValue(t, reader, "courier.notification.failed"); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
	if got := counterValue(t, reader, "courier.notification.completed"); got != 0 {
		t.Errorf("completed = %d, want 0", got)
	}
}
