package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/courierkit/courier/id"
)

func testInvocation() *Invocation {
	return &Invocation{
		JobID:   id.NewNotificationID(),
		Service: "email",
		Payload: []byte(`{"to":"a@example.com"}`),
		Attempt: 0,
	}
}

func TestChainOrder(t *testing.T) {
	var order []string

	mk := func(name string) Middleware {
		return func(ctx context.Context, inv *Invocation, next Handler) error {
			order = append(order, name+":before")
			err := next(ctx)
			order = append(order, name+":after")
			return err
		}
	}

	chain := Chain(mk("outer"), mk("inner"))

	err := chain(context.Background(), testInvocation(), func(ctx context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("chain returned error: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestChainEmpty(t *testing.T) {
	chain := Chain()

	called := false
	err := chain(context.Background(), testInvocation(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("empty chain returned error: %v", err)
	}
	if !called {
		t.Fatal("empty chain did not call the handler")
	}
}

func TestChainPropagatesError(t *testing.T) {
	sentinel := errors.New("delivery failed")

	passthrough := func(ctx context.Context, inv *Invocation, next Handler) error {
		return next(ctx)
	}
	chain := Chain(passthrough, passthrough)

	err := chain(context.Background(), testInvocation(), func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want %v", err, sentinel)
	}
}

func TestRecoverConvertsPanic(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := Recover(logger)

	err := mw(context.Background(), testInvocation(), func(ctx context.Context) error {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected an error from a panicking handler")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not mention the panic value", err)
	}
	if !strings.Contains(err.Error(), "email") {
		t.Errorf("error %q does not mention the service", err)
	}
}

func TestRecoverPassesThroughSuccess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := Recover(logger)

	err := mw(context.Background(), testInvocation(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("got error %v from a successful handler", err)
	}
}

func TestLoggingPassesThroughError(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	mw := Logging(logger)

	sentinel := errors.New("smtp timeout")
	err := mw(context.Background(), testInvocation(), func(ctx context.Context) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("got %v, want %v", err, sentinel)
	}
	if !strings.Contains(buf.String(), "smtp timeout") {
		t.Error("log output does not contain the handler error")
	}
	if !strings.Contains(buf.String(), "email") {
		t.Error("log output does not contain the service name")
	}
}
