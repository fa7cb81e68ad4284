package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/courierkit/courier"
	"github.com/courierkit/courier/service"
)

func TestRegisterAndResolve(t *testing.T) {
	reg := service.NewRegistry()

	reg.Register("email", func(_ context.Context, payload []byte) (json.RawMessage, error) {
		return json.RawMessage(payload), nil
	})

	h, err := reg.Resolve("email")
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	res, err := h(context.Background(), []byte(`{"to":"a@b.c"}`))
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if string(res) != `{"to":"a@b.c"}` {
		t.Errorf("result = %s, want echoed payload", res)
	}
}

func TestResolveUnknownService(t *testing.T) {
	reg := service.NewRegistry()

	_, err := reg.Resolve("fax")
	if err == nil {
		t.Fatal("expected error for unregistered service")
	}
	if !errors.Is(err, courier.ErrServiceNotFound) {
		t.Errorf("error = %v, want ErrServiceNotFound", err)
	}
}

func TestLastRegistrationWins(t *testing.T) {
	reg := service.NewRegistry()

	reg.Register("sms", func(_ context.Context, _ []byte) (json.RawMessage, error) {
		return json.RawMessage(`"first"`), nil
	})
	reg.Register("sms", func(_ context.Context, _ []byte) (json.RawMessage, error) {
		return json.RawMessage(`"second"`), nil
	})

	h, ok := reg.Get("sms")
	if !ok {
		t.Fatal("expected handler to be registered")
	}
	res, err := h(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}
	if string(res) != `"second"` {
		t.Errorf("result = %s, want %q", res, `"second"`)
	}
}

func TestRegisterDefinitionTyped(t *testing.T) {
	type smsRequest struct {
		To   string `json:"to"`
		Body string `json:"body"`
	}
	type smsReceipt struct {
		Accepted bool   `json:"accepted"`
		To       string `json:"to"`
	}

	reg := service.NewRegistry()
	service.RegisterDefinition(reg, service.NewDefinition("sms",
		func(_ context.Context, p smsRequest) (smsReceipt, error) {
			return smsReceipt{Accepted: true, To: p.To}, nil
		}))

	h, err := reg.Resolve("sms")
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	res, err := h(context.Background(), []byte(`{"to":"+15550100","body":"hi"}`))
	if err != nil {
		t.Fatalf("unexpected handler error: %v", err)
	}

	var receipt smsReceipt
	if err := json.Unmarshal(res, &receipt); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !receipt.Accepted || receipt.To != "+15550100" {
		t.Errorf("receipt = %+v, want accepted for +15550100", receipt)
	}
}

func TestRegisterDefinitionBadPayload(t *testing.T) {
	reg := service.NewRegistry()
	service.RegisterDefinition(reg, service.NewDefinition("push",
		func(_ context.Context, p struct{ Token string }) (string, error) {
			return p.Token, nil
		}))

	h, _ := reg.Get("push")
	_, err := h(context.Background(), []byte(`{broken`))
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if !errors.Is(err, courier.ErrInvalidPayload) {
		t.Errorf("error = %v, want ErrInvalidPayload", err)
	}
}

func TestNames(t *testing.T) {
	reg := service.NewRegistry()
	reg.Register("email", func(_ context.Context, _ []byte) (json.RawMessage, error) { return nil, nil })
	reg.Register("sms", func(_ context.Context, _ []byte) (json.RawMessage, error) { return nil, nil })

	names := reg.Names()
	if len(names) != 2 {
		t.Fatalf("got %d names, want 2", len(names))
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["email"] || !seen["sms"] {
		t.Errorf("names = %v, want email and sms", names)
	}
}
