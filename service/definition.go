package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/courierkit/courier"
)

// Definition is a typed service definition with a handler function.
// T is the payload type and R the result type (both JSON-serializable).
type Definition[T, R any] struct {
	// Name is the channel identifier requests are dispatched to.
	Name string

	// Handler processes one notification payload and returns its result.
	Handler func(ctx context.Context, payload T) (R, error)
}

// NewDefinition creates a typed service definition.
func NewDefinition[T, R any](name string, handler func(ctx context.Context, payload T) (R, error)) *Definition[T, R] {
	return &Definition[T, R]{
		Name:    name,
		Handler: handler,
	}
}

// RegisterDefinition registers a typed service definition. The generic
// handler is wrapped in a closure that JSON-unmarshals the payload into
// T before calling the typed handler, then marshals the R result.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T, R any](r *Registry, def *Definition[T, R]) {
	handler := func(ctx context.Context, payload []byte) (json.RawMessage, error) {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return nil, fmt.Errorf("unmarshal payload for service %q: %w: %w", def.Name, courier.ErrInvalidPayload, err)
			}
		}

		res, err := def.Handler(ctx, t)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("marshal result for service %q: %w", def.Name, err)
		}
		return data, nil
	}

	r.Register(def.Name, handler)
}
