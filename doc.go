// Package courier provides an embeddable notification delivery engine:
// an ordered in-process job queue, a named-service registry, bounded
// retry with fixed backoff, and externally pollable delivery status.
//
// Courier is designed as a library, not a service. Import it, register
// notification handlers (email, SMS, chat) as ordinary Go functions,
// and dispatch payloads to them by name. Jobs drain in strict FIFO
// order with a configurable concurrency width (default 1 — a deliberate
// backpressure choice protecting rate-limited downstream providers).
//
// # Quick Start
//
//	eng := engine.New(
//	    engine.WithStatusStore(redisstatus.New(client)),
//	)
//	engine.Register(eng, service.NewDefinition("email", sendEmail))
//	d, err := engine.Dispatch(ctx, eng, "email", EmailRequest{To: "a@b.c"})
//
// Callers poll the outcome with eng.Status(ctx, d.ID()).
//
// # Architecture
//
// The root package holds configuration and sentinel errors only. The
// engine package wires the queue, service registry, retry policy,
// middleware chain, lifecycle hooks, and status store together; this
// split keeps subsystem packages free of import cycles.
//
// All job IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers, so uniqueness needs no history check.
package courier
