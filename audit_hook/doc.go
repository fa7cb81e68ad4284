// Package audithook bridges Courier lifecycle events to an audit trail
// backend. Each lifecycle event becomes a structured audit event with
// an action, resource, outcome, and severity, sent through a
// caller-provided Recorder.
//
// The Recorder interface is defined locally so this package does not
// depend on any particular audit backend — callers inject an adapter
// at wiring time:
//
//	h := audithook.New(audithook.RecorderFunc(
//		func(ctx context.Context, evt *audithook.AuditEvent) error {
//			return trail.Write(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//		},
//	))
//	eng := engine.New(engine.WithHook(h))
package audithook
