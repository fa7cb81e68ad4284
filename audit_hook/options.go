package audithook

import "log/slog"

// Option configures the audit hook.
type Option func(*Hook)

// WithLogger sets the logger used to report recorder failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hook) { h.logger = l }
}

// WithActions restricts the hook to the given actions. By default all
// actions are recorded.
func WithActions(actions ...string) Option {
	return func(h *Hook) {
		h.enabled = make(map[string]bool, len(actions))
		for _, a := range actions {
			h.enabled[a] = true
		}
	}
}
