package audithook

// Audit event actions. Each constant corresponds to one lifecycle
// event and becomes the Action field of the audit event.
const (
	ActionEnqueued  = "notification.enqueued"
	ActionStarted   = "notification.started"
	ActionCompleted = "notification.completed"
	ActionFailed    = "notification.failed"
	ActionRetrying  = "notification.retrying"
)

// CategoryNotification groups all notification lifecycle actions.
const CategoryNotification = "courier.notification"

// ResourceNotification is the Resource field for notification events.
const ResourceNotification = "notification"

// AllActions returns every action this hook can emit.
func AllActions() []string {
	return []string{
		ActionEnqueued,
		ActionStarted,
		ActionCompleted,
		ActionFailed,
		ActionRetrying,
	}
}
