package queue

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/courierkit/courier/id"
)

// Action is the unit of work executed for a queued job. The job is
// passed in so the action can reference its own ID and payload.
type Action func(ctx context.Context, j *Job) error

// Job is one queued unit of work. It is owned exclusively by the queue
// from enqueue until its action returns, then discarded.
type Job struct {
	ID      id.NotificationID
	Payload []byte
	Action  Action
}

// NewJob creates a job with a freshly generated ID. Use this when the
// ID must be known before the job enters the queue, e.g. to persist an
// initial status record first.
func NewJob(payload []byte, action Action) *Job {
	return &Job{
		ID:      id.NewNotificationID(),
		Payload: payload,
		Action:  action,
	}
}

// Update describes a change in a subscribed job's queue state.
type Update struct {
	JobID    id.NotificationID
	Position int // zero-based pending rank; meaningless when Done
	Done     bool
}

// Callback receives updates for a subscribed job.
type Callback func(Update)

// subState tracks a subscription's lifecycle.
type subState int

const (
	subPending subState = iota
	subDone
)

type subscription struct {
	jobID id.NotificationID
	cb    Callback
	state subState
}

// Queue is the ordered pending-job list with a sequential drain loop.
// It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	jobs     []*Job
	inflight map[string]struct{}
	draining bool
	subs     map[string][]*subscription

	width   int
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithWidth sets how many job actions may run at once. Values below 1
// are treated as 1. The default of 1 preserves strict sequential
// execution as backpressure for rate-limited providers.
func WithWidth(n int) Option {
	return func(q *Queue) {
		if n < 1 {
			n = 1
		}
		q.width = n
	}
}

// WithRateLimit caps the sustained rate at which the drain loop starts
// job actions. Zero perSec disables rate limiting. Burst defaults to 1.
func WithRateLimit(perSec float64, burst int) Option {
	return func(q *Queue) {
		if perSec <= 0 {
			q.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		q.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithLogger sets the structured logger for the queue.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		inflight: make(map[string]struct{}),
		subs:     make(map[string][]*subscription),
		width:    1,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a new job built from payload and action, returns its
// ID, and kicks the drain loop if it is idle. It never blocks on job
// execution.
func (q *Queue) Enqueue(payload []byte, action Action) id.NotificationID {
	j := NewJob(payload, action)
	q.EnqueueJob(j)
	return j.ID
}

// EnqueueJob appends a pre-built job to the tail, kicks the drain loop
// if it is idle, and returns the job's 1-based pending rank at the
// moment of insertion.
func (q *Queue) EnqueueJob(j *Job) int {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	pos := len(q.jobs)
	q.mu.Unlock()
	q.Drain()
	return pos
}

// Drain starts the drain loop unless it is already running. Idempotent:
// re-entrant calls are no-ops.
func (q *Queue) Drain() {
	q.mu.Lock()
	if q.draining || len(q.jobs) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	go q.drainLoop()
}

// drainLoop pops jobs head-first and runs their actions until the list
// is empty. Start order is strict FIFO; at most width actions are in
// flight at once. A job stays in the pending list (and keeps its
// position) until an execution slot is free for it.
func (q *Queue) drainLoop() {
	slots := make(chan struct{}, q.width)
	g := new(errgroup.Group)

	for {
		// Reserve an execution slot before popping so Position reflects
		// jobs that have not started yet.
		slots <- struct{}{}

		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.mu.Unlock()
			<-slots
			// Wait for in-flight actions before deciding the queue is
			// idle: a running action may enqueue more work.
			_ = g.Wait() //nolint:errcheck // run never returns an error
			q.mu.Lock()
			if len(q.jobs) == 0 {
				q.draining = false
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			continue
		}

		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.inflight[j.ID.String()] = struct{}{}
		pending := q.pendingUpdatesLocked()
		q.mu.Unlock()

		// Jobs behind the popped head moved up one rank.
		fire(pending)

		if q.limiter != nil {
			_ = q.limiter.Wait(context.Background()) //nolint:errcheck // background ctx is never cancelled
		}

		g.Go(func() error {
			q.run(j)
			<-slots
			return nil
		})
	}
}

// run executes one job's action and notifies its subscribers. Errors
// are logged, never propagated: a failing job must not stall the drain.
func (q *Queue) run(j *Job) {
	if j.Action == nil {
		q.logger.Error("error processing queue item",
			slog.String("job_id", j.ID.String()),
			slog.String("error", "job has no action"),
		)
		q.complete(j.ID)
		return
	}

	if err := j.Action(context.Background(), j); err != nil {
		q.logger.Error("error processing queue item",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	q.complete(j.ID)
}

// Size returns the number of pending jobs.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Position returns the zero-based index of the job in the pending list.
// The second return is false if the job is absent — already running,
// finished, or never enqueued.
func (q *Queue) Position(jobID id.NotificationID) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, j := range q.jobs {
		if j.ID == jobID {
			return i, true
		}
	}
	return 0, false
}

// Subscribe registers a callback fired when the job's pending position
// changes and once when it leaves the queue. If the job has already
// drained, or was never enqueued, the final Done update fires
// synchronously and nothing is stored.
func (q *Queue) Subscribe(jobID id.NotificationID, cb Callback) {
	if cb == nil {
		return
	}
	key := jobID.String()

	q.mu.Lock()
	if !q.pendingLocked(jobID) {
		if _, running := q.inflight[key]; !running {
			q.mu.Unlock()
			cb(Update{JobID: jobID, Done: true})
			return
		}
	}
	q.subs[key] = append(q.subs[key], &subscription{jobID: jobID, cb: cb, state: subPending})
	q.mu.Unlock()
}

// pendingLocked reports whether the job is still in the pending list.
// Caller holds q.mu.
func (q *Queue) pendingLocked(jobID id.NotificationID) bool {
	for _, j := range q.jobs {
		if j.ID == jobID {
			return true
		}
	}
	return false
}

// pendingUpdatesLocked snapshots position notifications for all pending
// subscriptions. Caller holds q.mu; callbacks must be fired after the
// lock is released.
func (q *Queue) pendingUpdatesLocked() []func() {
	if len(q.subs) == 0 {
		return nil
	}
	var fns []func()
	for i, j := range q.jobs {
		for _, s := range q.subs[j.ID.String()] {
			if s.state != subPending {
				continue
			}
			u := Update{JobID: j.ID, Position: i}
			cb := s.cb
			fns = append(fns, func() { cb(u) })
		}
	}
	return fns
}

// complete fires the final update for a job's subscribers and prunes
// them.
func (q *Queue) complete(jobID id.NotificationID) {
	key := jobID.String()

	q.mu.Lock()
	delete(q.inflight, key)
	subs := q.subs[key]
	delete(q.subs, key)
	var fns []func()
	for _, s := range subs {
		if s.state != subPending {
			continue
		}
		s.state = subDone
		u := Update{JobID: jobID, Done: true}
		cb := s.cb
		fns = append(fns, func() { cb(u) })
	}
	q.mu.Unlock()

	fire(fns)
}

func fire(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
