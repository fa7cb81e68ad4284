// Package status defines the externally pollable delivery status layer:
// a lifecycle Record per job, persisted in a namespaced key-value store
// consumed only through gets and sets by job ID.
package status

import (
	"context"
	"encoding/json"
	"time"
)

// Record is a snapshot of a job's delivery lifecycle, keyed by job ID.
//
// A record is written once at dispatch (pending, with the job's 1-based
// queue position) and once at the terminal transition. Once Completed
// or Failed is set the record is never mutated again. Callers polling a
// long-pending record should treat a very old Timestamp as lost.
type Record struct {
	// Data is the handler result, present only on completed records.
	Data json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"`

	// Completed marks terminal success.
	Completed bool `json:"completed" msgpack:"completed"`

	// Failed marks terminal failure after the retry budget was consumed
	// or the service was never registered.
	Failed bool `json:"failed,omitempty" msgpack:"failed,omitempty"`

	// Error holds the final error string for failed records.
	Error string `json:"error,omitempty" msgpack:"error,omitempty"`

	// Position is the job's 1-based pending rank. Nil once the job has
	// started or finished. Stored at creation, overwritten with the
	// live rank on reads of non-terminal records.
	Position *int `json:"position,omitempty" msgpack:"position,omitempty"`

	// Timestamp is when this record was written, in epoch milliseconds.
	Timestamp int64 `json:"timestamp" msgpack:"timestamp"`
}

// Terminal reports whether the record will never change again.
func (r *Record) Terminal() bool {
	return r.Completed || r.Failed
}

// Now returns the current time in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Store is the persistence contract for status records. Implementations
// namespace keys with a backend-specific prefix; callers pass bare job
// IDs.
type Store interface {
	// Get retrieves the record for the given key. Returns an error
	// wrapping courier.ErrStatusNotFound if no record exists.
	Get(ctx context.Context, key string) (*Record, error)

	// Set persists the record under the given key, replacing any
	// previous value.
	Set(ctx context.Context, key string, rec *Record) error
}
