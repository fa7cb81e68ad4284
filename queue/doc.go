// Package queue implements the ordered in-memory notification queue.
//
// Jobs drain in strict enqueue order through a single drain loop guarded
// by a draining flag; a configurable width bounds how many job actions
// run at once (default 1). A failing or missing action is logged and the
// job is dropped — one bad job never stalls the queue.
package queue
