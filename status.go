package calltrc

import (
	"sync/atomic"
	"time"
)

// Status is the state of a single in-flight span. It's returned by
// [Tracer.Begin] and [Tracer.BeginSync], and must be passed to exactly one of
// [Tracer.End] or [Tracer.Exception] when the span completes.
type Status struct {
	traceID TraceID
	started time.Time
	message string
	done    atomic.Bool
}

// TraceID returns the ID in effect when the span began. Nested calls should
// pass it to BeginSync.
func (st *Status) TraceID() TraceID {
	return st.traceID
}

// Message returns the description of the span.
func (st *Status) Message() string {
	return st.message
}

// Started returns the time the span began.
func (st *Status) Started() time.Time {
	return st.started
}

// Completed returns true once End or Exception has accepted the status.
func (st *Status) Completed() bool {
	return st.done.Load()
}

func (st *Status) valid() bool {
	return st != nil && !st.started.IsZero() && !st.traceID.IsZero()
}
