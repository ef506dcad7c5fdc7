package calltrc

import "context"

type traceIDContextKey struct{}

var traceIDContextVal traceIDContextKey

// WithTraceID returns a new context carrying the given trace ID. If the
// context already contained a trace ID, it becomes "shadowed" by the new one.
func WithTraceID(ctx context.Context, tid TraceID) context.Context {
	return context.WithValue(ctx, traceIDContextVal, tid)
}

// TraceIDFrom returns the trace ID in the context, if it exists, with true as
// the second return value. If not, a zero trace ID is returned, with false as
// the second return value.
func TraceIDFrom(ctx context.Context) (TraceID, bool) {
	if ctx == nil {
		return TraceID{}, false
	}
	tid, ok := ctx.Value(traceIDContextVal).(TraceID)
	return tid, ok && !tid.IsZero()
}
