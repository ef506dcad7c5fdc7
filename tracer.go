package calltrc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/peterbourgon/calltrc/internal/trcdebug"
	"github.com/peterbourgon/calltrc/internal/trcutil"
	"github.com/zoobzio/clockz"
)

// DefaultMaxErrorLength is the default maximum length, in bytes, of the error
// description rendered in exception lines.
const DefaultMaxErrorLength = 256

// Tracer begins and completes spans, and renders a line for each edge of each
// span to a sink. A tracer holds no per-chain state, so a single tracer can be
// shared by any number of concurrent chains.
type Tracer struct {
	sink   Sink
	clock  clockz.Clock
	maxErr int
}

// TracerOption configures a tracer.
type TracerOption func(*Tracer)

// WithSink sets the destination for trace lines. The default writes to stderr.
func WithSink(sink Sink) TracerOption {
	return func(t *Tracer) { t.sink = sink }
}

// WithWriter is shorthand for WithSink(NewWriterSink(dst)).
func WithWriter(dst io.Writer) TracerOption {
	return func(t *Tracer) { t.sink = NewWriterSink(dst) }
}

// WithClock sets the clock used for start times and elapsed durations, which
// is mostly useful for deterministic tests.
func WithClock(clock clockz.Clock) TracerOption {
	return func(t *Tracer) { t.clock = clock }
}

// WithMaxErrorLength sets the max length of rendered error descriptions.
// Longer descriptions are truncated. Zero or less disables truncation.
func WithMaxErrorLength(n int) TracerOption {
	return func(t *Tracer) { t.maxErr = n }
}

// NewTracer returns a tracer with the given options applied.
func NewTracer(options ...TracerOption) *Tracer {
	t := &Tracer{
		clock:  clockz.RealClock,
		maxErr: DefaultMaxErrorLength,
	}
	for _, option := range options {
		option(t)
	}
	if t.sink == nil {
		t.sink = NewWriterSink(os.Stderr)
	}
	return t
}

// Begin starts a new chain. It always creates a root trace ID.
func (t *Tracer) Begin(message string) *Status {
	return t.begin(newTraceID(t.clock.Now()), message)
}

// BeginSync starts a span nested directly below the call identified by parent.
// The returned status shares the parent's correlation token, one level deeper.
func (t *Tracer) BeginSync(parent TraceID, message string) *Status {
	return t.begin(parent.CreateNextID(), message)
}

func (t *Tracer) begin(tid TraceID, message string) *Status {
	st := &Status{
		traceID: tid,
		started: t.clock.Now(),
		message: message,
	}

	trcdebug.Spans.Begin.Add(1)

	t.sink.WriteLine(Line{
		TraceID: tid,
		Kind:    KindBegin,
		Message: message,
	})

	return st
}

// End completes the span normally. The line is rendered at the span's own
// level, so it lines up with the corresponding begin line.
func (t *Tracer) End(st *Status) error {
	return t.complete(st, KindEnd, nil)
}

// Exception completes the span with an error. The error is only observed and
// logged: it's the caller's job to return it further up the stack.
func (t *Tracer) Exception(st *Status, err error) error {
	return t.complete(st, KindException, err)
}

func (t *Tracer) complete(st *Status, kind Kind, err error) error {
	if !st.valid() {
		trcdebug.Spans.Rejected.Add(1)
		return fmt.Errorf("complete %s: %w", kind, ErrInvalidStatus)
	}

	if !st.done.CompareAndSwap(false, true) {
		trcdebug.Spans.Rejected.Add(1)
		return fmt.Errorf("complete %s %s (%s): %w", kind, st.traceID, st.message, ErrAlreadyCompleted)
	}

	ln := Line{
		TraceID: st.traceID,
		Kind:    kind,
		Message: st.message,
		Elapsed: t.clock.Now().Sub(st.started),
	}

	switch kind {
	case KindException:
		trcdebug.Spans.Exception.Add(1)
		ln.Err = trcutil.DescribeError(err, t.maxErr)
	default:
		trcdebug.Spans.End.Add(1)
	}

	t.sink.WriteLine(ln)

	return nil
}

// Start begins a span for a call made with ctx. If ctx carries a trace ID, the
// span is nested below it via BeginSync; otherwise a new chain is started via
// Begin. The returned context carries the new span's trace ID, and should be
// passed to nested calls.
func (t *Tracer) Start(ctx context.Context, message string) (context.Context, *Status) {
	var st *Status
	if parent, ok := TraceIDFrom(ctx); ok {
		st = t.BeginSync(parent, message)
	} else {
		st = t.Begin(message)
	}
	return WithTraceID(ctx, st.traceID), st
}

// Trace runs fn as a span. The span is completed with End if fn returns nil,
// and with Exception otherwise. The error from fn is returned unchanged.
//
// Typical usage is as follows.
//
//	func (s *service) OrderItem(ctx context.Context, itemID string) error {
//	    return s.tracer.Trace(ctx, "service.OrderItem", func(ctx context.Context) error {
//	        return s.repo.Save(ctx, itemID)
//	    })
//	}
func (t *Tracer) Trace(ctx context.Context, message string, fn func(context.Context) error) error {
	ctx, st := t.Start(ctx, message)
	if err := fn(ctx); err != nil {
		_ = t.Exception(st, err) // st is fresh, can't be rejected
		return err
	}
	return t.End(st)
}
