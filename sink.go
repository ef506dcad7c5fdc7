package calltrc

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Kind describes which edge of a span a line represents.
type Kind uint8

const (
	// KindBegin is logged when a span begins.
	KindBegin Kind = iota

	// KindEnd is logged when a span completes normally.
	KindEnd

	// KindException is logged when a span completes with an error.
	KindException
)

// Marker returns the arrow glyph used for the kind in rendered lines.
func (k Kind) Marker() string {
	switch k {
	case KindBegin:
		return "-->"
	case KindEnd:
		return "<--"
	case KindException:
		return "<X-"
	default:
		return "???"
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindException:
		return "exception"
	default:
		return "unknown"
	}
}

// DepthMarker is repeated once per level to indent rendered lines.
const DepthMarker = "| "

// Line is a single rendered trace event.
type Line struct {
	TraceID TraceID
	Kind    Kind
	Message string
	Elapsed time.Duration // zero for KindBegin
	Err     string        // only for KindException, already truncated
}

// Indent returns the prefix for the line's level. Root lines have no prefix.
func (ln Line) Indent() string {
	if ln.TraceID.level <= 0 {
		return ""
	}
	return strings.Repeat(DepthMarker, ln.TraceID.level)
}

// String renders the line in the canonical format, e.g.
//
//	[01HF6Z...] | <-- OrderService.OrderItem(string) time=12ms
func (ln Line) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(ln.TraceID.id)
	sb.WriteString("] ")
	sb.WriteString(ln.Indent())
	sb.WriteString(ln.Kind.Marker())
	sb.WriteString(" ")
	sb.WriteString(ln.Message)
	if ln.Kind != KindBegin {
		sb.WriteString(" time=")
		sb.WriteString(strconv.FormatInt(ln.Elapsed.Milliseconds(), 10))
		sb.WriteString("ms")
	}
	if ln.Kind == KindException {
		sb.WriteString(" ex=")
		sb.WriteString(ln.Err)
	}
	return sb.String()
}

// Sink receives rendered trace lines. Implementations are expected to be safe
// for concurrent use, as independent chains log concurrently.
type Sink interface {
	WriteLine(Line)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Line)

// WriteLine implements Sink.
func (f SinkFunc) WriteLine(ln Line) { f(ln) }

// WriterSink writes each line, followed by a newline, to an io.Writer.
type WriterSink struct {
	mtx sync.Mutex
	dst io.Writer
}

// NewWriterSink returns a sink writing to dst.
func NewWriterSink(dst io.Writer) *WriterSink {
	return &WriterSink{dst: dst}
}

// WriteLine implements Sink. Writes are serialized, so lines from concurrent
// chains interleave but are never torn.
func (s *WriterSink) WriteLine(ln Line) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	fmt.Fprintln(s.dst, ln.String())
}

// MultiSink fans each line out to every sink, in order.
type MultiSink []Sink

// WriteLine implements Sink.
func (ms MultiSink) WriteLine(ln Line) {
	for _, s := range ms {
		s.WriteLine(ln)
	}
}
