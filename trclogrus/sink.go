// Package trclogrus emits trace lines through logrus.
package trclogrus

import (
	"github.com/peterbourgon/calltrc"
	"github.com/sirupsen/logrus"
)

// Sink writes each trace line as a logrus entry. The message is the rendered
// line, so the usual indented view survives any formatter, and the structured
// parts of the line are added as fields: trace_id, depth, kind, and, for
// completed spans, elapsed_ms and error.
//
// Begin and end lines are logged at info level, exception lines at warn level.
type Sink struct {
	logger logrus.FieldLogger
}

var _ calltrc.Sink = (*Sink)(nil)

// NewSink returns a sink writing to logger.
func NewSink(logger logrus.FieldLogger) *Sink {
	return &Sink{logger: logger}
}

// WriteLine implements calltrc.Sink.
func (s *Sink) WriteLine(ln calltrc.Line) {
	fields := logrus.Fields{
		"trace_id": ln.TraceID.ID(),
		"depth":    ln.TraceID.Level(),
		"kind":     ln.Kind.String(),
	}

	if ln.Kind != calltrc.KindBegin {
		fields["elapsed_ms"] = ln.Elapsed.Milliseconds()
	}

	entry := s.logger.WithFields(fields)

	switch ln.Kind {
	case calltrc.KindException:
		entry.WithField("error", ln.Err).Warn(ln.String())
	default:
		entry.Info(ln.String())
	}
}
