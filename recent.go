package calltrc

import (
	"github.com/peterbourgon/calltrc/internal/trcringbuf"
)

// RecentSink keeps the most recent lines in memory. It's useful for serving
// recent activity, and as an additional sink in tests.
type RecentSink struct {
	buf *trcringbuf.RingBuffer[Line]
}

// NewRecentSink returns a sink keeping at most n lines.
func NewRecentSink(n int) *RecentSink {
	return &RecentSink{buf: trcringbuf.NewRingBuffer[Line](n)}
}

// WriteLine implements Sink.
func (s *RecentSink) WriteLine(ln Line) {
	s.buf.Add(ln)
}

// Lines returns the kept lines, oldest first.
func (s *RecentSink) Lines() []Line {
	return s.buf.Snapshot()
}

// Chains returns the kept lines grouped by chain, i.e. by trace ID, in order
// of each chain's oldest kept line. Chains whose oldest lines were dropped are
// returned partially.
func (s *RecentSink) Chains() [][]Line {
	var (
		index = map[string]int{}
		res   [][]Line
	)
	for _, ln := range s.buf.Snapshot() {
		i, ok := index[ln.TraceID.id]
		if !ok {
			i = len(res)
			index[ln.TraceID.id] = i
			res = append(res, nil)
		}
		res[i] = append(res[i], ln)
	}
	return res
}
