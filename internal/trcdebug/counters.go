package trcdebug

import "sync/atomic"

// SpanCounters track span lifecycle operations on tracers.
type SpanCounters struct {
	Begin     atomic.Uint64
	End       atomic.Uint64
	Exception atomic.Uint64
	Rejected  atomic.Uint64
}

// Open returns the number of spans that have begun but not yet completed.
func (sc *SpanCounters) Open() int64 {
	var (
		b = sc.Begin.Load()
		e = sc.End.Load()
		x = sc.Exception.Load()
	)
	return int64(b) - int64(e) - int64(x)
}

// Values returns the current values of the counters.
func (sc *SpanCounters) Values() (begin, end, exception, rejected uint64) {
	return sc.Begin.Load(), sc.End.Load(), sc.Exception.Load(), sc.Rejected.Load()
}

// ProxyCounters track proxy construction and dispatch.
type ProxyCounters struct {
	Built       atomic.Uint64
	Skipped     atomic.Uint64
	Intercepted atomic.Uint64
	Direct      atomic.Uint64
}

// InterceptPercent returns the percent (0..100) of dispatched calls that went
// through at least one policy.
func (pc *ProxyCounters) InterceptPercent() float64 {
	var (
		i = pc.Intercepted.Load()
		d = pc.Direct.Load()
	)
	if i+d <= 0 {
		return 0.0
	}
	return 100 * float64(i) / float64(i+d)
}

// Values returns the current values of the counters.
func (pc *ProxyCounters) Values() (built, skipped, intercepted, direct uint64) {
	return pc.Built.Load(), pc.Skipped.Load(), pc.Intercepted.Load(), pc.Direct.Load()
}

var (
	// Spans tracks every tracer in the process.
	Spans SpanCounters

	// Proxies tracks every proxy and wrapper in the process.
	Proxies ProxyCounters
)
