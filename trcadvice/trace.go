// Package trcadvice provides standard advice for trcproxy policies.
package trcadvice

import (
	"context"

	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/trcproxy"
)

// LogTraceOption configures the advice returned by LogTrace.
type LogTraceOption func(*logTrace)

// WithMessage sets the function producing the span message for an
// invocation. By default, the message is the short form of the method, e.g.
// "OrderService.OrderItem(string)".
func WithMessage(f func(inv *trcproxy.Invocation) string) LogTraceOption {
	return func(lt *logTrace) { lt.message = f }
}

// WithPrefix prepends prefix to every span message.
func WithPrefix(prefix string) LogTraceOption {
	return func(lt *logTrace) { lt.prefix = prefix }
}

type logTrace struct {
	tracer  *calltrc.Tracer
	message func(inv *trcproxy.Invocation) string
	prefix  string
}

// LogTrace returns advice which runs every invocation as a span of tracer.
// Invocations made with a context carrying a trace ID become nested spans of
// that trace; others start a new trace. The context passed further down the
// chain, and to the target, carries the span's trace ID, so targets that pass
// their context on to other traced objects produce a nested chain.
//
// Errors are recorded as exceptions, and returned unchanged.
func LogTrace(tracer *calltrc.Tracer, options ...LogTraceOption) trcproxy.Advice {
	lt := &logTrace{
		tracer:  tracer,
		message: func(inv *trcproxy.Invocation) string { return inv.Method.Short() },
	}
	for _, option := range options {
		option(lt)
	}
	return lt
}

// Around implements trcproxy.Advice.
func (lt *logTrace) Around(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
	ctx, st := lt.tracer.Start(ctx, lt.prefix+lt.message(inv))

	res, err := proceed(ctx)
	if err != nil {
		_ = lt.tracer.Exception(st, err) // st is ours, can't be rejected
		return res, err
	}

	_ = lt.tracer.End(st)
	return res, nil
}
