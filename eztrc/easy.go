// Package eztrc provides a process-wide default tracer, for programs that
// don't want to pass a tracer around.
package eztrc

import (
	"context"
	"sync/atomic"

	"github.com/peterbourgon/calltrc"
)

var defaultTracer atomic.Pointer[calltrc.Tracer]

func init() {
	defaultTracer.Store(calltrc.NewTracer())
}

// Default returns the default tracer, which writes to stderr unless replaced
// via SetDefault.
func Default() *calltrc.Tracer {
	return defaultTracer.Load()
}

// SetDefault replaces the default tracer, and returns the previous one.
func SetDefault(tracer *calltrc.Tracer) *calltrc.Tracer {
	return defaultTracer.Swap(tracer)
}

// Begin starts a new chain with the default tracer.
func Begin(message string) *calltrc.Status {
	return Default().Begin(message)
}

// BeginSync starts a nested span with the default tracer.
func BeginSync(parent calltrc.TraceID, message string) *calltrc.Status {
	return Default().BeginSync(parent, message)
}

// End completes a span with the default tracer.
func End(st *calltrc.Status) error {
	return Default().End(st)
}

// Exception completes a span with an error with the default tracer.
func Exception(st *calltrc.Status, err error) error {
	return Default().Exception(st, err)
}

// Start is [calltrc.Tracer.Start] with the default tracer.
func Start(ctx context.Context, message string) (context.Context, *calltrc.Status) {
	return Default().Start(ctx, message)
}

// Trace is [calltrc.Tracer.Trace] with the default tracer.
func Trace(ctx context.Context, message string, fn func(context.Context) error) error {
	return Default().Trace(ctx, message, fn)
}
