// Package calltrc provides nested, in-process call tracing. It is inspired by
// package trc, and by the classic "log trace" pattern where every layer of an
// application logs when a call enters and leaves it.
//
// The basic idea is that a chain of nested calls, typically one request
// flowing from a controller through a service to a repository, shares a
// single [TraceID]. The first call in the chain creates a root ID with
// [Tracer.Begin], and every nested call derives a child ID from its parent
// with [Tracer.BeginSync]. The child has the same correlation token but a
// level one deeper, and that level drives the indentation of the rendered log
// lines, so that a whole chain reads as one coherent, nested trace.
//
//	[01HF...] --> OrderController.Request(string)
//	[01HF...] | --> OrderService.OrderItem(string)
//	[01HF...] | | --> OrderRepository.Save(string)
//	[01HF...] | | <-- OrderRepository.Save(string) time=1003ms
//	[01HF...] | <-- OrderService.OrderItem(string) time=1004ms
//	[01HF...] <-- OrderController.Request(string) time=1005ms
//
// Propagation is always explicit. A parent ID is either passed directly to
// BeginSync, or carried in the context.Context that is passed as the first
// argument of every traced call, via [WithTraceID] and [TraceIDFrom]. There is
// no goroutine-local state, so a chain survives being handed off between
// goroutines.
//
// Application code rarely calls the tracer directly. Instead, objects are
// wrapped by the interception machinery in package trcproxy, which selects
// methods with pointcut expressions from package trcmatch, and runs advice
// like the log trace advice from package trcadvice around each selected call.
package calltrc
