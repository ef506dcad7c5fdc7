// Package trcproxy wraps target objects with chains of around-behaviors,
// selected per method by pointcut matchers.
//
// Go can't synthesize interface implementations at runtime, so a proxy is a
// dispatcher keyed by method name. A small typed stub implements the target's
// capability interface by delegating each method to the proxy, typically via
// [Call0] or [Call1].
//
//	type orderServiceProxy struct{ p *trcproxy.Proxy }
//
//	func (s orderServiceProxy) OrderItem(ctx context.Context, item string) error {
//	    return trcproxy.Call0(s.p, ctx, "OrderItem", item)
//	}
//
// All reflection over the target happens once, at construction.
package trcproxy

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"

	"github.com/peterbourgon/calltrc/internal/trcdebug"
	"github.com/peterbourgon/calltrc/trcmatch"
)

var (
	// ErrNilTarget is returned when constructing a proxy without a target.
	ErrNilTarget = errors.New("nil target")

	// ErrNoSuchMethod is returned when invoking a method the target lacks.
	ErrNoSuchMethod = errors.New("no such method")

	// ErrBadArguments is returned when invoking a method with the wrong number
	// or types of arguments.
	ErrBadArguments = errors.New("bad arguments")

	// ErrBadResults is returned by the typed helpers when the results of an
	// invocation don't have the expected shape.
	ErrBadResults = errors.New("bad results")

	// ErrAlreadyProceeded is returned when an advice calls its proceed
	// function more than once.
	ErrAlreadyProceeded = errors.New("already proceeded")
)

// Proceed continues an invocation with the next advice in the chain, or with
// the target method itself when the chain is exhausted. It may be called at
// most once. The results don't include a trailing error result, which is
// returned separately.
type Proceed func(ctx context.Context) ([]any, error)

// Invocation describes a single call through a proxy.
//
// An advice may change the arguments of the call by assigning a new slice to
// Args before it proceeds. The slice it was given must not be modified in
// place, since the arguments were already converted for the target method.
type Invocation struct {
	Method trcmatch.Method
	Target any
	Args   []any // not including a leading context

	args []any           // as originally given
	in   []reflect.Value // args converted for the bound method
}

// Advice is behavior that runs around a method invocation. An advice that
// never calls proceed short-circuits the invocation, and its results become
// the results of the call. Errors from proceed should be returned unchanged.
type Advice interface {
	Around(ctx context.Context, inv *Invocation, proceed Proceed) ([]any, error)
}

// AdviceFunc adapts a function to an Advice.
type AdviceFunc func(ctx context.Context, inv *Invocation, proceed Proceed) ([]any, error)

// Around implements Advice.
func (f AdviceFunc) Around(ctx context.Context, inv *Invocation, proceed Proceed) ([]any, error) {
	return f(ctx, inv, proceed)
}

//
//
//

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Proxy dispatches method calls to a target, running the advice of every
// matching policy around each call. A proxy is immutable after construction,
// and safe for concurrent use.
type Proxy struct {
	target  any
	methods map[string]*method
}

type method struct {
	desc   trcmatch.Method
	fn     reflect.Value // bound to the target
	chain  []Policy
	hasCtx bool
	hasErr bool
}

// New constructs a proxy for target. Every exported method of target is
// described with [trcmatch.Describe], using the given supertypes, and matched
// against every policy. The matching policies form the method's chain, in the
// order they're given.
func New(target any, policies []Policy, supertypes ...reflect.Type) (*Proxy, error) {
	if target == nil {
		return nil, ErrNilTarget
	}

	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, ErrNilTarget
	}

	for i, p := range policies {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("policy %d: %w", i+1, err)
		}
	}

	t := v.Type()
	p := &Proxy{
		target:  target,
		methods: make(map[string]*method, t.NumMethod()),
	}

	for i := 0; i < t.NumMethod(); i++ {
		rm := t.Method(i)
		if !rm.IsExported() {
			continue
		}

		fn := v.Method(i)
		ft := fn.Type()

		m := &method{
			desc:   trcmatch.Describe(t, rm, supertypes...),
			fn:     fn,
			hasCtx: ft.NumIn() > 0 && ft.In(0) == contextType,
			hasErr: ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType,
		}

		for _, policy := range policies {
			if policy.Matcher.Matches(m.desc) {
				m.chain = append(m.chain, policy)
			}
		}

		p.methods[rm.Name] = m
	}

	trcdebug.Proxies.Built.Add(1)

	return p, nil
}

// Target returns the wrapped object.
func (p *Proxy) Target() any {
	return p.target
}

// Methods returns descriptors of every method of the target, ordered by name.
func (p *Proxy) Methods() []trcmatch.Method {
	res := make([]trcmatch.Method, 0, len(p.methods))
	for _, m := range p.methods {
		res = append(res, m.desc)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

// Matched returns the names of the policies that apply to the method, in chain
// order.
func (p *Proxy) Matched(name string) []string {
	m, ok := p.methods[name]
	if !ok {
		return nil
	}
	names := make([]string, len(m.chain))
	for i, policy := range m.chain {
		names[i] = policy.Name
	}
	return names
}

// Intercepts returns true if at least one policy applies to the method.
func (p *Proxy) Intercepts(name string) bool {
	m, ok := p.methods[name]
	return ok && len(m.chain) > 0
}

// Invoke calls the named method with args. If the method takes a leading
// context.Context, ctx is passed as that argument, and shouldn't be included
// in args. If the method's final result is an error, it's returned as the
// error, and isn't included in the results.
//
// Unknown methods, and args that don't fit the method's parameters, are
// reported before any advice runs.
func (p *Proxy) Invoke(ctx context.Context, name string, args ...any) ([]any, error) {
	m, ok := p.methods[name]
	if !ok {
		return nil, fmt.Errorf("%T.%s: %w", p.target, name, ErrNoSuchMethod)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	in, err := m.values(ctx, args)
	if err != nil {
		return nil, err
	}

	if len(m.chain) <= 0 {
		trcdebug.Proxies.Direct.Add(1)
		return m.call(in)
	}

	trcdebug.Proxies.Intercepted.Add(1)

	inv := &Invocation{
		Method: m.desc,
		Target: p.target,
		Args:   args,
		args:   args,
		in:     in,
	}

	return m.proceed(inv, 0)(ctx)
}

// proceed returns the continuation that runs advice i of the chain, or the
// target method itself when i is past the end of the chain.
func (m *method) proceed(inv *Invocation, i int) Proceed {
	var done atomic.Bool
	return func(ctx context.Context) ([]any, error) {
		if !done.CompareAndSwap(false, true) {
			return nil, fmt.Errorf("%s: %w", inv.Method.Short(), ErrAlreadyProceeded)
		}

		if ctx == nil {
			ctx = context.Background()
		}

		if i >= len(m.chain) {
			in, err := m.inputs(ctx, inv)
			if err != nil {
				return nil, err
			}
			return m.call(in)
		}

		return m.chain[i].Advice.Around(ctx, inv, m.proceed(inv, i+1))
	}
}

// inputs returns the input of the bound method for the innermost call of an
// invocation. The values converted by Invoke are reused, with the context the
// chain proceeded with, unless an advice replaced the arguments.
func (m *method) inputs(ctx context.Context, inv *Invocation) ([]reflect.Value, error) {
	if !sameSlice(inv.Args, inv.args) {
		return m.values(ctx, inv.Args)
	}

	if !m.hasCtx {
		return inv.in, nil
	}

	in := make([]reflect.Value, len(inv.in))
	copy(in, inv.in)
	in[0] = reflect.ValueOf(ctx)
	return in, nil
}

func sameSlice(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func (m *method) call(in []reflect.Value) ([]any, error) {
	out := m.fn.Call(in)

	res := make([]any, 0, len(out))
	for _, v := range out {
		res = append(res, v.Interface())
	}

	if m.hasErr {
		last := res[len(res)-1]
		res = res[:len(res)-1]
		if last != nil {
			return res, last.(error)
		}
	}

	return res, nil
}

// values converts args to the input of the bound method, including ctx when
// the method takes one.
func (m *method) values(ctx context.Context, args []any) ([]reflect.Value, error) {
	var (
		ft     = m.fn.Type()
		offset = 0
	)
	if m.hasCtx {
		offset = 1
	}

	want := ft.NumIn() - offset
	switch {
	case ft.IsVariadic() && len(args) < want-1:
		return nil, fmt.Errorf("%s: want at least %d args, have %d: %w", m.desc.Short(), want-1, len(args), ErrBadArguments)
	case !ft.IsVariadic() && len(args) != want:
		return nil, fmt.Errorf("%s: want %d args, have %d: %w", m.desc.Short(), want, len(args), ErrBadArguments)
	}

	in := make([]reflect.Value, 0, len(args)+offset)
	if m.hasCtx {
		in = append(in, reflect.ValueOf(ctx))
	}

	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= want-1 {
			pt = ft.In(ft.NumIn() - 1).Elem()
		} else {
			pt = ft.In(i + offset)
		}

		v, err := argValue(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("%s: arg %d: %v: %w", m.desc.Short(), i+1, err, ErrBadArguments)
		}

		in = append(in, v)
	}

	return in, nil
}

func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil isn't a valid %s", t)
		}
	}

	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%s isn't assignable to %s", v.Type(), t)
	}

	return v, nil
}

//
//
//

// Call0 invokes a method which returns nothing, or only an error.
func Call0(p *Proxy, ctx context.Context, name string, args ...any) error {
	_, err := p.Invoke(ctx, name, args...)
	return err
}

// Call1 invokes a method which returns a single value of type R, optionally
// followed by an error. If the invocation was short-circuited with an error
// and no results, the zero value of R is returned with that error.
func Call1[R any](p *Proxy, ctx context.Context, name string, args ...any) (R, error) {
	var zero R

	res, err := p.Invoke(ctx, name, args...)
	if len(res) <= 0 {
		if err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%s: no results: %w", name, ErrBadResults)
	}

	if res[0] == nil {
		return zero, err
	}

	r, ok := res[0].(R)
	if !ok {
		return zero, fmt.Errorf("%s: result is %T, not %T: %w", name, res[0], zero, ErrBadResults)
	}

	return r, err
}

// Build constructs a proxy for target, with the capability interface I as a
// supertype of every method, and returns the typed stub produced by stub.
func Build[I any](target I, policies []Policy, stub func(*Proxy) I) (I, error) {
	p, err := New(target, policies, reflect.TypeFor[I]())
	if err != nil {
		var zero I
		return zero, err
	}
	return stub(p), nil
}
