package trcproxy

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/peterbourgon/calltrc/internal/trcdebug"
	"github.com/sirupsen/logrus"
)

// InPackage returns true if the package path of target's type, after
// dereferencing pointers, starts with basePackage. The check is a plain prefix
// check, so "app/order" includes "app/order/sub" as well as "app/orders".
func InPackage(target any, basePackage string) bool {
	if target == nil {
		return false
	}
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.HasPrefix(t.PkgPath(), basePackage)
}

// WrapIfInPackage returns a proxy stub for target if target is in basePackage,
// per [InPackage], and true. Otherwise, it returns target unchanged, and false.
func WrapIfInPackage[I any](target I, basePackage string, policies []Policy, stub func(*Proxy) I) (I, bool, error) {
	if !InPackage(target, basePackage) {
		trcdebug.Proxies.Skipped.Add(1)
		return target, false, nil
	}

	wrapped, err := Build(target, policies, stub)
	if err != nil {
		return target, false, err
	}

	return wrapped, true, nil
}

// Wrapper applies a fixed set of policies to every target in a base package.
// It's meant to be used while wiring up an application, on each component as
// it's constructed.
type Wrapper struct {
	basePackage string
	policies    []Policy
	logger      logrus.FieldLogger
}

// WrapperOption configures a wrapper.
type WrapperOption func(*Wrapper)

// WithLogger sets the logger used to report wrapping decisions, at debug
// level. By default, nothing is logged.
func WithLogger(logger logrus.FieldLogger) WrapperOption {
	return func(w *Wrapper) { w.logger = logger }
}

// NewWrapper returns a wrapper for targets in basePackage.
func NewWrapper(basePackage string, policies []Policy, options ...WrapperOption) *Wrapper {
	w := &Wrapper{
		basePackage: basePackage,
		policies:    policies,
	}
	for _, option := range options {
		option(w)
	}
	if w.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		w.logger = logger
	}
	return w
}

// BasePackage returns the package prefix of targets that get wrapped.
func (w *Wrapper) BasePackage() string {
	return w.basePackage
}

// Policies returns the policies applied to wrapped targets.
func (w *Wrapper) Policies() []Policy {
	return w.policies
}

// Wrap is WrapIfInPackage with the wrapper's base package and policies.
func Wrap[I any](w *Wrapper, target I, stub func(*Proxy) I) (I, error) {
	fields := logrus.Fields{
		"target":       fmt.Sprintf("%T", target),
		"base_package": w.basePackage,
	}

	wrapped, ok, err := WrapIfInPackage(target, w.basePackage, w.policies, stub)
	switch {
	case err != nil:
		w.logger.WithFields(fields).WithError(err).Error("create proxy failed")
		return target, err
	case ok:
		w.logger.WithFields(fields).Debug("create proxy")
	default:
		w.logger.WithFields(fields).Debug("skip proxy")
	}

	return wrapped, nil
}
