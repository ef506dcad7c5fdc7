package trcadvice

import (
	"context"

	"github.com/peterbourgon/calltrc/trcproxy"
	"github.com/sirupsen/logrus"
)

// Before returns advice calling fn before every invocation.
func Before(fn func(ctx context.Context, inv *trcproxy.Invocation)) trcproxy.Advice {
	return trcproxy.AdviceFunc(func(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
		fn(ctx, inv)
		return proceed(ctx)
	})
}

// AfterReturning returns advice calling fn with the results of every
// invocation that completes without an error.
func AfterReturning(fn func(ctx context.Context, inv *trcproxy.Invocation, res []any)) trcproxy.Advice {
	return trcproxy.AdviceFunc(func(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
		res, err := proceed(ctx)
		if err == nil {
			fn(ctx, inv, res)
		}
		return res, err
	})
}

// AfterThrowing returns advice calling fn with the error of every invocation
// that fails. The error is returned unchanged.
func AfterThrowing(fn func(ctx context.Context, inv *trcproxy.Invocation, err error)) trcproxy.Advice {
	return trcproxy.AdviceFunc(func(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
		res, err := proceed(ctx)
		if err != nil {
			fn(ctx, inv, err)
		}
		return res, err
	})
}

// After returns advice calling fn after every invocation, whether it fails or
// not, including when the target panics.
func After(fn func(ctx context.Context, inv *trcproxy.Invocation)) trcproxy.Advice {
	return trcproxy.AdviceFunc(func(ctx context.Context, inv *trcproxy.Invocation, proceed trcproxy.Proceed) ([]any, error) {
		defer fn(ctx, inv)
		return proceed(ctx)
	})
}

// LogCalls returns policies which log each stage of the invocations selected
// by expr to logger: before, returning or throwing, and after. The policies
// are ordered so that a proxy runs them in that order.
func LogCalls(logger logrus.FieldLogger, expr string) ([]trcproxy.Policy, error) {
	fields := func(inv *trcproxy.Invocation) logrus.Fields {
		return logrus.Fields{"method": inv.Method.String()}
	}

	var (
		before = Before(func(ctx context.Context, inv *trcproxy.Invocation) {
			logger.WithFields(fields(inv)).Info("before")
		})
		returning = AfterReturning(func(ctx context.Context, inv *trcproxy.Invocation, res []any) {
			logger.WithFields(fields(inv)).WithField("results", res).Info("returning")
		})
		throwing = AfterThrowing(func(ctx context.Context, inv *trcproxy.Invocation, err error) {
			logger.WithFields(fields(inv)).WithError(err).Info("throwing")
		})
		after = After(func(ctx context.Context, inv *trcproxy.Invocation) {
			logger.WithFields(fields(inv)).Info("after")
		})
	)

	var policies []trcproxy.Policy
	for _, p := range []struct {
		name   string
		advice trcproxy.Advice
	}{
		{"after", after},
		{"returning", returning},
		{"throwing", throwing},
		{"before", before},
	} {
		policy, err := trcproxy.NewPolicy(p.name, expr, p.advice)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}

	return policies, nil
}
