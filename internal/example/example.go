// Package example wires the example application through a trcproxy.Wrapper,
// the way a real program would at startup.
package example

import (
	"fmt"
	"time"

	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/internal/example/app/order"
	"github.com/peterbourgon/calltrc/internal/example/infra/util"
	"github.com/peterbourgon/calltrc/trcadvice"
	"github.com/peterbourgon/calltrc/trcconf"
	"github.com/peterbourgon/calltrc/trcproxy"
	"github.com/sirupsen/logrus"
	"github.com/zoobzio/clockz"
)

// BasePackage is the package prefix of the example application.
const BasePackage = "github.com/peterbourgon/calltrc/internal/example/app"

// DefaultPointcut selects every method in the application, except for the
// controller's NoLog method.
const DefaultPointcut = "execution(* " + BasePackage + "..*.*(..)) && !execution(* NoLog(..))"

// DefaultPolicies trace every method selected by DefaultPointcut.
func DefaultPolicies(tracer *calltrc.Tracer) []trcproxy.Policy {
	return []trcproxy.Policy{
		trcproxy.MustPolicy("log-trace", DefaultPointcut, trcadvice.LogTrace(tracer)),
	}
}

// Registry returns the advice available to policy config files.
//
//	log-trace     trace spans, with the policy message as prefix
//	transaction   log transaction boundaries to logger
//	cache         cache successful results
func Registry(tracer *calltrc.Tracer, logger logrus.FieldLogger) trcconf.Registry {
	return trcconf.Registry{
		"log-trace": func(pc trcconf.PolicyConfig) (trcproxy.Advice, error) {
			return trcadvice.LogTrace(tracer, trcadvice.WithPrefix(pc.Message)), nil
		},
		"transaction": func(pc trcconf.PolicyConfig) (trcproxy.Advice, error) {
			return trcadvice.Transaction(trcadvice.NewLogTxManager(logger.WithField("policy", pc.Name))), nil
		},
		"cache": func(pc trcconf.PolicyConfig) (trcproxy.Advice, error) {
			return trcadvice.NewCache(), nil
		},
	}
}

// App is the wired example application.
type App struct {
	Controller order.Controller
	Formatter  util.Formatter
}

// Wire constructs the application, passing every component through w. Each
// save in the repository takes delay, as measured by clock.
func Wire(w *trcproxy.Wrapper, clock clockz.Clock, delay time.Duration) (*App, error) {
	repo, err := trcproxy.Wrap[order.Repository](w, order.NewRepository(clock, delay), order.NewRepositoryProxy)
	if err != nil {
		return nil, fmt.Errorf("wire repository: %w", err)
	}

	service, err := trcproxy.Wrap[order.Service](w, order.NewService(repo), order.NewServiceProxy)
	if err != nil {
		return nil, fmt.Errorf("wire service: %w", err)
	}

	controller, err := trcproxy.Wrap[order.Controller](w, order.NewController(service), order.NewControllerProxy)
	if err != nil {
		return nil, fmt.Errorf("wire controller: %w", err)
	}

	formatter, err := trcproxy.Wrap[util.Formatter](w, util.ItemFormatter{}, util.NewFormatterProxy)
	if err != nil {
		return nil, fmt.Errorf("wire formatter: %w", err)
	}

	return &App{
		Controller: controller,
		Formatter:  formatter,
	}, nil
}
