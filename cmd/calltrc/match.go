package main

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"text/tabwriter"

	"github.com/peterbourgon/calltrc/internal/example/app/order"
	"github.com/peterbourgon/calltrc/internal/example/infra/util"
	"github.com/peterbourgon/calltrc/trcmatch"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type matchConfig struct {
	*rootConfig

	expr    string
	pkg     string
	typ     string
	name    string
	params  string
	results string
}

func (cfg *matchConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'e', LongName: "expr" /*    */, Value: ffval.NewValue(&cfg.expr) /*    */, NoDefault: true, Usage: "pointcut expression (required)", Placeholder: "EXPR"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "package" /* */, Value: ffval.NewValue(&cfg.pkg) /*     */, NoDefault: true, Usage: "method package import path", Placeholder: "PKG"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "type" /*    */, Value: ffval.NewValue(&cfg.typ) /*     */, NoDefault: true, Usage: "method declaring type", Placeholder: "TYPE"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'n', LongName: "name" /*    */, Value: ffval.NewValue(&cfg.name) /*    */, NoDefault: true, Usage: "method name, if unset match every example method", Placeholder: "NAME"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "params" /*  */, Value: ffval.NewValue(&cfg.params) /*  */, NoDefault: true, Usage: "comma-separated parameter types", Placeholder: "TYPES"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "results" /* */, Value: ffval.NewValue(&cfg.results) /* */, NoDefault: true, Usage: "comma-separated result types", Placeholder: "TYPES"})
}

func (cfg *matchConfig) Exec(ctx context.Context, args []string) error {
	if cfg.expr == "" {
		return fmt.Errorf("--expr is required")
	}

	m, err := trcmatch.Parse(cfg.expr)
	if err != nil {
		return err
	}

	cfg.logger.Debugf("pointcut: %s", m)

	var methods []trcmatch.Method
	if cfg.name != "" {
		methods = append(methods, trcmatch.Method{
			Package: cfg.pkg,
			Type:    cfg.typ,
			Name:    cfg.name,
			Params:  splitTypes(cfg.params),
			Results: splitTypes(cfg.results),
		})
	} else {
		methods = exampleMethods()
	}

	tw := tabwriter.NewWriter(cfg.stdout, 0, 2, 2, ' ', 0)
	defer tw.Flush()

	for _, method := range methods {
		verdict := "no match"
		if m.Matches(method) {
			verdict = "match"
		}
		fmt.Fprintf(tw, "%s\t%s\n", verdict, method)
	}

	return nil
}

func splitTypes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var res []string
	for _, t := range strings.Split(s, ",") {
		res = append(res, strings.TrimSpace(t))
	}
	return res
}

// exampleMethods describes every method of the example application's
// components, with their capability interfaces as supertypes.
func exampleMethods() []trcmatch.Method {
	var methods []trcmatch.Method
	for _, c := range []struct {
		impl  reflect.Type
		iface reflect.Type
	}{
		{reflect.TypeFor[*order.ControllerImpl](), reflect.TypeFor[order.Controller]()},
		{reflect.TypeFor[*order.ServiceImpl](), reflect.TypeFor[order.Service]()},
		{reflect.TypeFor[*order.RepositoryImpl](), reflect.TypeFor[order.Repository]()},
		{reflect.TypeFor[util.ItemFormatter](), reflect.TypeFor[util.Formatter]()},
	} {
		methods = append(methods, trcmatch.DescribeAll(c.impl, c.iface)...)
	}
	return methods
}
