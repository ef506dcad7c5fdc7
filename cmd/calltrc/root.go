package main

import (
	"fmt"
	"io"

	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/internal/example"
	"github.com/peterbourgon/calltrc/trcconf"
	"github.com/peterbourgon/calltrc/trclogrus"
	"github.com/peterbourgon/calltrc/trcproxy"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/sirupsen/logrus"
)

type rootConfig struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logLevel    string
	traceOutput string
	basePackage string
	policyFile  string
	maxErrLen   int

	logger *logrus.Logger
}

func (cfg *rootConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'l', LongName: "log-level" /*    */, Value: ffval.NewEnum(&cfg.logLevel, "info", "i", "debug", "d", "trace", "t", "none", "n") /* */, Usage: "log level: i/info, d/debug, t/trace, n/none" /*            */, Placeholder: "LEVEL"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'o', LongName: "trace-output" /* */, Value: ffval.NewEnum(&cfg.traceOutput, "text", "logrus") /*                              */, Usage: "trace lines as plain text to stdout, or through the logger" /* */, Placeholder: "FORMAT"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'b', LongName: "base-package" /* */, Value: ffval.NewValueDefault(&cfg.basePackage, example.BasePackage) /*                   */, Usage: "only wrap objects in this package, or below it" /*          */, Placeholder: "PKG"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'p', LongName: "policies" /*     */, Value: ffval.NewValue(&cfg.policyFile) /*                                               */, Usage: "YAML policy file, overrides --base-package" /*              */, Placeholder: "FILE", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "max-error" /*    */, Value: ffval.NewValueDefault(&cfg.maxErrLen, calltrc.DefaultMaxErrorLength) /*          */, Usage: "max length of errors in trace lines, 0 for no limit" /*     */, Placeholder: "N"})
}

func (cfg *rootConfig) newTracer(extra ...calltrc.Sink) *calltrc.Tracer {
	var sink calltrc.Sink
	switch cfg.traceOutput {
	case "logrus":
		sink = trclogrus.NewSink(cfg.logger)
	default:
		sink = calltrc.NewWriterSink(cfg.stdout)
	}
	if len(extra) > 0 {
		sink = append(calltrc.MultiSink{sink}, extra...)
	}
	return calltrc.NewTracer(calltrc.WithSink(sink), calltrc.WithMaxErrorLength(cfg.maxErrLen))
}

func (cfg *rootConfig) newWrapper(tracer *calltrc.Tracer) (*trcproxy.Wrapper, error) {
	if cfg.policyFile == "" {
		cfg.logger.Debugf("base package: %s", cfg.basePackage)
		return trcproxy.NewWrapper(cfg.basePackage, example.DefaultPolicies(tracer), trcproxy.WithLogger(cfg.logger)), nil
	}

	c, err := trcconf.LoadFile(cfg.policyFile)
	if err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}

	w, err := c.Wrapper(example.Registry(tracer, cfg.logger), trcproxy.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.policyFile, err)
	}

	for _, p := range w.Policies() {
		cfg.logger.Debugf("policy: %s", p)
	}

	return w, nil
}
