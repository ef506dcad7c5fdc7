// calltrc demonstrates nested call tracing through proxied objects.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/sirupsen/logrus"
)

func main() {
	var (
		ctx    = context.Background()
		stdin  = os.Stdin
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdin, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	rootFlags := ff.NewFlagSet("calltrc")
	rootConfig.register(rootFlags)

	rootCommand := &ff.Command{
		Name:      "calltrc",
		ShortHelp: "trace nested calls through proxied objects",
		Flags:     rootFlags,
	}

	// Config for `calltrc demo`.
	demoConfig := &demoConfig{rootConfig: rootConfig}
	demoFlags := ff.NewFlagSet("demo").SetParent(rootFlags)
	demoConfig.register(demoFlags)
	demoCommand := &ff.Command{
		Name:      "demo",
		ShortHelp: "order items through the traced example application",
		LongHelp:  "Wire the example application through a wrapper, order each item, and print the trace lines.",
		Flags:     demoFlags,
		Exec:      demoConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, demoCommand)

	// Config for `calltrc match`.
	matchConfig := &matchConfig{rootConfig: rootConfig}
	matchFlags := ff.NewFlagSet("match").SetParent(rootFlags)
	matchConfig.register(matchFlags)
	matchCommand := &ff.Command{
		Name:      "match",
		ShortHelp: "evaluate a pointcut expression",
		LongHelp:  "Parse a pointcut expression, and evaluate it against a method described by flags, or against every method of the example application.",
		Flags:     matchFlags,
		Exec:      matchConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, matchCommand)

	// Config for `calltrc serve`.
	serveConfig := &serveConfig{rootConfig: rootConfig}
	serveFlags := ff.NewFlagSet("serve").SetParent(rootFlags)
	serveConfig.register(serveFlags)
	serveCommand := &ff.Command{
		Name:      "serve",
		ShortHelp: "serve the traced example application over HTTP",
		Flags:     serveFlags,
		Exec:      serveConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, serveCommand)

	// Print help when appropriate.
	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	// Initial parsing.
	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("CALLTRC")); err != nil {
		return err
	}

	// Validation and set-up.
	{
		logger := logrus.New()
		logger.SetOutput(stderr)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		switch rootConfig.logLevel {
		case "n", "none":
			logger.SetOutput(io.Discard)
		case "i", "info":
			logger.SetLevel(logrus.InfoLevel)
		case "d", "debug":
			logger.SetLevel(logrus.DebugLevel)
		case "t", "trace":
			logger.SetLevel(logrus.TraceLevel)
		default:
			return fmt.Errorf("invalid log level %q", rootConfig.logLevel)
		}
		rootConfig.logger = logger
	}

	// Run errors shouldn't show help by default.
	showHelp = false

	// Run the selected command.
	return rootCommand.Run(ctx)
}
