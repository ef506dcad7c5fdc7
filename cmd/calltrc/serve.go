package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/calltrc"
	"github.com/peterbourgon/calltrc/internal/example"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/zoobzio/clockz"
)

type serveConfig struct {
	*rootConfig

	listenAddr string
	delay      time.Duration
	keep       int
}

func (cfg *serveConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "listen-addr" /* */, Value: ffval.NewValueDefault(&cfg.listenAddr, "localhost:8080") /*        */, Usage: "HTTP listen address"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "delay" /*       */, Value: ffval.NewValueDefault(&cfg.delay, 10*time.Millisecond) /*           */, Usage: "time taken by each repository save"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "keep" /*        */, Value: ffval.NewValueDefault(&cfg.keep, 1000) /*                           */, Usage: "recent trace lines served at /traces"})
}

func (cfg *serveConfig) Exec(ctx context.Context, args []string) error {
	recent := calltrc.NewRecentSink(cfg.keep)
	tracer := cfg.newTracer(recent)

	w, err := cfg.newWrapper(tracer)
	if err != nil {
		return err
	}

	app, err := example.Wire(w, clockz.RealClock, cfg.delay)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	cfg.logger.Infof("listening on http://%s", ln.Addr())

	server := &http.Server{
		Handler:           example.NewHandler(app, recent, cfg.logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var g run.Group

	g.Add(func() error {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	})

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	return g.Run()
}
