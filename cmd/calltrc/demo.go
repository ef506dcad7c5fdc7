package main

import (
	"context"
	"time"

	"github.com/peterbourgon/calltrc/internal/example"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
	"github.com/zoobzio/clockz"
)

type demoConfig struct {
	*rootConfig

	items []string
	delay time.Duration
}

func (cfg *demoConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'i', LongName: "item" /*  */, Value: ffval.NewUniqueList(&cfg.items) /*                 */, Usage: "item to order, 'ex' fails (repeatable)", Placeholder: "ITEM"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "delay" /* */, Value: ffval.NewValueDefault(&cfg.delay, 10*time.Millisecond) /* */, Usage: "time taken by each repository save"})
}

func (cfg *demoConfig) Exec(ctx context.Context, args []string) error {
	items := cfg.items
	if len(items) <= 0 {
		items = []string{"itemA"}
	}

	tracer := cfg.newTracer()

	w, err := cfg.newWrapper(tracer)
	if err != nil {
		return err
	}

	app, err := example.Wire(w, clockz.RealClock, cfg.delay)
	if err != nil {
		return err
	}

	for _, item := range items {
		res, err := app.Controller.Request(ctx, item)
		if err != nil {
			cfg.logger.WithError(err).WithField("item", item).Warn("request failed")
			continue
		}
		cfg.logger.WithField("item", item).Infof("request: %s", res)
	}

	return nil
}
