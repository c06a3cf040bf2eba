package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"KeyStatsLab/internal/app"
	"KeyStatsLab/internal/backtest"
	"KeyStatsLab/internal/notifier"
	"KeyStatsLab/internal/scheduler"
)

// configFlag is shared by every command.
type configFlag struct {
	path string
}

func (c *configFlag) register(f *flag.FlagSet) {
	f.StringVar(&c.path, "config", string(app.DefaultConfigPath()), "path to the YAML config")
}

// withApp builds the App, runs fn and maps its error to an exit status.
func (c *configFlag) withApp(fn func(a *app.App) error) subcommands.ExitStatus {
	a, cleanup, err := InitializeApp(app.ConfigPath(c.path))
	if err != nil {
		log.Printf("[FATAL] init: %v", err)
		return subcommands.ExitFailure
	}
	defer cleanup()
	if err := fn(a); err != nil {
		log.Printf("[ERROR] %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type fetchCmd struct {
	configFlag
	forward bool
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download price histories or current key statistics pages" }
func (*fetchCmd) Usage() string {
	return "fetch [-config path] [-forward]\n" +
		"  Downloads adjusted closes for every ticker in the stats directory plus the benchmark.\n" +
		"  With -forward, downloads each ticker's current key statistics page instead.\n"
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.forward, "forward", false, "download current key statistics pages into forward_dir")
}

func (c *fetchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withApp(func(a *app.App) error {
		if c.forward {
			return a.FetchForward(ctx)
		}
		return a.FetchPrices(ctx)
	})
}

type buildCmd struct{ configFlag }

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "parse snapshots and write the labeled dataset" }
func (*buildCmd) Usage() string    { return "build [-config path]\n" }

func (c *buildCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *buildCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withApp(func(a *app.App) error {
		_, st, err := a.BuildDataset(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d snapshots, %d rows, %d dropped -> %s\n", st.Snapshots, st.Rows, st.Dropped, a.DatasetPath())
		return nil
	})
}

type backtestCmd struct {
	configFlag
	notify bool
}

func (*backtestCmd) Name() string     { return "backtest" }
func (*backtestCmd) Synopsis() string { return "train on part of the dataset and report returns on the rest" }
func (*backtestCmd) Usage() string    { return "backtest [-config path] [-notify]\n" }

func (c *backtestCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.notify, "notify", false, "also send the report through the notifier")
}

func (c *backtestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withApp(func(a *app.App) error {
		rep, err := a.Backtest(ctx)
		if err != nil {
			return err
		}
		fmt.Print(backtest.FormatReport(rep))
		if c.notify {
			msg := notifier.FormatBacktestReport(rep, a.Config.Pipeline.OutperformancePct)
			return a.Notifier.SendWithRetry(ctx, msg, 3)
		}
		return nil
	})
}

type predictCmd struct{ configFlag }

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "list current tickers predicted to outperform" }
func (*predictCmd) Usage() string    { return "predict [-config path]\n" }

func (c *predictCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *predictCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withApp(func(a *app.App) error {
		picks, err := a.Predict(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d stocks predicted to outperform the index by more than %.0f%%:\n",
			len(picks), a.Config.Pipeline.OutperformancePct)
		for _, p := range picks {
			fmt.Println(p.Ticker)
		}
		return nil
	})
}

type serveCmd struct {
	configFlag
	runOnStart bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run scheduled backtests and answer Telegram commands" }
func (*serveCmd) Usage() string    { return "serve [-config path] [-run-on-start]\n" }

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.BoolVar(&c.runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "run a backtest immediately")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.withApp(func(a *app.App) error {
		cfg := a.Config
		sched := scheduler.NewScheduler(ctx, a, a.Notifier, a.Recorder, cfg.Pipeline.OutperformancePct)
		if err := sched.RegisterAll(cfg.Schedule.BacktestCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if a.Telegram != nil {
			go a.Telegram.StartPolling(ctx, sched.HandleCommand)
			log.Println("[INFO] Telegram polling started")
		} else {
			log.Println("[WARN] Telegram not configured, reports go to the log")
		}

		if c.runOnStart {
			log.Println("[INFO] run-on-start enabled, executing backtest now")
			go sched.RunBacktestNow()
		}

		log.Printf("[INFO] KeyStatsLab serving, backtest schedule %q. Press Ctrl+C to stop.", cfg.Schedule.BacktestCron)
		<-ctx.Done()
		log.Println("[INFO] shutdown signal received, stopping...")
		return nil
	})
}
