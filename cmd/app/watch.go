package main

import (
	"context"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/watch"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
)

type watchCmd struct {
	url    string
	filter string
	sortBy string
	clear  bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "render the live dashboard in the terminal" }
func (*watchCmd) Usage() string {
	return `watch [-url <ws url>] [-filter <text>] [-sort <column>] [-clear]

  Connects to a running server and redraws the market table on every update.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.url, "url", "ws://localhost:8080/ws", "Websocket endpoint of the server.")
	f.StringVar(&c.filter, "filter", "", "Table filter applied after connecting.")
	f.StringVar(&c.sortBy, "sort", "", "Sort column applied after connecting (rank, name, price, marketCap, ...).")
	f.BoolVar(&c.clear, "clear", true, "Clear the screen between frames.")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := infra.LoadConfig(resolvedConfigPath())
	if err != nil {
		slog.Error("❌ Config error", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	slog.SetDefault(infra.NewLogger(cfg))

	opts := watch.Options{SortBy: c.sortBy, Clear: c.clear}
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "filter" {
			opts.Filter = &c.filter
		}
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.NewWatcher(c.url, os.Stdout, opts)
	if err := w.Connect(ctx); err != nil {
		slog.Error("❌ Watch failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	<-ctx.Done()
	w.Disconnect()
	return subcommands.ExitSuccess
}

func resolvedConfigPath() string {
	if *configPath != "" {
		return *configPath
	}
	return infra.ResolveConfigPath()
}
