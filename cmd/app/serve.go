package main

import (
	"context"
	"crypto_dash/internal/app"
	"crypto_dash/internal/infra"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
)

type serveCmd struct {
	addr      string
	tape      bool
	noConnect bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the market feed and serve the dashboard" }
func (*serveCmd) Usage() string {
	return `serve [-addr <host:port>] [-tape] [-no-connect]

  Runs the simulated feed, the websocket and the JSON API until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Overrides server.addr.")
	f.BoolVar(&c.tape, "tape", false, "Record price updates to the tape. Overrides tape.enabled.")
	f.BoolVar(&c.noConnect, "no-connect", false, "Start with the feed disconnected.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	cfg := bootstrap.Config
	if c.addr != "" {
		cfg.Server.Addr = c.addr
	}
	if c.tape {
		cfg.Tape.Enabled = true
	}
	if c.noConnect {
		cfg.Feed.AutoConnect = false
	}

	if err := bootstrap.OpenWorkspace(); err != nil {
		slog.Error("❌ Workspace unavailable", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	defer bootstrap.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx)
	if err != nil {
		slog.Error("❌ Wiring failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}

	infra.PrintBanner(os.Stdout, cfg)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           rt.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("🌐 Listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if err := rt.Start(ctx); err != nil {
		slog.Error("Failed to connect feed", slog.Any("error", err))
	}
	slog.Info("✨ Crypto Dash fully operational. Press Ctrl+C to exit.")

	status := subcommands.ExitSuccess
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			slog.Error("❌ Server error", slog.Any("error", err))
			status = subcommands.ExitFailure
		}
	}

	slog.Info("👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rt.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", slog.Any("error", err))
	}
	return status
}
