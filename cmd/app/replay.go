package main

import (
	"context"
	"crypto_dash/internal/domain"
	"crypto_dash/internal/infra"
	"crypto_dash/internal/projection"
	"crypto_dash/internal/server"
	"crypto_dash/internal/watch"
	"crypto_dash/replay"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/subcommands"
)

type replayCmd struct {
	tape   string
	asJSON bool
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "rebuild the ledger from a recorded tape" }
func (*replayCmd) Usage() string {
	return `replay [-tape <events.db>] [-json]

  Re-applies every recorded price update to the seed assets and prints the
  resulting ledger.
`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tape, "tape", "", "Tape to replay. Defaults to the workspace tape.")
	f.BoolVar(&c.asJSON, "json", false, "Print the ledger state as JSON instead of a table.")
}

func (c *replayCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := infra.LoadConfig(resolvedConfigPath())
	if err != nil {
		slog.Error("❌ Config error", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	slog.SetDefault(infra.NewLogger(cfg))

	path := c.tape
	if path == "" {
		path = infra.TapePath(infra.GetWorkspaceDir())
	}
	if _, err := os.Stat(path); err != nil {
		slog.Error("❌ Tape not found", slog.String("path", path), slog.Any("error", err))
		return subcommands.ExitFailure
	}

	r, err := replay.NewReplayer(path)
	if err != nil {
		slog.Error("❌ Replay failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	defer r.Close()

	res, err := r.Run(ctx, domain.SeedAssets())
	if err != nil {
		slog.Error("❌ Replay failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.State); err != nil {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	fmt.Printf("session %s: %d updates, next seq %d\n\n", res.Session.ID, res.Applied, res.NextSeq)
	frame := server.SnapshotFrame{
		Type:          server.FrameSnapshot,
		Version:       res.State.Version,
		SortBy:        res.State.SortBy,
		SortDirection: res.State.SortDirection,
		Feed:          "replay",
		Table:         projection.Table(res.State),
		Portfolio:     server.BuildPortfolioView(res.State, &domain.PortfolioState{Holdings: domain.SeedHoldings()}),
	}
	if err := watch.Render(os.Stdout, frame); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
