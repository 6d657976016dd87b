package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "", "Path to config.yaml. Defaults to ./configs/config.yaml, then the user config dir.")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&watchCmd{}, "")
	commander.Register(&replayCmd{}, "")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
