package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&fieldsCmd{out: os.Stdout}, "")
	commander.Register(&versionCmd{out: os.Stdout}, "")

	flag.Parse()
	ctx := context.Background()

	// The bridge is usually spawned without arguments by its parent process.
	if flag.NArg() == 0 {
		os.Exit(int((&serveCmd{}).run(ctx, "")))
	}
	os.Exit(int(commander.Execute(ctx)))
}
