package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/benbjohnson/clock"
	"github.com/google/subcommands"
	"go.uber.org/fx"

	"github.com/igefined/quote-bridge/internal/audit"
	"github.com/igefined/quote-bridge/internal/bridge"
	"github.com/igefined/quote-bridge/internal/config"
	"github.com/igefined/quote-bridge/internal/normalize"
	"github.com/igefined/quote-bridge/internal/providers"
	"github.com/igefined/quote-bridge/internal/session"
	"github.com/igefined/quote-bridge/internal/version"
	"github.com/igefined/quote-bridge/pkg/logger"
)

type serveCmd struct {
	configPath string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve commands from stdin (default)" }
func (*serveCmd) Usage() string {
	return `serve [-config <file>]

  Logs in to the market-data provider and answers one JSON line on stdout
  for every command line read from stdin, until "exit" or end of input.
  Without -config the BRIDGE_CONFIG environment variable is used.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Path to the YAML configuration file.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.run(ctx, c.configPath)
}

func (c *serveCmd) run(ctx context.Context, configPath string) subcommands.ExitStatus {
	app := fx.New(
		config.NewModule(configPath),
		logger.Module,
		fx.Provide(clock.New),
		providers.Module,
		session.Module,
		audit.Module,
		bridge.Module,
	)

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	sig := <-app.Wait()

	stopCtx, cancel := context.WithTimeout(ctx, app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitStatus(sig.ExitCode)
}

type fieldsCmd struct {
	out io.Writer
}

func (*fieldsCmd) Name() string     { return "fields" }
func (*fieldsCmd) Synopsis() string { return "print the upstream to output field mappings" }
func (*fieldsCmd) Usage() string {
	return `fields [kind ...]

  Prints every mapping table, or only the named record kinds.
`
}

func (*fieldsCmd) SetFlags(*flag.FlagSet) {}

func (c *fieldsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kinds := f.Args()
	if len(kinds) == 0 {
		kinds = normalize.Kinds()
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, kind := range kinds {
		table, ok := normalize.Lookup(kind)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown record kind %q\n", kind)
			return subcommands.ExitUsageError
		}
		fmt.Fprintf(w, "%s\n", table.Kind())
		for _, field := range table.Fields() {
			fmt.Fprintf(w, "\t%s\t%s\n", field.RawKey, field.OutputKey)
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type versionCmd struct {
	out io.Writer
}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print build information" }
func (*versionCmd) Usage() string          { return "version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (c *versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(c.out, version.String())
	return subcommands.ExitSuccess
}
