package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/astrokit/cmd/astro/commands"
	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
	"git.home.luguber.info/inful/astrokit/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parserArgs, forwarded := commands.SplitArgs(args)

	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("astro"),
		kong.Description("Manage and launch a self-contained astronomy environment."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(false, slog.Default()).Report(
			ferrors.WrapError(err, ferrors.CategoryInternal, "invalid command definition").Build())
	}

	kctx, err := parser.Parse(parserArgs)
	if err != nil {
		return ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(
			ferrors.WrapError(err, ferrors.CategoryValidation, "invalid command line").
				Hint("run astro help").
				Build())
	}

	global := &commands.Global{Ctx: ctx, Forwarded: forwarded}
	if err := kctx.Run(global); err != nil {
		logger := global.Logger
		if logger == nil {
			logger = slog.Default()
		}
		return ferrors.NewCLIErrorAdapter(cli.Verbose, logger).Report(err)
	}
	return global.Exit
}
