package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pubtime/cmd/pubtime/commands"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("pubtime"),
		kong.Description("Schedule article publish times and keep live articles from linking to unpublished ones."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(&cli),
	)

	err := ctx.Run(&commands.Global{
		Logger: slog.Default(),
		Stdout: os.Stdout,
		Clock:  time.Now,
	})
	if err != nil {
		adapter := pterrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
		os.Exit(adapter.Handle(err))
	}
}
