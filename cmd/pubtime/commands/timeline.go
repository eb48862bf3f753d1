package commands

import (
	"context"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/timeline"
)

// TimelineCmd implements the 'timeline' command.
type TimelineCmd struct {
	Now    string `help:"Reference time instead of the current time (RFC 3339 or YYYY-MM-DD)"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (t *TimelineCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	now, err := resolveNow(t.Now, g)
	if err != nil {
		return err
	}
	formatter, err := timeline.NewFormatter(t.Format)
	if err != nil {
		return pterrors.ConfigInvalid("--format", err.Error())
	}

	c, err := readCorpus(context.Background(), cfg)
	if err != nil {
		return err
	}
	if err := formatter.FormatOverview(g.out(), timeline.BuildOverview(c, now)); err != nil {
		return pterrors.InternalError("failed to write overview", err)
	}
	return nil
}
