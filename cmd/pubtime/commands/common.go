package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pubtime/internal/config"
	"git.home.luguber.info/inful/pubtime/internal/corpus"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives reports; logs go to stderr.
	Stdout io.Writer
	// Clock is the wall clock; only commands read it, and only when --now is not given.
	Clock func() time.Time
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Global) now() time.Time {
	if g == nil || g.Clock == nil {
		return time.Now()
	}
	return g.Clock()
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pubtime.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Plan      PlanCmd      `cmd:"" help:"Assign publish times to entries, after everything already scheduled"`
	Rebalance RebalanceCmd `cmd:"" help:"Re-space every scheduled entry from tomorrow on"`
	Validate  ValidateCmd  `cmd:"" help:"Check that live entries never link to unpublished or missing entries"`
	Timeline  TimelineCmd  `cmd:"" help:"Show published and scheduled entries with their spacing"`
	History   HistoryCmd   `cmd:"" help:"List recorded schedule assignments"`
	Watch     WatchCmd     `cmd:"" help:"Validate periodically and whenever the corpus changes"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func loadConfig(root *CLI) (*config.Config, error) {
	path := config.DefaultPath
	if root != nil && root.Config != "" {
		path = root.Config
	}
	return config.Load(path)
}

func corpusOptions(cfg *config.Config) corpus.Options {
	return corpus.Options{
		Root:         cfg.Corpus.Root,
		ContentFiles: cfg.Corpus.ContentFiles,
		ParseOptions: corpus.ParseOptions{
			TimeField:  cfg.Corpus.TimeField,
			TitleField: cfg.Corpus.TitleField,
			LinkPrefix: cfg.Corpus.LinkPrefix,
		},
	}
}

func readCorpus(ctx context.Context, cfg *config.Config) (*corpus.Corpus, error) {
	return corpus.NewReader(corpusOptions(cfg)).Read(ctx)
}

// resolveNow parses --now, falling back to the wall clock.
func resolveNow(flag string, g *Global) (time.Time, error) {
	if flag == "" {
		return g.now().UTC(), nil
	}
	t, err := corpus.ParseTime(flag)
	if err != nil {
		return time.Time{}, pterrors.ConfigInvalid("--now", err.Error())
	}
	return t, nil
}
