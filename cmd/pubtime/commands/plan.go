package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/config"
	"git.home.luguber.info/inful/pubtime/internal/corpus"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/schedule"
)

// ScheduleFlags override the schedule section of the configuration.
type ScheduleFlags struct {
	Interval    *int   `help:"Days between consecutive publish times (default from config)"`
	StartOffset *int   `name:"start-offset" help:"Days from now to the first slot when nothing is scheduled (default from config)"`
	MaxFuture   *int   `name:"max-future" help:"Latest allowed publish time in days from now (default from config)"`
	Clock       string `help:"Time of day for publish times, HH:MM (default from config)"`
	Now         string `help:"Reference time instead of the current time (RFC 3339 or YYYY-MM-DD)"`
	DryRun      bool   `name:"dry-run" help:"Show the schedule without writing"`
	Format      string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (f *ScheduleFlags) options(cfg *config.Config) (schedule.Options, error) {
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return schedule.Options{}, pterrors.ConfigInvalid("schedule.timezone", err.Error())
	}
	opts := schedule.Options{
		IntervalDays:    cfg.Schedule.IntervalDays,
		StartOffsetDays: cfg.Schedule.StartOffsetDays,
		MaxFutureDays:   cfg.Schedule.MaxFutureDays,
		ClockTime:       cfg.Schedule.ClockTime,
		Location:        loc,
	}
	if f.Interval != nil {
		opts.IntervalDays = *f.Interval
	}
	if f.StartOffset != nil {
		opts.StartOffsetDays = *f.StartOffset
	}
	if f.MaxFuture != nil {
		opts.MaxFutureDays = *f.MaxFuture
	}
	if f.Clock != "" {
		opts.ClockTime = f.Clock
	}
	return opts, nil
}

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Schedule ScheduleFlags `embed:""`
	IDs      []string      `arg:"" name:"id" optional:"" help:"Entry ids in the order they should publish"`
}

func (p *PlanCmd) Run(g *Global, root *CLI) error {
	return runSchedule(context.Background(), g, root, &p.Schedule, func(pl *schedule.Planner, c *corpus.Corpus, now time.Time) *schedule.Plan {
		return pl.Plan(c, p.IDs, now)
	})
}

// RebalanceCmd implements the 'rebalance' command.
type RebalanceCmd struct {
	Schedule ScheduleFlags `embed:""`
}

func (r *RebalanceCmd) Run(g *Global, root *CLI) error {
	return runSchedule(context.Background(), g, root, &r.Schedule, func(pl *schedule.Planner, c *corpus.Corpus, now time.Time) *schedule.Plan {
		return pl.Rebalance(c, now)
	})
}

type planFunc func(pl *schedule.Planner, c *corpus.Corpus, now time.Time) *schedule.Plan

// runSchedule validates options, reads the corpus, plans, writes and reports.
// Configuration problems are reported before anything is written.
func runSchedule(ctx context.Context, g *Global, root *CLI, flags *ScheduleFlags, build planFunc) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	opts, err := flags.options(cfg)
	if err != nil {
		return err
	}
	planner, err := schedule.NewPlanner(opts)
	if err != nil {
		return err
	}
	formatter, err := schedule.NewFormatter(flags.Format)
	if err != nil {
		return pterrors.ConfigInvalid("--format", err.Error())
	}
	now, err := resolveNow(flags.Now, g)
	if err != nil {
		return err
	}

	c, err := readCorpus(ctx, cfg)
	if err != nil {
		return err
	}

	plan := build(planner, c, now)
	for _, id := range plan.Clamped() {
		slog.Warn("Publish time clamped to horizon", logfields.EntryID(id), logfields.PublishedTime(plan.Horizon))
	}
	res, applyErr := schedule.Apply(ctx, c, plan, corpus.NewWriter(cfg.Corpus.TimeField), flags.DryRun)

	if err := formatter.Format(g.out(), res); err != nil {
		return pterrors.InternalError("failed to write report", err)
	}

	finished := g.now()
	if !flags.DryRun {
		recordHistory(ctx, cfg, res, finished)
	}
	sink := newMetricsSink(cfg.Metrics.File)
	recordScheduleMetrics(sink.recorder(), res, finished)
	sink.flush()

	return applyErr
}
