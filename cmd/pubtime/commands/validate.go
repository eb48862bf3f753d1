package commands

import (
	"context"
	"log/slog"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/timeline"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Now          string `help:"Reference time instead of the current time (RFC 3339 or YYYY-MM-DD)"`
	Format       string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	StrictFuture bool   `name:"strict-future" help:"Also fail when a scheduled entry links to one scheduled after it"`
	All          bool   `short:"a" help:"List valid links too (text format)"`
	MetricsFile  string `name:"metrics-file" help:"Write Prometheus metrics to this textfile (overrides metrics.file)"`
	NoNotify     bool   `name:"no-notify" help:"Do not publish violations to NATS even if configured"`
}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	now, err := resolveNow(v.Now, g)
	if err != nil {
		return err
	}

	var formatter timeline.Formatter
	if v.Format == "json" {
		formatter = &timeline.JSONFormatter{}
	} else {
		formatter = &timeline.TextFormatter{ShowValid: v.All}
	}

	metricsFile := cfg.Metrics.File
	if v.MetricsFile != "" {
		metricsFile = v.MetricsFile
	}
	sink := newMetricsSink(metricsFile)

	pass := &validationPass{
		cfg:    cfg,
		strict: v.StrictFuture || cfg.Validation.StrictFuture,
		rec:    sink.recorder(),
	}
	if !v.NoNotify {
		n, err := newNotifier(cfg)
		if err != nil {
			slog.Warn("Notifications disabled for this run", logfields.Error(err))
		}
		defer n.Close()
		pass.notifier = n
	}

	report, err := pass.run(ctx, now)
	if err != nil {
		return err
	}
	sink.flush()

	if err := formatter.FormatReport(g.out(), report); err != nil {
		return pterrors.InternalError("failed to write report", err)
	}
	if report.HasViolations() {
		return pterrors.ViolationsFound(report.ViolationCount())
	}
	return nil
}
