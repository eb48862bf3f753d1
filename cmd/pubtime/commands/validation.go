package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/config"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/metrics"
	"git.home.luguber.info/inful/pubtime/internal/notify"
	"git.home.luguber.info/inful/pubtime/internal/timeline"
)

// validationPass is one read-and-validate run shared by validate and watch.
type validationPass struct {
	cfg      *config.Config
	strict   bool
	rec      metrics.Recorder
	notifier *notify.Notifier
}

func (v *validationPass) run(ctx context.Context, now time.Time) (*timeline.Report, error) {
	start := time.Now()

	c, err := readCorpus(ctx, v.cfg)
	if err != nil {
		return nil, err
	}
	report := timeline.NewValidator(timeline.Options{StrictFutureOrder: v.strict}).Validate(c, now)

	past, future := 0, 0
	for _, e := range c.Entries {
		if e.IsFuture(now) {
			future++
		} else {
			past++
		}
	}
	for _, cl := range timeline.Classes {
		v.rec.AddFindings(string(cl), report.Counts[cl])
	}
	v.rec.SetEntries(past, future)
	v.rec.ObserveValidationDuration(time.Since(start))
	v.rec.SetLastRun(now)

	for _, f := range report.Violations() {
		slog.Warn("Timeline violation",
			logfields.EntryID(f.SourceID),
			logfields.TargetID(f.TargetID),
			logfields.Class(string(f.Class)))
	}
	slog.Info("Validation finished",
		logfields.Count(len(report.Findings)),
		slog.Int("violations", report.ViolationCount()),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if _, err := v.notifier.NotifyViolations(ctx, v.cfg.Corpus.Root, report, now); err != nil {
		slog.Warn("Failed to send violation notification", logfields.Error(err))
	}
	return report, nil
}
