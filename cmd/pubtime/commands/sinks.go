package commands

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/config"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/history"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/metrics"
	"git.home.luguber.info/inful/pubtime/internal/notify"
	"git.home.luguber.info/inful/pubtime/internal/schedule"
)

// metricsSink exports to the textfile collector when a file is configured.
type metricsSink struct {
	path string
	rec  *metrics.PrometheusRecorder
}

func newMetricsSink(path string) *metricsSink {
	if path == "" {
		return nil
	}
	return &metricsSink{path: path, rec: metrics.NewPrometheusRecorder(nil)}
}

func (m *metricsSink) recorder() metrics.Recorder {
	if m == nil {
		return metrics.NoopRecorder{}
	}
	return m.rec
}

// flush writes the textfile. Failures are logged; metrics never fail a run.
func (m *metricsSink) flush() {
	if m == nil {
		return
	}
	if err := m.rec.WriteTextfile(m.path); err != nil {
		slog.Warn("Failed to export metrics", logfields.Path(m.path), logfields.Error(err))
		return
	}
	slog.Debug("Exported metrics", logfields.Path(m.path))
}

func recordScheduleMetrics(rec metrics.Recorder, res *schedule.Result, at time.Time) {
	for _, s := range []schedule.Status{schedule.StatusScheduled, schedule.StatusPlanned, schedule.StatusSkipped, schedule.StatusFailed} {
		rec.AddScheduleOutcomes(string(s), res.Count(s))
	}
	rec.SetLastRun(at)
}

// recordHistory appends the run to the history store. A history failure is
// logged and does not fail the run; the frontmatter is already written.
func recordHistory(ctx context.Context, cfg *config.Config, res *schedule.Result, at time.Time) {
	if cfg.History.Path == "" {
		return
	}
	records := history.FromResult(res, at)
	if len(records) == 0 {
		return
	}
	rev := history.Revision(cfg.Corpus.Root)
	for i := range records {
		records[i].Revision = rev
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		logHistoryError(pterrors.HistoryUnavailable(cfg.History.Path, err))
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Append(ctx, records); err != nil {
		logHistoryError(pterrors.HistoryUnavailable(cfg.History.Path, err))
		return
	}
	slog.Debug("Recorded schedule history", logfields.RunID(res.RunID), logfields.Count(len(records)))
}

func logHistoryError(err *pterrors.PubtimeError) {
	path, _ := err.Context["path"].(string)
	slog.Warn(err.Message, logfields.Path(path), logfields.Error(err.Cause))
}

func newNotifier(cfg *config.Config) (*notify.Notifier, error) {
	if cfg.Notify.NATSURL == "" {
		return nil, nil
	}
	pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Timeout)
	if err != nil {
		return nil, pterrors.NotifyFailed(cfg.Notify.Subject, err)
	}
	return notify.NewNotifier(pub, cfg.Notify.Subject, cfg.Notify.Retry.Policy()), nil
}
