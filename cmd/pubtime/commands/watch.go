package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Every        time.Duration `help:"Interval between scheduled validation runs (default from config)"`
	StrictFuture bool          `name:"strict-future" help:"Also flag a scheduled entry linking to one scheduled after it"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	interval := cfg.Watch.Interval
	if w.Every > 0 {
		interval = w.Every
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink := newMetricsSink(cfg.Metrics.File)
	notifier, err := newNotifier(cfg)
	if err != nil {
		slog.Warn("Notifications disabled", logfields.Error(err))
	}
	defer notifier.Close()

	pass := &validationPass{
		cfg:      cfg,
		strict:   w.StrictFuture || cfg.Validation.StrictFuture,
		rec:      sink.recorder(),
		notifier: notifier,
	}

	watcher, err := watch.New(watch.Options{
		Root:     cfg.Corpus.Root,
		Interval: interval,
		Debounce: cfg.Watch.Debounce,
	}, func(ctx context.Context) {
		// Each pass uses the wall clock so entries go live as time passes.
		if _, err := pass.run(ctx, g.now().UTC()); err != nil {
			slog.Error("Validation pass failed", logfields.Error(err))
			return
		}
		sink.flush()
	})
	if err != nil {
		return pterrors.ConfigInvalid("watch", err.Error())
	}

	if err := watcher.Run(ctx); err != nil {
		return pterrors.Wrap(err, pterrors.CategoryRuntime, pterrors.SeverityFatal, "watch stopped")
	}
	slog.Info("Watch stopped", logfields.Count(watcher.Runs()))
	return nil
}
