// Package watch re-runs validation periodically and whenever the corpus changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pubtime/internal/logfields"
)

// RunFunc performs one validation pass. Calls never overlap.
type RunFunc func(ctx context.Context)

// Options configures a Watcher.
type Options struct {
	Root     string
	Interval time.Duration
	Debounce time.Duration
}

// Watcher drives RunFunc from a gocron duration job and from debounced
// filesystem events under Root.
type Watcher struct {
	opts      Options
	run       RunFunc
	scheduler gocron.Scheduler
	fsw       *fsnotify.Watcher

	runMu sync.Mutex
	mu    sync.Mutex
	runs  int
	timer *time.Timer
}

// New creates a watcher. Call Run to start it.
func New(opts Options, run RunFunc) (*Watcher, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("watch interval must be positive")
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{opts: opts, run: run, scheduler: s, fsw: fsw}, nil
}

// Runs returns the number of completed runs.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Run starts the schedule and the filesystem watch and blocks until ctx is done.
// The first pass runs immediately.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	job, err := w.scheduler.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(func() { w.runOnce(ctx) }),
		gocron.WithName("pubtime-validate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = w.scheduler.Shutdown()
		return fmt.Errorf("failed to create validation job: %w", err)
	}

	if err := w.addTree(w.opts.Root); err != nil {
		_ = w.scheduler.Shutdown()
		return err
	}

	slog.Info("Starting watch",
		logfields.Root(w.opts.Root),
		slog.Duration("interval", w.opts.Interval),
		slog.Duration("debounce", w.opts.Debounce))
	w.scheduler.Start()

	w.loop(ctx, job)

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	slog.Info("Stopping watch")
	if err := w.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}

func (w *Watcher) loop(ctx context.Context, job gocron.Job) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("Corpus change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			w.trigger(ctx, job)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// trigger (re)starts the debounce timer; when it fires the job runs out of schedule.
func (w *Watcher) trigger(ctx context.Context, job gocron.Job) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		if ctx.Err() != nil {
			return
		}
		slog.Info("Corpus changed, running validation")
		if err := job.RunNow(); err != nil {
			slog.Error("Failed to trigger validation", logfields.Error(err))
		}
	})
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.mu.Lock()
	n := w.runs + 1
	w.mu.Unlock()

	start := time.Now()
	slog.Debug("Validation pass starting", slog.Int("run", n))
	w.run(ctx)

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()
	slog.Debug("Validation pass finished", slog.Int("run", n), logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// relevant reports whether an event can change the corpus snapshot.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".md", ".mdx":
		return true
	case "":
		// directory created, removed or renamed
		return true
	default:
		return false
	}
}
