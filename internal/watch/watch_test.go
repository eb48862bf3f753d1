package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	cases := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/c/a/index.mdx", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/c/a/index.md", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/c/new-article", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/c/a/cover.png", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/c/a/.pubtime-123", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/c/a/index.mdx", Op: fsnotify.Chmod}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, relevant(tc.event), tc.event.String())
	}
}

func TestNew_RejectsZeroInterval(t *testing.T) {
	_, err := New(Options{Root: t.TempDir()}, func(context.Context) {})
	require.Error(t, err)
}

func TestWatcher_RunsImmediatelyAndOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))

	var calls atomic.Int32
	w, err := New(Options{Root: root, Interval: time.Hour, Debounce: 50 * time.Millisecond}, func(context.Context) {
		calls.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "index.mdx"), []byte("---\npublishedTime: 2025-01-01\n---\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.GreaterOrEqual(t, w.Runs(), 2)
}
