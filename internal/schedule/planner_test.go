package schedule

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}

func newCorpus(entries ...*corpus.Entry) *corpus.Corpus {
	c := &corpus.Corpus{Entries: map[string]*corpus.Entry{}}
	for _, e := range entries {
		c.Entries[e.ID] = e
	}
	return c
}

func entry(t *testing.T, id, published string) *corpus.Entry {
	t.Helper()
	return &corpus.Entry{ID: id, PublishedTime: ts(t, published)}
}

func newTestPlanner(t *testing.T, mutate func(*Options)) *Planner {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := NewPlanner(opts)
	require.NoError(t, err)
	p.newID = func() string { return "run-1" }
	return p
}

func scheduled(plan *Plan) []time.Time {
	out := make([]time.Time, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		out = append(out, a.Scheduled)
	}
	return out
}

func TestOptions_Validate(t *testing.T) {
	cases := map[string]func(*Options){
		"zero interval":     func(o *Options) { o.IntervalDays = 0 },
		"negative interval": func(o *Options) { o.IntervalDays = -3 },
		"zero horizon":      func(o *Options) { o.MaxFutureDays = 0 },
		"negative offset":   func(o *Options) { o.StartOffsetDays = -1 },
		"bad clock":         func(o *Options) { o.ClockTime = "9am" },
		"hour out of range": func(o *Options) { o.ClockTime = "24:00" },
		"one digit minute":  func(o *Options) { o.ClockTime = "09:5" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := DefaultOptions()
			mutate(&opts)
			_, err := NewPlanner(opts)
			require.Error(t, err)
			assert.True(t, pterrors.IsCategory(err, pterrors.CategoryConfig))
		})
	}

	require.NoError(t, DefaultOptions().Validate())
}

func TestPlan_EmptyBatchIsNoOp(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(entry(t, "a", "2025-01-01T00:00:00Z"))

	plan := p.Plan(c, nil, ts(t, "2025-01-10T00:00:00Z"))
	assert.Empty(t, plan.Assignments)
	assert.Empty(t, plan.Skipped)

	w := &recordingWriter{}
	res, err := Apply(context.Background(), c, plan, w, false)
	require.NoError(t, err)
	assert.Empty(t, res.Outcomes)
	assert.Empty(t, w.calls)
}

func TestPlan_StartsAfterOffsetWithoutFuture(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(
		entry(t, "a1", "2025-01-01T00:00:00Z"),
		entry(t, "a2", "2024-12-01T00:00:00Z"),
		entry(t, "a3", "2024-12-02T00:00:00Z"),
		entry(t, "a4", "2024-12-03T00:00:00Z"),
	)

	plan := p.Plan(c, []string{"a2", "a3", "a4"}, ts(t, "2025-01-10T00:00:00Z"))
	assert.False(t, plan.Continued)
	assert.Equal(t, []time.Time{
		ts(t, "2025-01-11T09:00:00Z"),
		ts(t, "2025-01-14T09:00:00Z"),
		ts(t, "2025-01-17T09:00:00Z"),
	}, scheduled(plan))
	assert.Equal(t, []string{"a2", "a3", "a4"}, []string{plan.Assignments[0].ID, plan.Assignments[1].ID, plan.Assignments[2].ID})
	require.NotNil(t, plan.Assignments[0].Previous)
	assert.Equal(t, ts(t, "2024-12-01T00:00:00Z"), *plan.Assignments[0].Previous)
}

func TestPlan_MonotonicSpacing(t *testing.T) {
	p := newTestPlanner(t, func(o *Options) { o.IntervalDays = 2; o.MaxFutureDays = 365 })
	var entries []*corpus.Entry
	var ids []string
	for _, id := range []string{"e", "d", "c", "b", "a"} {
		entries = append(entries, entry(t, id, "2024-01-01T00:00:00Z"))
		ids = append(ids, id)
	}
	c := newCorpus(entries...)

	plan := p.Plan(c, ids, ts(t, "2025-03-10T17:45:00Z"))
	times := scheduled(plan)
	require.Len(t, times, 5)
	for k := 1; k < len(times); k++ {
		assert.Equal(t, 48*time.Hour, times[k].Sub(times[k-1]))
	}
	for k, a := range plan.Assignments {
		assert.Equal(t, ids[k], a.ID)
	}
}

func TestPlan_ContinuesAfterLatestFuture(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(
		entry(t, "live", "2025-01-01T09:00:00Z"),
		entry(t, "queued1", "2025-01-13T09:00:00Z"),
		entry(t, "queued2", "2025-01-20T15:30:00Z"),
		entry(t, "new1", "2024-06-01T00:00:00Z"),
		entry(t, "new2", "2024-06-01T00:00:00Z"),
	)

	plan := p.Plan(c, []string{"new1", "new2"}, ts(t, "2025-01-10T00:00:00Z"))
	assert.True(t, plan.Continued)
	assert.Equal(t, ts(t, "2025-01-20T09:00:00Z"), plan.Base)
	assert.Equal(t, []time.Time{
		ts(t, "2025-01-23T09:00:00Z"),
		ts(t, "2025-01-26T09:00:00Z"),
	}, scheduled(plan))
	for _, at := range scheduled(plan) {
		assert.True(t, at.After(ts(t, "2025-01-20T15:30:00Z")))
	}
}

func TestPlan_BatchEntriesDoNotPushBase(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(
		entry(t, "queued", "2025-01-15T09:00:00Z"),
		entry(t, "moving", "2025-03-01T09:00:00Z"),
	)

	plan := p.Plan(c, []string{"moving"}, ts(t, "2025-01-10T00:00:00Z"))
	assert.Equal(t, []time.Time{ts(t, "2025-01-18T09:00:00Z")}, scheduled(plan))
}

func TestPlan_ClampsToHorizon(t *testing.T) {
	p := newTestPlanner(t, func(o *Options) { o.MaxFutureDays = 5 })
	c := newCorpus(
		entry(t, "a", "2024-01-01T00:00:00Z"),
		entry(t, "b", "2024-01-01T00:00:00Z"),
		entry(t, "c", "2024-01-01T00:00:00Z"),
		entry(t, "d", "2024-01-01T00:00:00Z"),
	)
	now := ts(t, "2025-01-10T00:00:00Z")
	horizon := ts(t, "2025-01-15T00:00:00Z")

	plan := p.Plan(c, []string{"a", "b", "c", "d"}, now)
	assert.Equal(t, horizon, plan.Horizon)
	assert.Equal(t, []time.Time{
		ts(t, "2025-01-11T09:00:00Z"),
		ts(t, "2025-01-14T09:00:00Z"),
		horizon,
		horizon,
	}, scheduled(plan))
	assert.Equal(t, []string{"c", "d"}, plan.Clamped())
	for _, at := range scheduled(plan) {
		assert.False(t, at.After(horizon))
	}
}

func TestPlan_ClampWinsOverExistingBeyondHorizon(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(
		entry(t, "far", "2025-05-10T09:00:00Z"),
		entry(t, "new", "2024-06-01T00:00:00Z"),
	)
	now := ts(t, "2025-01-10T00:00:00Z")
	horizon := ts(t, "2025-04-10T00:00:00Z")

	plan := p.Plan(c, []string{"new"}, now)
	require.Len(t, plan.Assignments, 1)
	assert.True(t, plan.Continued)
	assert.Equal(t, ts(t, "2025-05-10T09:00:00Z"), plan.Base)

	a := plan.Assignments[0]
	assert.True(t, a.Clamped)
	assert.Equal(t, horizon, a.Scheduled)
	// The new entry lands before the one it was meant to follow.
	assert.True(t, a.Scheduled.Before(c.Get("far").PublishedTime))
}

func TestPlan_SpacingKeepsWallClockAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	p := newTestPlanner(t, func(o *Options) { o.Location = berlin })
	c := newCorpus(
		entry(t, "a", "2024-01-01T00:00:00Z"),
		entry(t, "b", "2024-01-01T00:00:00Z"),
	)

	// Summer time starts on 2025-03-30.
	plan := p.Plan(c, []string{"a", "b"}, ts(t, "2025-03-27T00:00:00Z"))
	got := scheduled(plan)
	assert.Equal(t, []time.Time{
		ts(t, "2025-03-28T08:00:00Z"),
		ts(t, "2025-03-31T07:00:00Z"),
	}, got)
	for _, at := range got {
		assert.Equal(t, 9, at.In(berlin).Hour())
	}
	assert.Equal(t, 71*time.Hour, got[1].Sub(got[0]))
}

func TestPlan_SkipsUnknownAndDuplicateIDs(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(entry(t, "a", "2024-01-01T00:00:00Z"))

	plan := p.Plan(c, []string{"a", "ghost", "a"}, ts(t, "2025-01-10T00:00:00Z"))
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, []Skipped{
		{ID: "ghost", Reason: SkipUnknownID},
		{ID: "a", Reason: SkipDuplicateID},
	}, plan.Skipped)
}

func TestPlan_ClockTimeInLocation(t *testing.T) {
	cet := time.FixedZone("CET", 3600)
	p := newTestPlanner(t, func(o *Options) { o.Location = cet })
	c := newCorpus(entry(t, "a", "2024-01-01T00:00:00Z"))

	// 23:30 UTC is already the 11th in CET, so tomorrow is the 12th.
	plan := p.Plan(c, []string{"a"}, ts(t, "2025-01-10T23:30:00Z"))
	assert.Equal(t, ts(t, "2025-01-12T08:00:00Z"), plan.Assignments[0].Scheduled)
	assert.Equal(t, time.UTC, plan.Assignments[0].Scheduled.Location())
}

func TestRebalance_RespacesFutureInOrder(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(
		entry(t, "old", "2024-12-01T09:00:00Z"),
		entry(t, "late", "2025-05-05T09:00:00Z"),
		entry(t, "soon", "2025-01-12T18:00:00Z"),
		entry(t, "mid", "2025-02-01T09:00:00Z"),
	)

	plan := p.Rebalance(c, ts(t, "2025-01-10T00:00:00Z"))
	require.Len(t, plan.Assignments, 3)
	assert.Equal(t, "soon", plan.Assignments[0].ID)
	assert.Equal(t, "mid", plan.Assignments[1].ID)
	assert.Equal(t, "late", plan.Assignments[2].ID)
	assert.Equal(t, []time.Time{
		ts(t, "2025-01-11T09:00:00Z"),
		ts(t, "2025-01-14T09:00:00Z"),
		ts(t, "2025-01-17T09:00:00Z"),
	}, scheduled(plan))
}

type recordingWriter struct {
	calls []string
	fail  map[string]error
}

func (w *recordingWriter) SetPublishedTime(e *corpus.Entry, at time.Time) error {
	w.calls = append(w.calls, e.ID)
	if err := w.fail[e.ID]; err != nil {
		return err
	}
	e.PublishedTime = at
	return nil
}

func TestApply_ReportsEveryOutcome(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(
		entry(t, "a", "2024-01-01T00:00:00Z"),
		entry(t, "b", "2024-01-01T00:00:00Z"),
		entry(t, "c", "2024-01-01T00:00:00Z"),
	)
	plan := p.Plan(c, []string{"a", "b", "c", "nope"}, ts(t, "2025-01-10T00:00:00Z"))

	w := &recordingWriter{fail: map[string]error{"b": errors.New("disk full")}}
	res, err := Apply(context.Background(), c, plan, w, false)
	require.Error(t, err)
	assert.True(t, pterrors.IsCategory(err, pterrors.CategoryFileSystem))

	assert.Equal(t, []string{"a", "b", "c"}, w.calls)
	assert.Equal(t, 2, res.Count(StatusScheduled))
	assert.Equal(t, 1, res.Count(StatusFailed))
	assert.Equal(t, 1, res.Count(StatusSkipped))
	assert.Equal(t, "run-1", res.RunID)

	// Entries written before the failure keep their new time.
	assert.Equal(t, ts(t, "2025-01-11T09:00:00Z"), c.Get("a").PublishedTime)
	assert.Equal(t, ts(t, "2024-01-01T00:00:00Z"), c.Get("b").PublishedTime)
}

func TestApply_DryRunWritesNothing(t *testing.T) {
	p := newTestPlanner(t, nil)
	c := newCorpus(entry(t, "a", "2024-01-01T00:00:00Z"))
	plan := p.Plan(c, []string{"a"}, ts(t, "2025-01-10T00:00:00Z"))

	w := &recordingWriter{}
	res, err := Apply(context.Background(), c, plan, w, true)
	require.NoError(t, err)
	assert.Empty(t, w.calls)
	assert.Equal(t, 1, res.Count(StatusPlanned))
	assert.True(t, res.DryRun)
}

func TestApply_WritesFrontmatter(t *testing.T) {
	root := t.TempDir()
	for _, id := range []string{"a1", "a2"} {
		dir := filepath.Join(root, id)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		content := "---\ntitle: " + id + "\npublishedTime: 2025-01-01T00:00:00.000Z\n---\nBody\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.mdx"), []byte(content), 0o644))
	}

	c, err := corpus.NewReader(corpus.DefaultOptions(root)).Read(context.Background())
	require.NoError(t, err)

	p := newTestPlanner(t, nil)
	plan := p.Plan(c, []string{"a2"}, ts(t, "2025-01-10T00:00:00Z"))
	_, err = Apply(context.Background(), c, plan, corpus.NewWriter("publishedTime"), false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "a2", "index.mdx"))
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: a2\npublishedTime: 2025-01-11T09:00:00.000Z\n---\nBody\n", string(data))
}
