package schedule

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
)

// Skip reasons.
const (
	SkipUnknownID   = "not in corpus"
	SkipDuplicateID = "listed more than once"
)

// Assignment is the new publish time for one entry.
type Assignment struct {
	ID        string
	Previous  *time.Time
	Scheduled time.Time
	// Clamped is set when the computed time exceeded the horizon and was pulled back to it.
	Clamped bool
}

// Skipped is a requested id that received no assignment.
type Skipped struct {
	ID     string
	Reason string
}

// Plan is the outcome of planning one batch. It has no side effects until applied.
type Plan struct {
	RunID       string
	Now         time.Time
	Base        time.Time
	Continued   bool // base came from an already scheduled entry
	Horizon     time.Time
	Assignments []Assignment
	Skipped     []Skipped
}

// Planner computes publish times for batches of entries.
type Planner struct {
	opts   Options
	hour   int
	minute int
	newID  func() string
}

// NewPlanner validates opts and returns a planner.
func NewPlanner(opts Options) (*Planner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	h, m, _ := ParseClock(opts.ClockTime)
	return &Planner{opts: opts, hour: h, minute: m, newID: uuid.NewString}, nil
}

// Options returns the planner's options.
func (p *Planner) Options() Options { return p.opts }

// Plan schedules ids, in the given order, after the latest future entry of c.
//
// Entries in the batch do not count as existing future entries. Unknown and
// repeated ids are reported in Plan.Skipped. An empty batch yields an empty plan.
//
// Spacing is counted in calendar days in the configured location, so across a
// daylight saving change two consecutive times are an hour more or less than
// IntervalDays*24h apart. A time past the horizon is clamped to it, even when
// that places it before an entry already scheduled beyond the horizon.
func (p *Planner) Plan(c *corpus.Corpus, ids []string, now time.Time) *Plan {
	batch := make([]*corpus.Entry, 0, len(ids))
	inBatch := make(map[string]bool, len(ids))
	var skipped []Skipped

	for _, raw := range ids {
		id := corpus.NormalizeID(raw)
		switch {
		case inBatch[id]:
			skipped = append(skipped, Skipped{ID: id, Reason: SkipDuplicateID})
		case c.Get(id) == nil:
			skipped = append(skipped, Skipped{ID: id, Reason: SkipUnknownID})
		default:
			inBatch[id] = true
			batch = append(batch, c.Get(id))
		}
	}

	var latest *time.Time
	for id, e := range c.Entries {
		if inBatch[id] || !e.IsFuture(now) {
			continue
		}
		if latest == nil || e.PublishedTime.After(*latest) {
			t := e.PublishedTime
			latest = &t
		}
	}

	plan := p.build(batch, latest, now)
	plan.Skipped = skipped
	return plan
}

// Rebalance re-spaces every future entry of c, keeping their chronological
// order, starting fresh at the start offset.
func (p *Planner) Rebalance(c *corpus.Corpus, now time.Time) *Plan {
	var future []*corpus.Entry
	for _, e := range c.Chronological() {
		if e.IsFuture(now) {
			future = append(future, e)
		}
	}
	return p.build(future, nil, now)
}

func (p *Planner) build(batch []*corpus.Entry, latest *time.Time, now time.Time) *Plan {
	loc := p.opts.location()
	plan := &Plan{
		RunID:   p.newID(),
		Now:     now,
		Horizon: now.AddDate(0, 0, p.opts.MaxFutureDays),
	}

	first := 0
	if latest != nil {
		plan.Base = p.atClock(*latest, loc)
		plan.Continued = true
		first = 1
	} else {
		plan.Base = p.atClock(now.AddDate(0, 0, p.opts.StartOffsetDays), loc)
	}

	for k, e := range batch {
		at := plan.Base.AddDate(0, 0, (k+first)*p.opts.IntervalDays)
		a := Assignment{ID: e.ID, Scheduled: at.UTC()}
		if at.After(plan.Horizon) {
			a.Scheduled = plan.Horizon.UTC()
			a.Clamped = true
		}
		if !e.PublishedTime.IsZero() {
			prev := e.PublishedTime
			a.Previous = &prev
		}
		plan.Assignments = append(plan.Assignments, a)
	}

	slog.Debug("Planned schedule",
		logfields.RunID(plan.RunID),
		logfields.Count(len(plan.Assignments)),
		slog.Time("base", plan.Base),
		slog.Bool("continued", plan.Continued))
	return plan
}

// atClock moves t to the configured time of day on its calendar date in loc.
func (p *Planner) atClock(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), p.hour, p.minute, 0, 0, loc)
}

// Clamped returns the ids whose assignment was pulled back to the horizon.
func (pl *Plan) Clamped() []string {
	var ids []string
	for _, a := range pl.Assignments {
		if a.Clamped {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
