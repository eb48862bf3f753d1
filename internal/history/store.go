// Package history keeps a durable log of publish times assigned by plan and
// rebalance runs.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/schedule"
)

// Record is one entry's outcome in one run.
type Record struct {
	ID        int64
	RunID     string
	EntryID   string
	Previous  *time.Time
	Scheduled time.Time
	Status    schedule.Status
	Error     string
	// Revision is the corpus repository's HEAD commit, empty outside git.
	Revision   string
	RecordedAt time.Time
}

// Query filters List results. A zero Limit means no limit.
type Query struct {
	EntryID string
	RunID   string
	Limit   int
}

// Store persists schedule records.
type Store interface {
	Append(ctx context.Context, records []Record) error
	// List returns matching records, newest first.
	List(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// FromResult converts the written and failed outcomes of a run into records.
// Dry runs and skipped entries produce no records.
func FromResult(res *schedule.Result, at time.Time) []Record {
	if res == nil || res.DryRun {
		return nil
	}
	var out []Record
	for _, o := range res.Outcomes {
		if o.Status != schedule.StatusScheduled && o.Status != schedule.StatusFailed {
			continue
		}
		r := Record{
			RunID:      res.RunID,
			EntryID:    o.ID,
			Previous:   o.Previous,
			Scheduled:  o.Scheduled,
			Status:     o.Status,
			RecordedAt: at,
		}
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
		out = append(out, r)
	}
	return out
}
