package schedule

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
)

// Status is the per-entry result of applying a plan.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPlanned   Status = "planned" // dry run
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to one entry.
type Outcome struct {
	ID        string
	Previous  *time.Time
	Scheduled time.Time
	Clamped   bool
	Status    Status
	Reason    string
	Err       error
}

// Result is the full report of one plan or rebalance run.
type Result struct {
	RunID    string
	DryRun   bool
	Outcomes []Outcome
}

// Count returns the number of outcomes with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// EntryWriter persists a new publish time for an entry.
type EntryWriter interface {
	SetPublishedTime(e *corpus.Entry, t time.Time) error
}

// Apply writes every assignment of plan through w, in plan order.
//
// A failed write does not stop the run and is not rolled back. After all
// entries are processed a filesystem error is returned if any write failed.
// With dryRun nothing is written and assignments are reported as planned.
func Apply(ctx context.Context, c *corpus.Corpus, plan *Plan, w EntryWriter, dryRun bool) (*Result, error) {
	res := &Result{RunID: plan.RunID, DryRun: dryRun}

	var firstErr error
	for _, a := range plan.Assignments {
		out := Outcome{ID: a.ID, Previous: a.Previous, Scheduled: a.Scheduled, Clamped: a.Clamped}

		if err := ctx.Err(); err != nil {
			out.Status = StatusSkipped
			out.Reason = "cancelled"
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		if dryRun {
			out.Status = StatusPlanned
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		e := c.Get(a.ID)
		if e == nil {
			out.Status = StatusSkipped
			out.Reason = SkipUnknownID
			res.Outcomes = append(res.Outcomes, out)
			continue
		}

		if err := w.SetPublishedTime(e, a.Scheduled); err != nil {
			out.Status = StatusFailed
			out.Err = err
			if stdErrors.Is(err, corpus.ErrStaleEntry) {
				out.Reason = "changed on disk"
			}
			if firstErr == nil {
				firstErr = err
			}
			slog.Error("Failed to write publish time",
				logfields.RunID(plan.RunID),
				logfields.EntryID(a.ID),
				logfields.Path(e.Path),
				logfields.Error(err))
		} else {
			out.Status = StatusScheduled
			slog.Info("Scheduled entry",
				logfields.RunID(plan.RunID),
				logfields.EntryID(a.ID),
				logfields.Previous(a.Previous),
				logfields.PublishedTime(a.Scheduled))
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	for _, s := range plan.Skipped {
		res.Outcomes = append(res.Outcomes, Outcome{ID: s.ID, Status: StatusSkipped, Reason: s.Reason})
		slog.Warn("Skipped entry", logfields.RunID(plan.RunID), logfields.EntryID(s.ID), logfields.Reason(s.Reason))
	}

	if failed := res.Count(StatusFailed); failed > 0 {
		return res, pterrors.CorpusWriteFailed(failed, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
