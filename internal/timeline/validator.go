package timeline

import (
	"time"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
)

// Options tunes classification.
type Options struct {
	// StrictFutureOrder reports a future entry linking to a future entry that
	// publishes after it as a violation instead of informational.
	StrictFutureOrder bool
}

// Validator classifies every same-site link of a corpus.
type Validator struct {
	opts Options
}

// NewValidator creates a validator.
func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Validate classifies the links of c relative to now.
//
// Findings are ordered by source id, then by position of the link in the
// source body. Validate does not touch the filesystem and is deterministic for
// a given corpus and now.
func (v *Validator) Validate(c *corpus.Corpus, now time.Time) *Report {
	report := &Report{
		Now:     now,
		Entries: len(c.Entries),
		Counts:  make(map[Class]int, len(Classes)),
	}
	for _, cl := range Classes {
		report.Counts[cl] = 0
	}

	for _, id := range c.IDs() {
		src := c.Entries[id]
		for _, link := range src.Links {
			f := v.classify(c, src, link, now)
			report.Findings = append(report.Findings, f)
			report.Counts[f.Class]++
		}
	}
	return report
}

func (v *Validator) classify(c *corpus.Corpus, src *corpus.Entry, link corpus.Link, now time.Time) Finding {
	f := Finding{
		SourceID:   src.ID,
		SourceTime: src.PublishedTime,
		TargetID:   link.TargetID,
		Anchor:     link.Anchor,
	}

	target := c.Get(link.TargetID)
	if target == nil {
		f.Class = ClassBroken
		f.Severity = SeverityViolation
		return f
	}
	tt := target.PublishedTime
	f.TargetTime = &tt

	srcFuture := src.IsFuture(now)
	dstFuture := target.IsFuture(now)

	switch {
	case !srcFuture && !dstFuture:
		f.Class, f.Severity = ClassPastToPast, SeverityOK
	case srcFuture && !dstFuture:
		f.Class, f.Severity = ClassFutureToPast, SeverityOK
	case srcFuture && dstFuture:
		f.Class, f.Severity = ClassFutureToFuture, SeverityInfo
		if v.opts.StrictFutureOrder && target.PublishedTime.After(src.PublishedTime) {
			f.Severity = SeverityViolation
		}
	default:
		f.Class, f.Severity = ClassPastToFuture, SeverityViolation
	}
	return f
}
