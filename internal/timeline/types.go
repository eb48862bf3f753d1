// Package timeline checks that links between corpus entries never point from
// live content to content that is not published yet.
package timeline

import "time"

// Class categorizes one link by the publish state of its source and target.
type Class string

const (
	ClassPastToPast     Class = "past_to_past"
	ClassFutureToPast   Class = "future_to_past"
	ClassFutureToFuture Class = "future_to_future"
	ClassPastToFuture   Class = "past_to_future"
	ClassBroken         Class = "broken"
)

// Classes lists every class in report order.
var Classes = []Class{ClassPastToPast, ClassFutureToPast, ClassFutureToFuture, ClassPastToFuture, ClassBroken}

// Severity of a finding.
type Severity string

const (
	SeverityOK        Severity = "ok"
	SeverityInfo      Severity = "info"
	SeverityViolation Severity = "violation"
)

// Finding is one classified link.
type Finding struct {
	SourceID   string
	SourceTime time.Time
	TargetID   string
	// TargetTime is nil when the target does not resolve.
	TargetTime *time.Time
	Anchor     string
	Class      Class
	Severity   Severity
}

// Report is the result of one validation pass.
type Report struct {
	Now      time.Time
	Entries  int
	Findings []Finding
	Counts   map[Class]int
}

// Violations returns the findings that fail validation, in report order.
func (r *Report) Violations() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityViolation {
			out = append(out, f)
		}
	}
	return out
}

// ViolationCount returns the number of violations.
func (r *Report) ViolationCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityViolation {
			n++
		}
	}
	return n
}

// HasViolations reports whether publishing should be blocked.
func (r *Report) HasViolations() bool {
	return r.ViolationCount() > 0
}
