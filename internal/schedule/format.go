package schedule

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
)

// Formatter renders a Result.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// NewFormatter returns the formatter for "text" or "json".
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// TextFormatter writes one line per entry followed by totals.
type TextFormatter struct{}

func (f *TextFormatter) Format(w io.Writer, r *Result) error {
	title := "Schedule run " + r.RunID
	if r.DryRun {
		title += " (dry run, nothing written)"
	}
	lines := []string{title, strings.Repeat("━", 60)}

	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusScheduled, StatusPlanned:
			line := fmt.Sprintf("✓ %s  %s → %s", o.ID, previousString(o), corpus.FormatTime(o.Scheduled))
			if o.Clamped {
				line += "  (clamped to horizon)"
			}
			lines = append(lines, line)
		case StatusFailed:
			lines = append(lines, fmt.Sprintf("✗ %s  %s → %s  failed: %v", o.ID, previousString(o), corpus.FormatTime(o.Scheduled), o.Err))
		case StatusSkipped:
			lines = append(lines, fmt.Sprintf("- %s  skipped: %s", o.ID, o.Reason))
		}
	}

	written := r.Count(StatusScheduled)
	label := "scheduled"
	if r.DryRun {
		written = r.Count(StatusPlanned)
		label = "planned"
	}
	lines = append(lines,
		strings.Repeat("━", 60),
		"Results:",
		fmt.Sprintf("  %d %s", written, label),
		fmt.Sprintf("  %d skipped", r.Count(StatusSkipped)),
		fmt.Sprintf("  %d failed", r.Count(StatusFailed)),
	)

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func previousString(o Outcome) string {
	if o.Previous == nil {
		return "none"
	}
	return corpus.FormatTime(*o.Previous)
}

// JSONFormatter writes the Result as a single JSON document.
type JSONFormatter struct{}

// JSONOutput is the JSON shape of a Result.
type JSONOutput struct {
	RunID     string        `json:"run_id"`
	DryRun    bool          `json:"dry_run"`
	Scheduled int           `json:"scheduled"`
	Planned   int           `json:"planned"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Entries   []JSONOutcome `json:"entries"`
}

// JSONOutcome is the JSON shape of an Outcome.
type JSONOutcome struct {
	ID        string `json:"id"`
	Status    Status `json:"status"`
	Previous  string `json:"previous,omitempty"`
	Scheduled string `json:"scheduled,omitempty"`
	Clamped   bool   `json:"clamped,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (f *JSONFormatter) Format(w io.Writer, r *Result) error {
	out := JSONOutput{
		RunID:     r.RunID,
		DryRun:    r.DryRun,
		Scheduled: r.Count(StatusScheduled),
		Planned:   r.Count(StatusPlanned),
		Skipped:   r.Count(StatusSkipped),
		Failed:    r.Count(StatusFailed),
		Entries:   make([]JSONOutcome, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		jo := JSONOutcome{ID: o.ID, Status: o.Status, Clamped: o.Clamped, Reason: o.Reason}
		if o.Previous != nil {
			jo.Previous = corpus.FormatTime(*o.Previous)
		}
		if o.Status != StatusSkipped {
			jo.Scheduled = corpus.FormatTime(o.Scheduled)
		}
		if o.Err != nil {
			jo.Error = o.Err.Error()
		}
		out.Entries = append(out.Entries, jo)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
