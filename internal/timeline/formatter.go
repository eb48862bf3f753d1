package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
)

// Formatter renders validation reports and overviews.
type Formatter interface {
	FormatReport(w io.Writer, r *Report) error
	FormatOverview(w io.Writer, ov *Overview) error
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

var rule = strings.Repeat("━", 60)

// TextFormatter writes human-readable output.
type TextFormatter struct {
	// ShowValid also lists links that pass.
	ShowValid bool
}

func (f *TextFormatter) FormatReport(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Validating links across %d entries at %s\n", r.Entries, corpus.FormatTime(r.Now))
	b.WriteString(rule + "\n\n")

	for _, fd := range r.Findings {
		if fd.Severity == SeverityOK && !f.ShowValid {
			continue
		}
		writeFinding(&b, fd)
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString("Results:\n")
	fmt.Fprintf(&b, "  %d link%s checked\n", len(r.Findings), pluralize(len(r.Findings)))
	for _, cl := range Classes {
		if n := r.Counts[cl]; n > 0 {
			fmt.Fprintf(&b, "  %d %s\n", n, cl)
		}
	}
	b.WriteString("\n")

	switch n := r.ViolationCount(); {
	case n > 0:
		fmt.Fprintf(&b, "❌ %d timeline violation%s. Live entries must not link to unpublished or missing entries.\n", n, pluralize(n))
	case r.Counts[ClassFutureToFuture] > 0:
		b.WriteString("ℹ️  No violations. Some scheduled entries link to each other.\n")
	default:
		b.WriteString("✨ No timeline violations.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFinding(b *strings.Builder, fd Finding) {
	var icon string
	switch fd.Severity {
	case SeverityViolation:
		icon = "✗"
	case SeverityInfo:
		icon = "ℹ"
	default:
		icon = "✓"
	}

	fmt.Fprintf(b, "%s %s → %s\n", icon, fd.SourceID, fd.TargetID)
	fmt.Fprintf(b, "  %s: %s\n", fd.Severity, fd.Class)
	if fd.Anchor != "" {
		fmt.Fprintf(b, "  link text: %q\n", fd.Anchor)
	}
	fmt.Fprintf(b, "  source publishes %s\n", corpus.FormatTime(fd.SourceTime))
	if fd.TargetTime != nil {
		fmt.Fprintf(b, "  target publishes %s\n", corpus.FormatTime(*fd.TargetTime))
	} else {
		b.WriteString("  target does not exist\n")
	}
}

func (f *TextFormatter) FormatOverview(w io.Writer, ov *Overview) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Timeline at %s\n", corpus.FormatTime(ov.Now))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "  %d published\n", ov.Past)
	fmt.Fprintf(&b, "  %d scheduled\n", ov.Future)
	if ov.LatestPast != nil {
		fmt.Fprintf(&b, "  latest published %s\n", corpus.FormatTime(*ov.LatestPast))
	}

	if len(ov.Scheduled) > 0 {
		b.WriteString("\nScheduled:\n")
		for i, se := range ov.Scheduled {
			line := fmt.Sprintf("  %s  %s", corpus.FormatTime(se.PublishedTime), se.ID)
			if i > 0 {
				line += "  +" + formatGap(se.Gap)
			}
			b.WriteString(line + "\n")
		}
	}
	if len(ov.Scheduled) > 1 {
		fmt.Fprintf(&b, "\nGaps: min %s, avg %s, max %s\n", formatGap(ov.MinGap), formatGap(ov.AvgGap), formatGap(ov.MaxGap))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatGap renders a duration in days and hours.
func formatGap(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// JSONFormatter writes machine-readable output.
type JSONFormatter struct{}

// JSONReport is the JSON shape of a Report.
type JSONReport struct {
	Now        string        `json:"now"`
	Entries    int           `json:"entries"`
	Violations int           `json:"violations"`
	Counts     map[Class]int `json:"counts"`
	Findings   []JSONFinding `json:"findings"`
}

// JSONFinding is the JSON shape of a Finding.
type JSONFinding struct {
	Source     string   `json:"source"`
	SourceTime string   `json:"source_time"`
	Target     string   `json:"target"`
	TargetTime *string  `json:"target_time"`
	Anchor     string   `json:"anchor,omitempty"`
	Class      Class    `json:"class"`
	Severity   Severity `json:"severity"`
}

// NewJSONReport converts r to its JSON shape.
func NewJSONReport(r *Report) JSONReport {
	out := JSONReport{
		Now:        corpus.FormatTime(r.Now),
		Entries:    r.Entries,
		Violations: r.ViolationCount(),
		Counts:     r.Counts,
		Findings:   make([]JSONFinding, 0, len(r.Findings)),
	}
	for _, fd := range r.Findings {
		jf := JSONFinding{
			Source:     fd.SourceID,
			SourceTime: corpus.FormatTime(fd.SourceTime),
			Target:     fd.TargetID,
			Anchor:     fd.Anchor,
			Class:      fd.Class,
			Severity:   fd.Severity,
		}
		if fd.TargetTime != nil {
			s := corpus.FormatTime(*fd.TargetTime)
			jf.TargetTime = &s
		}
		out.Findings = append(out.Findings, jf)
	}
	return out
}

func (f *JSONFormatter) FormatReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSONReport(r))
}

// JSONOverview is the JSON shape of an Overview.
type JSONOverview struct {
	Now         string          `json:"now"`
	Published   int             `json:"published"`
	Scheduled   int             `json:"scheduled"`
	Entries     []JSONScheduled `json:"entries"`
	MinGapHours float64         `json:"min_gap_hours"`
	AvgGapHours float64         `json:"avg_gap_hours"`
	MaxGapHours float64         `json:"max_gap_hours"`
}

// JSONScheduled is the JSON shape of a ScheduledEntry.
type JSONScheduled struct {
	ID            string  `json:"id"`
	Title         string  `json:"title,omitempty"`
	PublishedTime string  `json:"published_time"`
	GapHours      float64 `json:"gap_hours"`
}

func (f *JSONFormatter) FormatOverview(w io.Writer, ov *Overview) error {
	out := JSONOverview{
		Now:         corpus.FormatTime(ov.Now),
		Published:   ov.Past,
		Scheduled:   ov.Future,
		Entries:     make([]JSONScheduled, 0, len(ov.Scheduled)),
		MinGapHours: ov.MinGap.Hours(),
		AvgGapHours: ov.AvgGap.Hours(),
		MaxGapHours: ov.MaxGap.Hours(),
	}
	for _, se := range ov.Scheduled {
		out.Entries = append(out.Entries, JSONScheduled{
			ID:            se.ID,
			Title:         se.Title,
			PublishedTime: corpus.FormatTime(se.PublishedTime),
			GapHours:      se.Gap.Hours(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
