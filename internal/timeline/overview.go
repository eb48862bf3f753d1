package timeline

import (
	"time"

	"git.home.luguber.info/inful/pubtime/internal/corpus"
)

// ScheduledEntry is a future entry in publish order.
type ScheduledEntry struct {
	ID            string
	Title         string
	PublishedTime time.Time
	// Gap to the previous scheduled entry; zero for the first.
	Gap time.Duration
}

// Overview summarizes published versus scheduled entries.
type Overview struct {
	Now        time.Time
	Past       int
	Future     int
	LatestPast *time.Time
	Scheduled  []ScheduledEntry
	MinGap     time.Duration
	MaxGap     time.Duration
	AvgGap     time.Duration
}

// BuildOverview lists future entries chronologically with the spacing between them.
func BuildOverview(c *corpus.Corpus, now time.Time) *Overview {
	ov := &Overview{Now: now}

	var prev *time.Time
	var total time.Duration
	gaps := 0
	for _, e := range c.Chronological() {
		if !e.IsFuture(now) {
			ov.Past++
			t := e.PublishedTime
			ov.LatestPast = &t
			continue
		}

		ov.Future++
		se := ScheduledEntry{ID: e.ID, Title: e.Title, PublishedTime: e.PublishedTime}
		if prev != nil {
			se.Gap = e.PublishedTime.Sub(*prev)
			if gaps == 0 || se.Gap < ov.MinGap {
				ov.MinGap = se.Gap
			}
			if se.Gap > ov.MaxGap {
				ov.MaxGap = se.Gap
			}
			total += se.Gap
			gaps++
		}
		t := e.PublishedTime
		prev = &t
		ov.Scheduled = append(ov.Scheduled, se)
	}

	if gaps > 0 {
		ov.AvgGap = total / time.Duration(gaps)
	}
	return ov
}
