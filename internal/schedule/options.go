// Package schedule assigns publish times to batches of corpus entries.
//
// Times are spaced a fixed number of days apart at a fixed wall-clock time and
// continue after the latest time already scheduled. Planning is pure; Apply
// performs the frontmatter writes.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
)

// Options controls the spacing of scheduled entries.
type Options struct {
	IntervalDays    int
	StartOffsetDays int
	MaxFutureDays   int
	// ClockTime is the wall-clock time of day, "HH:MM", in Location.
	ClockTime string
	Location  *time.Location
}

// DefaultOptions returns a three-day cadence at 09:00 UTC starting tomorrow.
func DefaultOptions() Options {
	return Options{
		IntervalDays:    3,
		StartOffsetDays: 1,
		MaxFutureDays:   90,
		ClockTime:       "09:00",
		Location:        time.UTC,
	}
}

// Validate reports the first invalid option as a configuration error.
func (o Options) Validate() error {
	if o.IntervalDays <= 0 {
		return pterrors.ConfigInvalid("schedule.interval_days", fmt.Sprintf("must be positive, got %d", o.IntervalDays))
	}
	if o.MaxFutureDays <= 0 {
		return pterrors.ConfigInvalid("schedule.max_future_days", fmt.Sprintf("must be positive, got %d", o.MaxFutureDays))
	}
	if o.StartOffsetDays < 0 {
		return pterrors.ConfigInvalid("schedule.start_offset_days", fmt.Sprintf("must not be negative, got %d", o.StartOffsetDays))
	}
	if _, _, err := ParseClock(o.ClockTime); err != nil {
		return pterrors.ConfigInvalid("schedule.clock_time", err.Error())
	}
	return nil
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (hour, minute int, err error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("clock time %q is not HH:MM", s)
	}
	hour, err = strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("clock time %q has invalid hour", s)
	}
	minute, err = strconv.Atoi(ms)
	if err != nil || len(ms) != 2 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q has invalid minute", s)
	}
	return hour, minute, nil
}
