package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEntryID       = "entry_id"
	KeyTargetID      = "target_id"
	KeyPath          = "path"
	KeyRoot          = "root"
	KeyPublishedTime = "published_time"
	KeyPrevious      = "previous_time"
	KeyRunID         = "run_id"
	KeyClass         = "class"
	KeyCount         = "count"
	KeyDurationMS    = "duration_ms"
	KeyReason        = "reason"
	KeyError         = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func EntryID(id string) slog.Attr     { return slog.String(KeyEntryID, id) }
func TargetID(id string) slog.Attr    { return slog.String(KeyTargetID, id) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Root(p string) slog.Attr         { return slog.String(KeyRoot, p) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Class(c string) slog.Attr        { return slog.String(KeyClass, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// PublishedTime renders t in the corpus wire format (UTC, RFC 3339).
func PublishedTime(t time.Time) slog.Attr {
	return slog.String(KeyPublishedTime, t.UTC().Format(time.RFC3339))
}

// Previous renders the previous publish time, or "none" for unscheduled entries.
func Previous(t *time.Time) slog.Attr {
	if t == nil {
		return slog.String(KeyPrevious, "none")
	}
	return slog.String(KeyPrevious, t.UTC().Format(time.RFC3339))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
