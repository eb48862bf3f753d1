// Package metrics records run statistics for the node-exporter textfile collector.
package metrics

import "time"

// Recorder receives run statistics. Implementations must tolerate being
// called from the watch loop repeatedly.
type Recorder interface {
	AddFindings(class string, n int)
	SetEntries(past, future int)
	AddScheduleOutcomes(status string, n int)
	ObserveValidationDuration(d time.Duration)
	SetLastRun(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) AddFindings(string, int)                 {}
func (NoopRecorder) SetEntries(int, int)                     {}
func (NoopRecorder) AddScheduleOutcomes(string, int)         {}
func (NoopRecorder) ObserveValidationDuration(time.Duration) {}
func (NoopRecorder) SetLastRun(time.Time)                    {}
