package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.AddFindings("broken", 2)
	pr.AddFindings("broken", 1)
	pr.AddFindings("past_to_past", 0)
	pr.SetEntries(10, 4)
	pr.AddScheduleOutcomes("scheduled", 3)
	pr.ObserveValidationDuration(150 * time.Millisecond)
	pr.SetLastRun(time.Unix(1736500000, 0))

	assert.InDelta(t, 3.0, testutil.ToFloat64(pr.findings.WithLabelValues("broken")), 0)
	assert.InDelta(t, 4.0, testutil.ToFloat64(pr.entries.WithLabelValues("future")), 0)
	assert.InDelta(t, 3.0, testutil.ToFloat64(pr.scheduleOutcomes.WithLabelValues("scheduled")), 0)
	assert.InDelta(t, 1736500000.0, testutil.ToFloat64(pr.lastRun), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.AddFindings("past_to_future", 1)

	path := filepath.Join(t.TempDir(), "textfile", "pubtime.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pubtime_findings_total{class="past_to_future"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.AddFindings("broken", 1)
	r.SetEntries(1, 1)
	r.AddScheduleOutcomes("failed", 1)
	r.ObserveValidationDuration(time.Second)
	r.SetLastRun(time.Now())
}
