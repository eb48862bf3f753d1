package timeline

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func violatingReport(t *testing.T) *Report {
	t.Helper()
	c := newCorpus(
		entry(t, "A", "2025-01-01T00:00:00Z", "B", "ghost"),
		entry(t, "B", "2025-06-01T00:00:00Z"),
		entry(t, "C", "2025-02-01T00:00:00Z", "A"),
	)
	return NewValidator(Options{}).Validate(c, ts(t, "2025-03-01T00:00:00Z"))
}

func TestTextFormatter_Report(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).FormatReport(&buf, violatingReport(t)))
	out := buf.String()

	assert.Contains(t, out, "Validating links across 3 entries at 2025-03-01T00:00:00.000Z")
	assert.Contains(t, out, "✗ A → B\n  violation: past_to_future\n")
	assert.Contains(t, out, "✗ A → ghost\n  violation: broken\n")
	assert.Contains(t, out, "  target does not exist\n")
	assert.NotContains(t, out, "C → A")
	assert.Contains(t, out, "  3 links checked\n")
	assert.Contains(t, out, "❌ 2 timeline violations.")
}

func TestTextFormatter_ReportShowValid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{ShowValid: true}).FormatReport(&buf, violatingReport(t)))
	assert.Contains(t, buf.String(), "✓ C → A\n")
}

func TestTextFormatter_Clean(t *testing.T) {
	c := newCorpus(entry(t, "a", "2025-01-01T00:00:00Z"))
	r := NewValidator(Options{}).Validate(c, ts(t, "2025-03-01T00:00:00Z"))

	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).FormatReport(&buf, r))
	assert.Contains(t, buf.String(), "✨ No timeline violations.")
}

func TestJSONFormatter_Report(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatReport(&buf, violatingReport(t)))

	var out JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Violations)
	assert.Equal(t, 1, out.Counts[ClassBroken])
	require.Len(t, out.Findings, 3)
	assert.Equal(t, "A", out.Findings[0].Source)
	require.NotNil(t, out.Findings[0].TargetTime)
	assert.Equal(t, "2025-06-01T00:00:00.000Z", *out.Findings[0].TargetTime)
	assert.Nil(t, out.Findings[1].TargetTime)
}

func TestTextFormatter_Overview(t *testing.T) {
	c := newCorpus(
		entry(t, "p", "2025-01-01T09:00:00Z"),
		entry(t, "f1", "2025-01-11T09:00:00Z"),
		entry(t, "f2", "2025-01-14T21:00:00Z"),
	)
	var buf bytes.Buffer
	require.NoError(t, (&TextFormatter{}).FormatOverview(&buf, BuildOverview(c, ts(t, "2025-01-10T00:00:00Z"))))
	out := buf.String()

	assert.Contains(t, out, "  1 published\n")
	assert.Contains(t, out, "  2 scheduled\n")
	assert.Contains(t, out, "  2025-01-11T09:00:00.000Z  f1\n")
	assert.Contains(t, out, "  2025-01-14T21:00:00.000Z  f2  +3d12h\n")
	assert.Contains(t, out, "Gaps: min 3d12h, avg 3d12h, max 3d12h")
}

func TestJSONFormatter_Overview(t *testing.T) {
	c := newCorpus(
		entry(t, "f1", "2025-01-11T09:00:00Z"),
		entry(t, "f2", "2025-01-14T09:00:00Z"),
	)
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).FormatOverview(&buf, BuildOverview(c, ts(t, "2025-01-10T00:00:00Z"))))

	var out JSONOverview
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Scheduled)
	assert.InDelta(t, 72.0, out.AvgGapHours, 0.001)
	assert.InDelta(t, 72.0, out.Entries[1].GapHours, 0.001)
}
