package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg                *prom.Registry
	findings           *prom.CounterVec
	entries            *prom.GaugeVec
	scheduleOutcomes   *prom.CounterVec
	validationDuration prom.Histogram
	lastRun            prom.Gauge
}

// NewPrometheusRecorder constructs and registers the pubtime metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.findings = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "pubtime",
		Name:      "findings_total",
		Help:      "Classified links by timeline class",
	}, []string{"class"})
	pr.entries = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "pubtime",
		Name:      "entries",
		Help:      "Corpus entries by publish state at the last run",
	}, []string{"state"})
	pr.scheduleOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "pubtime",
		Name:      "schedule_outcomes_total",
		Help:      "Per-entry schedule outcomes by status",
	}, []string{"status"})
	pr.validationDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "pubtime",
		Name:      "validation_duration_seconds",
		Help:      "Duration of read and validate passes",
		Buckets:   prom.DefBuckets,
	})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: "pubtime",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed run",
	})
	reg.MustRegister(pr.findings, pr.entries, pr.scheduleOutcomes, pr.validationDuration, pr.lastRun)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) AddFindings(class string, n int) {
	if p == nil || n < 0 {
		return
	}
	p.findings.WithLabelValues(class).Add(float64(n))
}

func (p *PrometheusRecorder) SetEntries(past, future int) {
	if p == nil {
		return
	}
	p.entries.WithLabelValues("past").Set(float64(past))
	p.entries.WithLabelValues("future").Set(float64(future))
}

func (p *PrometheusRecorder) AddScheduleOutcomes(status string, n int) {
	if p == nil || n < 0 {
		return
	}
	p.scheduleOutcomes.WithLabelValues(status).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveValidationDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.validationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetLastRun(t time.Time) {
	if p == nil {
		return
	}
	p.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes the current metrics to path in the text exposition
// format. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
