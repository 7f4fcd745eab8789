package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricChangelistsTotal = "defectmap.changelists.total"
	metricDefectFixesTotal = "defectmap.defect_fixes.total"
	metricFileTouchesTotal = "defectmap.file_touches.total"
	metricP4FailuresTotal  = "defectmap.p4.failures.total"
	metricP4Duration       = "defectmap.p4.duration.seconds"

	attrOp = "op"
)

// processBucketBoundaries covers a fast "p4 files" (tens of ms) up to a
// multi-minute "p4 changes" over years of history.
var processBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RunMetrics holds the OTel instruments of one analysis run.
type RunMetrics struct {
	changelists metric.Int64Counter
	defectFixes metric.Int64Counter
	fileTouches metric.Int64Counter
	failures    metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		changelists: b.counter(metricChangelistsTotal, "Submitted changelists scanned", "{changelist}"),
		defectFixes: b.counter(metricDefectFixesTotal, "Changelists identified as defect fixes", "{changelist}"),
		fileTouches: b.counter(metricFileTouchesTotal, "File revisions counted against defect fixes", "{file}"),
		failures:    b.counter(metricP4FailuresTotal, "Failed p4 invocations", "{invocation}"),
		duration:    b.histogram(metricP4Duration, "p4 invocation duration in seconds", "s", processBucketBoundaries...),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// AddChangelist counts one scanned changelist, and one defect fix when defect is set.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) AddChangelist(ctx context.Context, defect bool) {
	if rm == nil {
		return
	}

	rm.changelists.Add(ctx, 1)

	if defect {
		rm.defectFixes.Add(ctx, 1)
	}
}

// AddFileTouches counts file revisions attributed to defect fixes.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) AddFileTouches(ctx context.Context, n int) {
	if rm == nil || n == 0 {
		return
	}

	rm.fileTouches.Add(ctx, int64(n))
}

// RecordProcess records one p4 invocation of the given operation.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordProcess(ctx context.Context, op string, duration time.Duration, err error) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))

	rm.duration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		rm.failures.Add(ctx, 1, attrs)
	}
}
