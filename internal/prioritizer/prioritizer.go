// Package prioritizer runs the defect-fix analysis: it streams the submitted
// changelists, looks up the files of every defect fix, and tallies them.
package prioritizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Sumatoshi-tech/defectmap/internal/defects"
	"github.com/Sumatoshi-tech/defectmap/internal/observability"
	"github.com/Sumatoshi-tech/defectmap/internal/p4"
)

// DefaultWorkers bounds concurrent "p4 files" lookups when Options.Workers is zero.
const DefaultWorkers = 8

const (
	opChanges = "changes"
	opFiles   = "files"
)

// Span names emitted by Run.
const (
	SpanRun     = "defectmap.run"
	SpanChanges = "p4." + opChanges
	SpanLookup  = "p4." + opFiles
)

// ErrChangesFailed wraps a failure of the changelist listing.
var ErrChangesFailed = errors.New("listing submitted changelists failed")

// Options configures a Prioritizer. Zero values fall back to no-op telemetry,
// slog.Default and DefaultWorkers.
type Options struct {
	Workers int
	Timeout time.Duration
	Filter  *defects.Filter
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.RunMetrics
}

// Result is the outcome of one run.
type Result struct {
	Since         time.Time
	Changelists   int
	DefectFixes   int
	Lookups       int
	FailedLookups int
	Excluded      int
	Duration      time.Duration
	Tally         *defects.Tally
}

// Prioritizer ties the p4 client, the detector and the tally together.
type Prioritizer struct {
	client   *p4.Client
	detector *defects.Detector
	opts     Options
}

// New creates a Prioritizer.
func New(client *p4.Client, detector *defects.Detector, opts Options) *Prioritizer {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Tracer == nil {
		opts.Tracer = nooptrace.NewTracerProvider().Tracer("defectmap")
	}

	return &Prioritizer{client: client, detector: detector, opts: opts}
}

type lookupStats struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	excluded  atomic.Int64
}

// Run analyzes every changelist submitted since the given day.
//
// Lookups run concurrently, at most Options.Workers p4 processes at a time,
// and Run returns only after the changelist stream and every lookup have
// finished. The stream never waits for a free worker, so Options.Timeout
// bounds the "p4 changes" process itself and each lookup separately. A failed lookup
// is logged and counted; it never stops the others. A failed changelist
// listing is returned wrapped in ErrChangesFailed together with the partial
// result.
func (p *Prioritizer) Run(ctx context.Context, since time.Time) (*Result, error) {
	ctx, span := p.opts.Tracer.Start(ctx, SpanRun,
		trace.WithAttributes(attribute.String("since", since.Format(p4.DateLayout))))
	defer span.End()

	started := time.Now()
	logger := p.opts.Logger

	res := &Result{Since: since, Tally: defects.NewTally()}
	stats := &lookupStats{}

	var lookups errgroup.Group

	slots := semaphore.NewWeighted(int64(p.opts.Workers))

	logger.InfoContext(ctx, "analyzing submitted changelists", "since", since.Format(p4.DateLayout))

	changesErr := p.invoke(ctx, opChanges, nil, func(callCtx context.Context) error {
		return p.client.Changes(callCtx, since, func(change p4.Change) error {
			res.Changelists++

			defect := p.detector.IsDefectFix(change.Description)
			p.opts.Metrics.AddChangelist(ctx, defect)

			if !defect {
				logger.DebugContext(ctx, "changelist skipped", "change", change.Number)

				return nil
			}

			res.DefectFixes++

			logger.DebugContext(ctx, "defect fix found",
				"change", change.Number, "defect", p.detector.ID(change.Description), "user", change.User)

			lookups.Go(func() error {
				if err := slots.Acquire(ctx, 1); err != nil {
					stats.failed.Add(1)
					logger.WarnContext(ctx, "changelist lookup not started", "change", change.Number, "error", err)

					return nil
				}
				defer slots.Release(1)

				p.lookup(ctx, change, res.Tally, stats)

				return nil
			})

			return nil
		})
	})

	// Lookups never return errors; failures are tallied in stats.
	_ = lookups.Wait()

	res.Lookups = int(stats.succeeded.Load())
	res.FailedLookups = int(stats.failed.Load())
	res.Excluded = int(stats.excluded.Load())
	res.Duration = time.Since(started)

	span.SetAttributes(
		attribute.Int("changelists", res.Changelists),
		attribute.Int("defect_fixes", res.DefectFixes),
		attribute.Int("failed_lookups", res.FailedLookups),
	)

	if changesErr != nil {
		span.SetStatus(codes.Error, changesErr.Error())

		return res, fmt.Errorf("%w: %w", ErrChangesFailed, changesErr)
	}

	logger.InfoContext(ctx, "analysis finished",
		"changelists", res.Changelists,
		"defect_fixes", res.DefectFixes,
		"files", res.Tally.Len(),
		"file_touches", res.Tally.Total(),
		"failed_lookups", res.FailedLookups,
		"duration", res.Duration.Round(time.Millisecond).String(),
	)

	return res, nil
}

// lookup lists the files of one defect fix and tallies them. The counts of a
// changelist are applied only once its listing succeeded.
func (p *Prioritizer) lookup(ctx context.Context, change p4.Change, tally *defects.Tally, stats *lookupStats) {
	var paths []string

	attrs := []attribute.KeyValue{attribute.Int("change", change.Number)}

	err := p.invoke(ctx, opFiles, attrs, func(callCtx context.Context) error {
		return p.client.Files(callCtx, change.Number, func(rev p4.FileRev) error {
			paths = append(paths, rev.Path)

			return nil
		})
	})
	if err != nil {
		stats.failed.Add(1)
		p.opts.Logger.WarnContext(ctx, "listing changelist files failed", "change", change.Number, "error", err)

		return
	}

	kept := 0

	for _, path := range paths {
		if !p.opts.Filter.Keep(path) {
			stats.excluded.Add(1)

			continue
		}

		tally.Add(path)
		kept++
	}

	stats.succeeded.Add(1)
	p.opts.Metrics.AddFileTouches(ctx, kept)
}

// invoke runs one p4 operation inside its own span, applying the per-process
// timeout and recording its duration.
func (p *Prioritizer) invoke(
	ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error,
) error {
	ctx, span := p.opts.Tracer.Start(ctx, "p4."+op, trace.WithAttributes(attrs...))
	defer span.End()

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	err := fn(ctx)

	p.opts.Metrics.RecordProcess(ctx, op, time.Since(started), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}
