package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

// spanFilterProvider wraps a real TracerProvider and turns the named spans
// into no-op spans. A run over years of history issues one "p4 files" lookup
// per defect fix, so those spans can outnumber everything else by far.
type spanFilterProvider struct {
	embedded.TracerProvider

	delegate trace.TracerProvider
	noop     trace.TracerProvider
	suppress map[string]bool
}

// NewSpanFilterProvider wraps delegate so that spans named in suppress are
// not recorded. With nothing to suppress, delegate is returned unchanged.
func NewSpanFilterProvider(delegate trace.TracerProvider, suppress ...string) trace.TracerProvider {
	if len(suppress) == 0 {
		return delegate
	}

	names := make(map[string]bool, len(suppress))
	for _, name := range suppress {
		names[name] = true
	}

	return &spanFilterProvider{
		delegate: delegate,
		noop:     nooptrace.NewTracerProvider(),
		suppress: names,
	}
}

// Tracer returns a tracer that drops the suppressed span names.
func (f *spanFilterProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return &spanFilterTracer{
		delegate: f.delegate.Tracer(name, opts...),
		noop:     f.noop.Tracer(name, opts...),
		suppress: f.suppress,
	}
}

type spanFilterTracer struct {
	embedded.Tracer

	delegate trace.Tracer
	noop     trace.Tracer
	suppress map[string]bool
}

// Start creates a span, or a no-op span for suppressed names. A no-op span
// keeps the parent span context, so children still attach to the run span.
func (f *spanFilterTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if f.suppress[name] {
		return f.noop.Start(ctx, name, opts...)
	}

	return f.delegate.Start(ctx, name, opts...)
}
