package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartRegionSpan starts a span covering one measured region.
func StartRegionSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("kokkoprof.region", name),
	)
	return ctx, span
}

// EndSpan finishes a region span normally.
func EndSpan(span trace.Span) {
	span.SetStatus(codes.Ok, "")
	span.End()
}

// AbandonSpan finishes a span for a session discarded without a stop,
// marking it so downstream consumers can spot unbalanced brackets.
func AbandonSpan(span trace.Span) {
	span.SetAttributes(attribute.Bool("kokkoprof.abandoned", true))
	span.SetStatus(codes.Unset, "")
	span.End()
}
