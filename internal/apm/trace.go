package apm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans for one instrumented component.
type Tracer interface {
	StartSpanFromContext(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, Span)
}

type openTracer struct {
	tracer trace.Tracer
}

// NewTracer returns a Tracer named after the component. It follows the
// global provider, including a provider installed after this call.
func NewTracer(name string) Tracer {
	return &openTracer{otel.Tracer(name)}
}

// NewTracerWithProvider returns a Tracer bound to tp instead of the global
// provider.
func NewTracerWithProvider(tp trace.TracerProvider, name string) Tracer {
	return &openTracer{tp.Tracer(name)}
}

func (t *openTracer) StartSpanFromContext(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, opts...)
	return ctx, &traceSpan{span}
}
