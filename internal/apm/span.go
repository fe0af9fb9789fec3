package apm

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flash-arbitrage/internal/apperror"
)

// Span is the part of a trace span the pricing and arbitrage paths use.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	// NoticeError records err and fails the span. Application errors carry
	// their code as the status description and the error.code attribute.
	NoticeError(err error)
	Succeed()
	IsRecording() bool
	End(options ...trace.SpanEndOption)
}

type traceSpan struct {
	span trace.Span
}

func (t *traceSpan) SetAttributes(attrs ...attribute.KeyValue) {
	t.span.SetAttributes(attrs...)
}

func (t *traceSpan) NoticeError(err error) {
	if err == nil {
		return
	}
	t.span.RecordError(err)
	if !apperror.IsAppError(err) {
		t.span.SetStatus(codes.Error, err.Error())
		return
	}
	code := string(apperror.GetCode(err))
	t.span.SetAttributes(attribute.String("error.code", code))
	t.span.SetStatus(codes.Error, code)
}

func (t *traceSpan) Succeed() {
	t.span.SetStatus(codes.Ok, "")
}

func (t *traceSpan) IsRecording() bool {
	return t.span.IsRecording()
}

func (t *traceSpan) End(options ...trace.SpanEndOption) {
	t.span.End(options...)
}
