package apm

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fd1az/flash-arbitrage/internal/apperror"
)

func TestSpan_Status(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(Span)
		wantCode codes.Code
		wantDesc string
		wantAttr string
	}{
		{
			name:     "succeed",
			finish:   func(s Span) { s.Succeed() },
			wantCode: codes.Ok,
		},
		{
			name: "app_error_reports_code",
			finish: func(s Span) {
				s.NoticeError(apperror.New(apperror.CodeStaleQuote, apperror.WithContext("hop 1")))
			},
			wantCode: codes.Error,
			wantDesc: string(apperror.CodeStaleQuote),
			wantAttr: string(apperror.CodeStaleQuote),
		},
		{
			name: "joined_error_reports_first_code",
			finish: func(s Span) {
				s.NoticeError(errors.Join(
					apperror.New(apperror.CodeRollbackFailed),
					apperror.New(apperror.CodeTransferFailed),
				))
			},
			wantCode: codes.Error,
			wantDesc: string(apperror.CodeRollbackFailed),
			wantAttr: string(apperror.CodeRollbackFailed),
		},
		{
			name:     "plain_error_reports_message",
			finish:   func(s Span) { s.NoticeError(errors.New("dial tcp: refused")) },
			wantCode: codes.Error,
			wantDesc: "dial tcp: refused",
		},
		{
			name:     "nil_error_is_ignored",
			finish:   func(s Span) { s.NoticeError(nil) },
			wantCode: codes.Unset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
			defer tp.Shutdown(context.Background())

			tracer := NewTracerWithProvider(tp, "apm-test")
			_, span := tracer.StartSpanFromContext(context.Background(), "unit")
			if !span.IsRecording() {
				t.Fatal("span is not recording")
			}
			span.SetAttributes(attribute.String("pool", "BUSD/CROX"))
			tt.finish(span)
			span.End()

			ended := rec.Ended()
			if len(ended) != 1 {
				t.Fatalf("got %d ended spans, want 1", len(ended))
			}
			got := ended[0]
			if got.Status().Code != tt.wantCode || got.Status().Description != tt.wantDesc {
				t.Errorf("status = %v %q, want %v %q", got.Status().Code, got.Status().Description, tt.wantCode, tt.wantDesc)
			}

			attrs := map[attribute.Key]string{}
			for _, kv := range got.Attributes() {
				attrs[kv.Key] = kv.Value.Emit()
			}
			if attrs["pool"] != "BUSD/CROX" {
				t.Errorf("pool attribute = %q", attrs["pool"])
			}
			if attrs["error.code"] != tt.wantAttr {
				t.Errorf("error.code = %q, want %q", attrs["error.code"], tt.wantAttr)
			}
			if tt.wantCode == codes.Error && len(got.Events()) == 0 {
				t.Error("error was not recorded as an event")
			}
		})
	}
}
