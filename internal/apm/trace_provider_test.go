package apm

import (
	"testing"

	"github.com/fd1az/flash-arbitrage/internal/logger"
)

func TestWithProvider_UnknownFallsBackToEmpty(t *testing.T) {
	log := logger.NewNop()

	tests := []struct {
		name     string
		provider Provider
	}{
		{name: "unknown", provider: Provider("jaeger")},
		{name: "none", provider: EmptyProvider},
		{name: "blank", provider: Provider("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &TracerOptions{}
			WithProvider(tt.provider, "", log)(opts)

			if !opts.useEmpty {
				t.Fatalf("provider %q should use the empty tracer", tt.provider)
			}

			tp := NewTraceProvider(log, WithProvider(tt.provider, "", log))
			if _, ok := tp.(emptyTraceProvider); !ok {
				t.Errorf("got %T, want emptyTraceProvider", tp)
			}
			if err := tp.Stop(); err != nil {
				t.Errorf("Stop() = %v", err)
			}
		})
	}
}

func TestNewTraceProvider_Console(t *testing.T) {
	log := logger.NewNop()

	tp := NewTraceProvider(log, WithProvider(ConsoleProvider, "", log), WithServiceName("flasharb-test"))
	if _, ok := tp.(*traceProvider); !ok {
		t.Fatalf("got %T, want *traceProvider", tp)
	}

	tracer := NewTracer("test")
	_, span := tracer.StartSpanFromContext(t.Context(), "console.check")
	if !span.IsRecording() {
		t.Error("span should record under the console provider")
	}
	span.End()

	if err := tp.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
}
