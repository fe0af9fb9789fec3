package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "flasharb", nil)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "pool", "BUSD/CROX")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "BUSD/CROX") {
		t.Errorf("warn record missing: %s", out)
	}
	if !strings.Contains(out, "flasharb") {
		t.Errorf("service name missing: %s", out)
	}
}

func TestLogger_TraceIDFn(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "", func(context.Context) string { return "abc123" }, WithJSON())

	log.Debugc(context.Background(), 1, "traced")

	if !strings.Contains(buf.String(), `"trace_id":"abc123"`) {
		t.Errorf("expected trace id in record: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Error(context.Background(), "discarded", "k", "v")
}
