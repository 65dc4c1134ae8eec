package observability

import (
	"bytes"
	"context"
	"testing"
)

func TestInitOTel_Disabled(t *testing.T) {
	logger := NewLogger(ErrorLevel, &bytes.Buffer{})

	providers, err := InitOTel(context.Background(), OTelConfig{Enabled: false}, logger)
	if err != nil {
		t.Fatalf("Disabled config should not error: %v", err)
	}
	if providers != nil {
		t.Error("Disabled config should return nil providers")
	}
}

func TestShutdownOTel_NilProviders(t *testing.T) {
	logger := NewLogger(ErrorLevel, &bytes.Buffer{})
	if err := ShutdownOTel(context.Background(), nil, logger); err != nil {
		t.Errorf("Nil providers should shut down cleanly: %v", err)
	}
}

func TestLoggerWithTraceContext_NoActiveSpan(t *testing.T) {
	logger := NewLogger(ErrorLevel, &bytes.Buffer{})
	if got := LoggerWithTraceContext(context.Background(), logger); got != logger {
		t.Error("Expected the same logger when no span is recording")
	}
}
