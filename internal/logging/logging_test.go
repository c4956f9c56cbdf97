package logging

import (
	"context"
	"testing"
)

func TestInitLoggerLevels(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, Level(99)}
	for _, level := range levels {
		InitLogger(level, FormatJSON)
		if GetLogger() == nil {
			t.Fatalf("GetLogger() returned nil after InitLogger(%d)", level)
		}
	}
}

func TestInitLoggerFormats(t *testing.T) {
	InitLogger(LevelInfo, FormatText)
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil for text format")
	}
	InitLogger(LevelInfo, FormatJSON)
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil for JSON format")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID = %q, want req-123", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-456")
	logger := LoggerFromContext(ctx)
	if logger == nil {
		t.Fatal("LoggerFromContext returned nil")
	}

	// Without request ID, should return the default logger.
	if LoggerFromContext(context.Background()) != defaultLogger {
		t.Error("LoggerFromContext without request ID should return default logger")
	}
}

func TestHelpersDoNotPanic(t *testing.T) {
	Debug("debug message", "key", "value")
	Info("info message")
	Warn("warn message", "count", 3)
	Error("error message")
	LoadEvent("tokenize", "/tmp/model.ifc", "lines", 100)
	ExportEvent("ifc", "/tmp/out.ifc", 1024)
	WebSocketEvent("client_connected", 1)
	ServerStartup("api", "http", 8080)
}
