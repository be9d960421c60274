package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level string) (*slog.Logger, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	handler := &consoleHandler{writer: buf, level: levelVar}
	return slog.New(handler), buf
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	logger, buf := newBufferLogger("info")
	logger.Info("upload complete", String("name", "Foo.mp4"), Int("size", 42))

	line := buf.String()
	if !strings.Contains(line, "INFO") {
		t.Fatalf("expected level label in output, got %q", line)
	}
	if !strings.Contains(line, "upload complete") {
		t.Fatalf("expected message in output, got %q", line)
	}
	if !strings.Contains(line, "name=Foo.mp4") {
		t.Fatalf("expected name attr in output, got %q", line)
	}
	if !strings.Contains(line, "size=42") {
		t.Fatalf("expected size attr in output, got %q", line)
	}
}

func TestConsoleHandlerHoistsComponent(t *testing.T) {
	logger, buf := newBufferLogger("info")
	WithComponent(logger, "pipeline").Info("run started")

	line := buf.String()
	if !strings.Contains(line, "pipeline: run started") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as a key-value pair: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	logger, buf := newBufferLogger("info")
	logger.Info("saved", String("title", "two words"))

	if !strings.Contains(buf.String(), `title="two words"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	logger, buf := newBufferLogger("warn")
	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info suppressed at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected warn emitted, got %q", buf.String())
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	for _, value := range []string{"", "unknown", "INFO"} {
		if got := parseLevel(value); got != slog.LevelInfo {
			t.Fatalf("parseLevel(%q) = %v, expected info", value, got)
		}
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(debug) = %v", got)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected noop logger to be disabled")
	}
}
