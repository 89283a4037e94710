package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"ytscribe/internal/services"
)

func newBufferLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(&buf, levelVar)), &buf
}

func TestConsoleHandlerLine(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Info("job queued", String(FieldJobID, "abc"), Int("position", 3))

	line := buf.String()
	if !strings.Contains(line, "INFO") {
		t.Errorf("line missing level: %q", line)
	}
	if !strings.Contains(line, "job queued") {
		t.Errorf("line missing message: %q", line)
	}
	if !strings.Contains(line, "job_id=abc") {
		t.Errorf("line missing job_id attr: %q", line)
	}
	if !strings.Contains(line, "position=3") {
		t.Errorf("line missing int attr: %q", line)
	}
}

func TestConsoleHandlerComponentPrefix(t *testing.T) {
	logger, buf := newBufferLogger(t)

	NewComponentLogger(logger, "cache").Info("entry evicted")

	line := buf.String()
	if !strings.Contains(line, "cache: entry evicted") {
		t.Errorf("component prefix missing: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Errorf("component should not repeat as an attribute: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Warn("store failed", String("reason", "disk full on /var"))

	if !strings.Contains(buf.String(), `reason="disk full on /var"`) {
		t.Errorf("value with spaces should be quoted: %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	logger, buf := newBufferLogger(t)

	ctx := services.WithJobID(context.Background(), "job-7")
	ctx = services.WithStage(ctx, "download")

	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "job_id=job-7") {
		t.Errorf("context job id missing: %q", line)
	}
	if !strings.Contains(line, "stage=download") {
		t.Errorf("context stage missing: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("unknown format should be rejected")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	// Must not panic and must report disabled at every level.
	logger := NewNop()
	logger.Error("ignored")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("nop logger should be disabled")
	}
}
