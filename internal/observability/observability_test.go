package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"ecommerce-dashboard/internal/config"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf)

	logger.Debug("hidden")
	logger.Info("dashboard computed", "rows", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "dashboard computed" || entry["service"] != serviceName {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["rows"] != float64(3) {
		t.Errorf("rows = %v, want 3", entry["rows"])
	}
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "debug", Format: "text"}, &buf)

	logger.Debug("loading", "file", "all_data.csv")

	out := buf.String()
	if !strings.Contains(out, "msg=loading") || !strings.Contains(out, "file=all_data.csv") {
		t.Errorf("unexpected text output %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Error("debug logger should include the source location")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want req-1", got)
	}
}

func TestSpan(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx, parent := StartSpan(ctx, "GET /sse/dashboard")
	_, child := StartSpan(ctx, "analytics.dashboard")

	if child.TraceID != parent.TraceID || child.ParentID != parent.SpanID {
		t.Error("child span should share the trace and point to its parent")
	}
	if child.Tags["request_id"] != "req-1" {
		t.Errorf("request id tag = %q", child.Tags["request_id"])
	}
	if SpanFromContext(ctx) != parent {
		t.Error("SpanFromContext() should return the span stored in the context")
	}

	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "debug", Format: "json"}, &buf)

	child.SetTag("range", "2023-01-01..2023-01-03")
	child.SetError(errors.New("canceled"))
	child.End(logger)

	if !child.Failed() {
		t.Error("span with an error should be failed")
	}

	out := buf.String()
	for _, want := range []string{`"msg":"span finished"`, `"operation":"analytics.dashboard"`, `"range":"2023-01-01..2023-01-03"`, `"error":"canceled"`} {
		if !strings.Contains(out, want) {
			t.Errorf("span log should contain %s, got %s", want, out)
		}
	}
}
