package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestCloudRunHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelInfo))

	log.Warn("fetch failed", "widget_id", "w1", "error", errors.New("timeout"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["severity"] != "WARNING" || got["message"] != "fetch failed" {
		t.Errorf("unexpected envelope: %v", got)
	}
	if _, ok := got["time"].(string); !ok {
		t.Error("missing time")
	}
	data, _ := got["data"].(map[string]any)
	if data["widget_id"] != "w1" || data["error"] != "timeout" {
		t.Errorf("unexpected data: %v", data)
	}
}

func TestCloudRunHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelWarn))

	log.Info("dropped")
	log.Error("kept")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["message"] != "kept" || lines[0]["severity"] != "ERROR" {
		t.Errorf("unexpected output: %v", lines)
	}
	if _, ok := lines[0]["data"]; ok {
		t.Error("data should be omitted without attributes")
	}
}

func TestCloudRunHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelDebug)).
		With("uid", "u1").
		WithGroup("widget").
		With("id", "w1")

	log.Debug("rendered", "rows", 3)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["severity"] != "DEBUG" {
		t.Errorf("severity = %v", lines[0]["severity"])
	}
	data := lines[0]["data"].(map[string]any)
	if data["uid"] != "u1" {
		t.Errorf("uid = %v", data["uid"])
	}
	widget, ok := data["widget"].(map[string]any)
	if !ok {
		t.Fatalf("missing widget group: %v", data)
	}
	if widget["id"] != "w1" || widget["rows"] != float64(3) {
		t.Errorf("unexpected group: %v", widget)
	}
}

func TestNew_ParsesLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("ERROR", func(l slog.Level) slog.Handler { return NewCloudRunHandlerTo(&buf, l) })
	if log.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled at error level")
	}

	log = New("bogus", func(l slog.Level) slog.Handler { return NewCloudRunHandlerTo(&buf, l) })
	if !log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("unknown level should default to info")
	}
}

func TestWith_StoresLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewCloudRunHandlerTo(&buf, slog.LevelInfo))
	ctx := ToContext(context.Background(), base)

	_, ctx = With(ctx, "uid", "u1")
	FromContext(ctx).Info("hello")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if data := lines[0]["data"].(map[string]any); data["uid"] != "u1" {
		t.Errorf("uid = %v", data["uid"])
	}
	if IsDebugEnabled(ctx) {
		t.Error("debug should be disabled at info level")
	}
}
