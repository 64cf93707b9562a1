package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if i := strings.LastIndex(line, "\n"); i >= 0 {
		line = line[i+1:]
	}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", line, err)
	}
	return m
}

func TestNewLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("render", &buf)
	if l.Component() != "render" {
		t.Errorf("Component = %q", l.Component())
	}
	l.Info("hello", "key", "value")

	m := decode(t, &buf)
	if m["component"] != "render" {
		t.Errorf("component = %v", m["component"])
	}
	if m["msg"] != "hello" || m["key"] != "value" {
		t.Errorf("record = %v", m)
	}
}

func TestNewLogger_NilWriter(t *testing.T) {
	l := NewLogger("x", nil)
	l.Info("does not panic")
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored")
	l.RenderEvent("dialog-popup", 0.5, 100, time.Millisecond)
	if l.With("k", 1) != nil || l.Named("x") != nil {
		t.Error("nil logger should stay nil")
	}
	if l.Component() != "" {
		t.Error("nil logger has a component")
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		log  func(l *Logger)
		want string
	}{
		{func(l *Logger) { l.Debug("m") }, "DEBUG"},
		{func(l *Logger) { l.Info("m") }, "INFO"},
		{func(l *Logger) { l.Warn("m") }, "WARN"},
		{func(l *Logger) { l.Error("m") }, "ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		tt.log(NewLogger("c", &buf))
		if got := decode(t, &buf)["level"]; got != tt.want {
			t.Errorf("level = %v, want %s", got, tt.want)
		}
	}
}

func TestNewLoggerWithOptions(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOptions("api", &buf, "warn", "text")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %s", buf.String())
	}
	l.Warn("kept")
	out := buf.String()
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "component=api") {
		t.Errorf("text output = %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("render", &buf).With("request_id", "r1").Named("validator")
	l.Info("x")
	m := decode(t, &buf)
	if m["request_id"] != "r1" || m["component"] != "validator" {
		t.Errorf("record = %v", m)
	}
}

func TestLogger_Stage(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("render", &buf).Stage("classifying", "stage")
	m := decode(t, &buf)
	if m["state"] != "classifying" || m["level"] != "DEBUG" {
		t.Errorf("record = %v", m)
	}
}

func TestLogger_RenderEvent(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("render", &buf).RenderEvent("chart-analysis", 0.8, 95, 1500*time.Microsecond, "id", "abc")
	m := decode(t, &buf)
	if m["msg"] != "render" || m["template"] != "chart-analysis" {
		t.Errorf("record = %v", m)
	}
	if m["elapsed_ms"] != 1.5 || m["score"] != 95.0 || m["id"] != "abc" {
		t.Errorf("fields = %v", m)
	}
}

func TestLogger_RepairEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("render", &buf)
	l.RepairEvent("TEXT_TOO_LONG", true)
	if m := decode(t, &buf); m["level"] != "INFO" || m["issue"] != "TEXT_TOO_LONG" || m["fixed"] != true {
		t.Errorf("fixed record = %v", m)
	}
	buf.Reset()
	l.RepairEvent("CONTRAST_LOW", false)
	if m := decode(t, &buf); m["level"] != "WARN" {
		t.Errorf("unfixed level = %v", m["level"])
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	l.RepairEvent("X", false)
}
