package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := New("warn", &buf)
	l.Info("hidden message")
	l.Warn("visible message", "count", 3)

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info record written at warn level: %q", out)
	}

	if !strings.Contains(out, "visible message") || !strings.Contains(out, "count=3") {
		t.Errorf("warn record missing or incomplete: %q", out)
	}
}

func TestLogger_SetLevelAndWith(t *testing.T) {
	var buf bytes.Buffer

	l := New("error", &buf)
	child := l.With("side", "previous")

	l.SetLevel("debug")
	child.Debug("parsed")

	out := buf.String()
	if !strings.Contains(out, "side=previous") {
		t.Errorf("child attributes missing: %q", out)
	}

	if !strings.Contains(out, "parsed") {
		t.Errorf("child did not pick up level change: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	if l == nil {
		t.Fatal("Discard returned nil")
	}

	l.Error("dropped")
}
