package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("info", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("request completed", "status", 200)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "request completed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("debug", "text", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Debug("starting proxy")
	if !strings.Contains(buf.String(), "starting proxy") {
		t.Errorf("text output missing message: %q", buf.String())
	}
}

func TestSetupLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup("error", "json", &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info line emitted at error level: %q", buf.String())
	}

	logger.Error("emitted")
	if buf.Len() == 0 {
		t.Error("error line suppressed at error level")
	}
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	if _, err := Setup("verbose", "json", nil); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := Setup("info", "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
