package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, lv, err := New("warn", "json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("dropped")
	log.Warn("kept", "repo", "o/r")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not a single JSON record: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "kept" || rec["repo"] != "o/r" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	lv.Set(slog.LevelDebug)
	log.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("level change not applied")
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New("info", "text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hello", "n", 1)
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "n=1") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNew_Errors(t *testing.T) {
	if _, _, err := New("loud", "text", &bytes.Buffer{}); err == nil {
		t.Error("expected error for bad level")
	}
	if _, _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for bad format")
	}
}
