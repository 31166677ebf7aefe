package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "info")
	l.Debug().Msg("hidden")
	l.Info().Str("component", "publish").Msg("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not one JSON record: %q", buf.String())
	}
	if rec["message"] != "hello" || rec["component"] != "publish" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["time"]; !ok {
		t.Error("record should carry a timestamp")
	}
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	Logger = NewJSONLogger(&buf, "debug")
	initComponentLoggers()
	defer func() {
		Logger = NewConsoleLogger(&bytes.Buffer{}, "info")
		initComponentLoggers()
	}()

	Broadcast.Info().Msg("x")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("bad record %q", buf.String())
	}
	if rec["component"] != "broadcast" {
		t.Errorf("component = %v, want broadcast", rec["component"])
	}
}

func TestInit_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kaschess.log")
	var console bytes.Buffer
	closer, err := Init(Options{Level: "debug", File: path, Console: &console})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer func() {
		Logger = NewConsoleLogger(&bytes.Buffer{}, "info")
		initComponentLoggers()
	}()

	Publish.Debug().Str("game", "abc").Msg("published")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(console.String(), "published") {
		t.Errorf("console = %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("file record is not JSON: %q", data)
	}
	if rec["component"] != "publish" || rec["game"] != "abc" {
		t.Errorf("record = %v", rec)
	}
}

func TestInit_BadFile(t *testing.T) {
	if _, err := Init(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")}); err == nil {
		t.Error("expected error for unwritable log path")
	}
}
