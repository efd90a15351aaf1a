package logging

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	l, closer := InitWriter(Options{Level: "info"}, &buf)
	defer closer.Close()

	l.Debug("hidden")
	WithComponent("api").Info("hello", slog.String("k", "v"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered: %s", out)
	}
	if !strings.Contains(out, "component=api") || !strings.Contains(out, "k=v") {
		t.Errorf("missing attrs in %s", out)
	}
}

func TestInitWriterJSONWithFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "dashboard.log")
	l, closer := InitWriter(Options{Level: "debug", Format: "json", File: file}, &buf)
	l.Debug("to both")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(buf.String(), `"msg":"to both"`) {
		t.Errorf("expected JSON console output, got %s", buf.String())
	}
}
