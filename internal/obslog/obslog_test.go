package obslog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitWritesConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "nested", "trainer.log")

	logger, err := Init(Options{
		Level:    "debug",
		Console:  true,
		File:     true,
		FilePath: path,
		Format:   "json",
		Stdout:   &buf,
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(Sync)

	if L() != logger {
		t.Fatalf("global logger not replaced")
	}
	logger.Debug("trainer_session_start", zap.String("repertoire", "sicilian"))
	Sync()

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("console output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "trainer_session_start" || entry["repertoire"] != "sicilian" || entry["level"] != "debug" {
		t.Fatalf("entry = %v", entry)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(raw), "trainer_session_start") {
		t.Fatalf("file log missing entry: %q", raw)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Init(Options{Level: "warn", Console: true, Format: "console", Stdout: &buf})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(Sync)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("output = %q", out)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_FILE", "")

	opts := OptionsFromEnv()
	if opts.Level != "debug" || opts.File || !opts.Console || opts.Format != "json" {
		t.Fatalf("opts = %+v", opts)
	}
	if opts.FilePath != filepath.FromSlash(DefaultLogFile) {
		t.Fatalf("file path = %q", opts.FilePath)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"DEBUG":   "debug",
		"warning": "warn",
		"":        "info",
		"bogus":   "info",
		"error":   "error",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
