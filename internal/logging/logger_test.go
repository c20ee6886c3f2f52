package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, log.WarnLevel)
	defer func() { Logger = nil }()

	Info("hidden")
	Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn output missing: %q", out)
	}
}

func TestInitToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(Options{Dir: dir, Level: "debug"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("hello from test")
	Close()
	Logger = nil

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", entries, err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	Logger = nil
	Info("x")
	Debug("x")
	Warn("x")
	Error("x")
	if WithPrefix("p") == nil {
		t.Error("WithPrefix should never return nil")
	}
}
