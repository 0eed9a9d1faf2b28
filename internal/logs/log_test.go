package logs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitWriterFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter("test", Config{Level: "WARN"}, &buf); err != nil {
		t.Fatalf("InitWriter failed: %v", err)
	}
	t.Cleanup(func() { logger.Store(zap.NewNop()) })

	Info("hidden")
	Warn("shown", zap.String("session", "ab12"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "ab12") {
		t.Errorf("Expected warn line with field, got %q", out)
	}
	if !strings.Contains(out, "test") {
		t.Errorf("Expected logger name in output, got %q", out)
	}
}

func TestSetLevelAffectsExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter("test", Config{Level: "info"}, &buf); err != nil {
		t.Fatalf("InitWriter failed: %v", err)
	}
	t.Cleanup(func() {
		logger.Store(zap.NewNop())
		SetLevel("info")
	})

	child := Named("levels")
	child.Debug("before")
	SetLevel("debug")
	child.Debug("after")

	if strings.Contains(buf.String(), "before") {
		t.Error("Debug should be filtered before SetLevel")
	}
	if !strings.Contains(buf.String(), "after") {
		t.Error("SetLevel should reach loggers created earlier")
	}
}

func TestInitWriterBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter("test", Config{Level: "loud"}, &buf); err != nil {
		t.Fatalf("InitWriter failed: %v", err)
	}
	t.Cleanup(func() { logger.Store(zap.NewNop()) })

	Debug("debug line")
	Info("info line")

	if strings.Contains(buf.String(), "debug line") {
		t.Error("Debug should be filtered at the fallback level")
	}
	if !strings.Contains(buf.String(), "info line") {
		t.Error("Info should pass at the fallback level")
	}
}

func TestInitWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sokoban.log")
	var buf bytes.Buffer
	if err := InitWriter("test", Config{Level: "info", File: path}, &buf); err != nil {
		t.Fatalf("InitWriter failed: %v", err)
	}
	t.Cleanup(func() { logger.Store(zap.NewNop()) })

	Named("levels").Info("level loaded", zap.String("name", "level1"))
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"name":"level1"`) {
		t.Errorf("Expected JSON field in file, got %q", data)
	}
	if !strings.Contains(string(data), `"logger":"test.levels"`) {
		t.Errorf("Expected named logger in file, got %q", data)
	}
}
