package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_CreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	l := New(dir)
	l.Info("pipeline started")
	l.Warning("queue nearly full")
	l.Error("ship failed")

	data, err := os.ReadFile(filepath.Join(dir, "camwatch.log"))
	if err != nil {
		t.Fatalf("Log file should exist: %v", err)
	}

	content := string(data)
	for _, want := range []string{
		"INFO", "pipeline started",
		"WARN", "queue nearly full",
		"ERROR", "ship failed",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Log file missing %q:\n%s", want, content)
		}
	}
}

func TestLogger_FormatsArguments(t *testing.T) {
	dir := t.TempDir()

	l := New(dir)
	l.Info("Shipped %d objects from frame %d", 3, 24)

	data, err := os.ReadFile(filepath.Join(dir, "camwatch.log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "Shipped 3 objects from frame 24") {
		t.Errorf("Formatted message missing from log:\n%s", string(data))
	}
}
