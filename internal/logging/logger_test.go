package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNoopBeforeInit(t *testing.T) {
	Close()
	// Must not panic without a logger.
	Info("info")
	Debug("debug")
	Warn("warn")
	Error("error")
	if WithPrefix("x") != nil {
		t.Error("WithPrefix should return nil before Init")
	}
}

func TestInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "debug"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	Info("hello", "key", "value")
	Close()

	matches, err := filepath.Glob(filepath.Join(dir, "artscroll-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (err=%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestInitBadLevelFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, "loud"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Close()
	if Logger == nil {
		t.Fatal("Logger should be set")
	}
}
