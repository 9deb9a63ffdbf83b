package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesTurnScopedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	l, closeLog, err := New(Options{File: path, Level: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	ForTurn(l, 7).Info("unit executed", zap.String("unit", "Giap"))
	l.Debug("run level record")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "unit executed") || !strings.Contains(out, `"turn": 7`) || !strings.Contains(out, `"unit": "Giap"`) {
		t.Fatalf("log output missing fields:\n%s", out)
	}
	if !strings.Contains(out, "DEBUG") {
		t.Fatalf("debug record filtered at debug level:\n%s", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	l, closeLog, err := New(Options{File: path, Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hidden")
	l.Warn("shown")
	_ = closeLog()
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "shown") {
		t.Fatalf("unexpected output:\n%s", data)
	}
}

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel(""); err != nil || lvl != zapcore.InfoLevel {
		t.Fatalf("empty level = %v, %v", lvl, err)
	}
	if lvl, err := ParseLevel("ERROR"); err != nil || lvl != zapcore.ErrorLevel {
		t.Fatalf("ERROR = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNew_NoSinks(t *testing.T) {
	l, closeLog, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("dropped")
	if err := closeLog(); err != nil {
		t.Fatalf("close without sinks: %v", err)
	}
}

func TestNew_CloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.log")
	l, closeLog, err := New(Options{File: path})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("before close")
	if err := closeLog(); err != nil {
		t.Fatal(err)
	}
	if err := closeLog(); err == nil {
		t.Fatalf("second close should report the already closed file")
	}
	l.Info("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "before close") || strings.Contains(string(data), "after close") {
		t.Fatalf("unexpected output:\n%s", data)
	}
}
